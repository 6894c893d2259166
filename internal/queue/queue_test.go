package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscore/internal/lead"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	_, client := setupTestRedis(t)
	q := New(client, Config{})
	ctx := context.Background()

	first := NewJob(lead.Company{Name: "Acme", Domain: "acme.pe"})
	second := NewJob(lead.Company{Name: "Nova"})
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Nova", got.Company.Name)
}

func TestDequeueEmpty(t *testing.T) {
	_, client := setupTestRedis(t)
	q := New(client, Config{})

	_, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDequeueMalformed(t *testing.T) {
	mr, client := setupTestRedis(t)
	q := New(client, Config{})
	_, err := mr.Lpush(DefaultConfig().Queue, "{not json")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrBadJob)
}

func TestScheduleRetryAndPromote(t *testing.T) {
	_, client := setupTestRedis(t)
	q := New(client, Config{RetryDelay: 10 * time.Minute, MaxAttempts: 3})
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	job := NewJob(lead.Company{Name: "Acme", Domain: "acme.pe"})
	ok, err := q.ScheduleRetry(ctx, job, now)
	require.NoError(t, err)
	assert.True(t, ok)

	retrying, err := q.Retrying(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, retrying)

	// Not yet due.
	moved, err := q.PromoteDue(ctx, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, moved)

	moved, err = q.PromoteDue(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, 1, got.Attempt)

	retrying, err = q.Retrying(ctx)
	require.NoError(t, err)
	assert.Zero(t, retrying)
}

func TestScheduleRetryExhausted(t *testing.T) {
	_, client := setupTestRedis(t)
	q := New(client, Config{MaxAttempts: 2})
	ctx := context.Background()

	job := NewJob(lead.Company{Name: "Acme"})
	job.Attempt = 1
	ok, err := q.ScheduleRetry(ctx, job, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	retrying, err := q.Retrying(ctx)
	require.NoError(t, err)
	assert.Zero(t, retrying)
}

func TestPromoteDropsMalformed(t *testing.T) {
	mr, client := setupTestRedis(t)
	q := New(client, Config{})
	_, err := mr.ZAdd(DefaultConfig().RetryQueue, 1, "garbage")
	require.NoError(t, err)

	moved, err := q.PromoteDue(context.Background(), time.Unix(10, 0))
	require.NoError(t, err)
	assert.Zero(t, moved)

	retrying, err := q.Retrying(context.Background())
	require.NoError(t, err)
	assert.Zero(t, retrying)
}

func TestRequeueGoesFirst(t *testing.T) {
	_, client := setupTestRedis(t)
	q := New(client, Config{})
	ctx := context.Background()

	waiting := NewJob(lead.Company{Name: "Nova"})
	require.NoError(t, q.Enqueue(ctx, waiting))

	interrupted := NewJob(lead.Company{Name: "Acme", Domain: "acme.pe"})
	interrupted.Attempt = 1
	require.NoError(t, q.Requeue(ctx, interrupted))

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, interrupted, got)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, waiting, got)
}
