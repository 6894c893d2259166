// Package queue moves company jobs through Redis: a list for pending work
// and a sorted set, scored by due time, for delayed retries.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadscore/internal/lead"
)

var (
	// ErrEmpty is returned by Dequeue when no job arrived before the timeout.
	ErrEmpty = errors.New("queue: empty")
	// ErrBadJob wraps payloads that cannot be decoded.
	ErrBadJob = errors.New("queue: malformed job")
)

// CompanyJob asks a worker to build the lead of one company.
type CompanyJob struct {
	JobID   string       `json:"jobId"`
	Company lead.Company `json:"company"`
	Attempt int          `json:"attempt"`
}

// NewJob wraps c in a job with a fresh identifier.
func NewJob(c lead.Company) CompanyJob {
	return CompanyJob{JobID: uuid.NewString(), Company: c}
}

// Config names the Redis keys and retry policy. Zero values fall back to
// DefaultConfig.
type Config struct {
	Queue       string
	RetryQueue  string
	RetryDelay  time.Duration
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		Queue:       "company_queue",
		RetryQueue:  "company_retry_queue",
		RetryDelay:  15 * time.Minute,
		MaxAttempts: 3,
	}
}

// Queue is safe for concurrent use.
type Queue struct {
	rdb redis.Cmdable
	cfg Config
}

func New(rdb redis.Cmdable, cfg Config) *Queue {
	d := DefaultConfig()
	if cfg.Queue == "" {
		cfg.Queue = d.Queue
	}
	if cfg.RetryQueue == "" {
		cfg.RetryQueue = d.RetryQueue
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = d.RetryDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = d.MaxAttempts
	}
	return &Queue{rdb: rdb, cfg: cfg}
}

// Enqueue pushes job onto the pending list.
func (q *Queue) Enqueue(ctx context.Context, job CompanyJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := q.rdb.LPush(ctx, q.cfg.Queue, payload).Err(); err != nil {
		return fmt.Errorf("push job %s: %w", job.JobID, err)
	}
	return nil
}

// Requeue puts job back at the head of the pending list, so it is the next
// one dequeued. Used for jobs taken off the queue but not finished.
func (q *Queue) Requeue(ctx context.Context, job CompanyJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := q.rdb.RPush(ctx, q.cfg.Queue, payload).Err(); err != nil {
		return fmt.Errorf("requeue job %s: %w", job.JobID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the oldest pending job.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (CompanyJob, error) {
	result, err := q.rdb.BRPop(ctx, timeout, q.cfg.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return CompanyJob{}, ErrEmpty
		}
		return CompanyJob{}, fmt.Errorf("pop %s: %w", q.cfg.Queue, err)
	}
	if len(result) < 2 {
		return CompanyJob{}, fmt.Errorf("%w: %v", ErrBadJob, result)
	}

	var job CompanyJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return CompanyJob{}, fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	return job, nil
}

// ScheduleRetry parks job in the retry set until now+RetryDelay with its
// attempt counter bumped. It returns false without scheduling once the job
// has used all attempts.
func (q *Queue) ScheduleRetry(ctx context.Context, job CompanyJob, now time.Time) (bool, error) {
	job.Attempt++
	if job.Attempt >= q.cfg.MaxAttempts {
		return false, nil
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	due := now.Add(q.cfg.RetryDelay).Unix()
	if err := q.rdb.ZAdd(ctx, q.cfg.RetryQueue, redis.Z{Score: float64(due), Member: payload}).Err(); err != nil {
		return false, fmt.Errorf("schedule retry %s: %w", job.JobID, err)
	}
	return true, nil
}

// PromoteDue moves every retry due at or before now back onto the pending
// list and returns how many were moved. Malformed entries are dropped.
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	items, err := q.rdb.ZRangeByScore(ctx, q.cfg.RetryQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", q.cfg.RetryQueue, err)
	}

	moved := 0
	for _, item := range items {
		var job CompanyJob
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			q.rdb.ZRem(ctx, q.cfg.RetryQueue, item)
			continue
		}

		// Only the caller that removes the entry may requeue it.
		removed, err := q.rdb.ZRem(ctx, q.cfg.RetryQueue, item).Result()
		if err != nil {
			return moved, fmt.Errorf("remove retry %s: %w", job.JobID, err)
		}
		if removed == 0 {
			continue
		}

		if err := q.rdb.LPush(ctx, q.cfg.Queue, item).Err(); err != nil {
			q.rdb.ZAdd(ctx, q.cfg.RetryQueue, redis.Z{
				Score:  float64(now.Add(q.cfg.RetryDelay).Unix()),
				Member: item,
			})
			return moved, fmt.Errorf("requeue %s: %w", job.JobID, err)
		}
		moved++
	}
	return moved, nil
}

// Pending returns the length of the pending list.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.cfg.Queue).Result()
}

// Retrying returns the size of the retry set.
func (q *Queue) Retrying(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.cfg.RetryQueue).Result()
}
