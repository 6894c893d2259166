// Package worker consumes company jobs from the queue, builds leads and
// stores them. Jobs whose probes were inconclusive or greylisted are parked
// for a later retry.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"leadscore/internal/lead"
	"leadscore/internal/logging"
	"leadscore/internal/queue"
)

// JobQueue is satisfied by *queue.Queue.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (queue.CompanyJob, error)
	Requeue(ctx context.Context, job queue.CompanyJob) error
	ScheduleRetry(ctx context.Context, job queue.CompanyJob, now time.Time) (bool, error)
	PromoteDue(ctx context.Context, now time.Time) (int, error)
}

// LeadSink is satisfied by *store.Store.
type LeadSink interface {
	SaveLead(ctx context.Context, jobID string, l lead.Lead) error
}

// requeueTimeout bounds the push that returns an interrupted job to the
// queue after shutdown has begun.
const requeueTimeout = 5 * time.Second

// Reporter is satisfied by *sentry.Hub.
type Reporter interface {
	CaptureException(err error) *sentry.EventID
}

type Config struct {
	Concurrency int
	PollTimeout time.Duration
	// RetrySweep is a cron schedule, e.g. "@every 30s".
	RetrySweep string
}

// Stats counts processed jobs since start.
type Stats struct {
	Saved    int64 `json:"saved"`
	Retried  int64 `json:"retried"`
	Requeued int64 `json:"requeued"`
	Failed   int64 `json:"failed"`
}

type Worker struct {
	queue    JobQueue
	builder  lead.Builder
	sink     LeadSink
	reporter Reporter
	cfg      Config
	log      logrus.FieldLogger
	now      func() time.Time

	saved, retried, requeued, failed atomic.Int64
}

type Option func(*Worker)

func WithReporter(r Reporter) Option {
	return func(w *Worker) { w.reporter = r }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(w *Worker) { w.log = log }
}

func New(q JobQueue, b lead.Builder, sink LeadSink, cfg Config, opts ...Option) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.RetrySweep == "" {
		cfg.RetrySweep = "@every 30s"
	}
	w := &Worker{
		queue:   q,
		builder: b,
		sink:    sink,
		cfg:     cfg,
		log:     logging.Discard(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Worker) Stats() Stats {
	return Stats{
		Saved:    w.saved.Load(),
		Retried:  w.retried.Load(),
		Requeued: w.requeued.Load(),
		Failed:   w.failed.Load(),
	}
}

// Run polls the queue until ctx is done, feeding a pool of Concurrency
// goroutines, and sweeps due retries on the RetrySweep schedule. A job is
// dequeued only once a goroutine is free to take it; jobs interrupted by
// shutdown go back to the head of the queue. Run returns after in-flight
// jobs finish.
func (w *Worker) Run(ctx context.Context) error {
	sched := cron.New()
	if _, err := sched.AddFunc(w.cfg.RetrySweep, func() { w.Sweep(ctx) }); err != nil {
		return fmt.Errorf("retry sweep schedule %q: %w", w.cfg.RetrySweep, err)
	}
	sched.Start()
	defer sched.Stop()

	jobs := make(chan queue.CompanyJob)
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				_ = w.Process(ctx, id, job)
			}
		}(i + 1)
	}
	w.log.WithField("workers", w.cfg.Concurrency).Info("✅ workers started")

	w.poll(ctx, jobs)
	close(jobs)
	wg.Wait()
	w.log.WithFields(logrus.Fields{
		"saved":    w.saved.Load(),
		"retried":  w.retried.Load(),
		"requeued": w.requeued.Load(),
		"failed":   w.failed.Load(),
	}).Info("👋 workers stopped")
	return nil
}

func (w *Worker) poll(ctx context.Context, jobs chan<- queue.CompanyJob) {
	for ctx.Err() == nil {
		job, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrEmpty):
			continue
		case errors.Is(err, queue.ErrBadJob):
			w.log.WithError(err).Warn("⚠️  dropping malformed job")
			continue
		default:
			if ctx.Err() != nil {
				return
			}
			w.report(err)
			w.log.WithError(err).Warn("⚠️  error reading from queue")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		select {
		case jobs <- job:
		case <-ctx.Done():
			w.requeue(ctx, job, w.log.WithField("job", job.JobID))
			return
		}
	}
}

// Process builds and stores the lead of one job. A lead with retryable
// probes is parked in the retry set instead while attempts remain.
func (w *Worker) Process(ctx context.Context, workerID int, job queue.CompanyJob) error {
	log := w.log.WithFields(logrus.Fields{
		"worker":  workerID,
		"job":     job.JobID,
		"company": job.Company.Name,
		"attempt": job.Attempt,
	})

	l, err := w.builder.Build(ctx, job.Company)
	// Probes cut short by shutdown say nothing about the mailboxes.
	if ctx.Err() != nil {
		return w.requeue(ctx, job, log)
	}
	if err != nil {
		w.failed.Add(1)
		log.WithError(err).Warn("❌ company skipped")
		return err
	}

	if l.Retryable() {
		scheduled, err := w.queue.ScheduleRetry(ctx, job, w.now())
		if err != nil {
			w.report(err)
			log.WithError(err).Error("❌ failed to add to retry queue")
		}
		if scheduled {
			w.retried.Add(1)
			log.Info("⏳ greylisted or inconclusive, queued for retry")
			return nil
		}
	}

	if err := w.sink.SaveLead(ctx, job.JobID, l); err != nil {
		if ctx.Err() != nil {
			return w.requeue(ctx, job, log)
		}
		w.failed.Add(1)
		w.report(err)
		log.WithError(err).Error("❌ database update error")
		return err
	}

	w.saved.Add(1)
	log.WithFields(logrus.Fields{
		"score": l.Score,
		"email": logging.RedactEmail(l.PrimaryEmail()),
	}).Info("✅ lead saved")
	return nil
}

// requeue returns an unfinished job to the queue. ctx is only used for its
// values: it is usually already canceled.
func (w *Worker) requeue(ctx context.Context, job queue.CompanyJob, log logrus.FieldLogger) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
	defer cancel()
	if err := w.queue.Requeue(rctx, job); err != nil {
		w.failed.Add(1)
		w.report(err)
		log.WithError(err).Error("❌ job lost: could not return it to the queue")
		return err
	}
	w.requeued.Add(1)
	log.Info("↩️  interrupted, returned to queue")
	return nil
}

// Sweep moves due retries back onto the queue.
func (w *Worker) Sweep(ctx context.Context) int {
	moved, err := w.queue.PromoteDue(ctx, w.now())
	if err != nil {
		w.report(err)
		w.log.WithError(err).Warn("⚠️  error reading retry queue")
	}
	if moved > 0 {
		w.log.WithField("jobs", moved).Info("🔄 jobs ready for retry")
	}
	return moved
}

func (w *Worker) report(err error) {
	if w.reporter != nil {
		w.reporter.CaptureException(err)
	}
}
