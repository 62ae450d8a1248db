// Package scheduler provides a generic periodic job runner. It is deliberately
// unaware of what it runs; the evaluator binary uses it for the evaluation
// loop and for unrelated jobs like the preference cache refresh.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Job is one unit of scheduled work. Jobs must handle their own errors; the
// runner only observes panics.
type Job func(ctx context.Context)

// Runner invokes a job every interval until the context is cancelled.
type Runner struct {
	name       string
	interval   time.Duration
	jitter     time.Duration
	runOnStart bool
	job        Job
	logger     *slog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithJitter delays each tick by a random duration up to d, spreading load
// when several runners share an interval.
func WithJitter(d time.Duration) Option {
	return func(r *Runner) { r.jitter = d }
}

// WithRunOnStart fires the job immediately instead of waiting one interval.
func WithRunOnStart() Option {
	return func(r *Runner) { r.runOnStart = true }
}

// NewRunner creates a runner for the named job.
func NewRunner(name string, interval time.Duration, job Job, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start blocks, invoking the job on every tick until ctx is cancelled.
// Callers run it in a goroutine. A panicking job is logged and the schedule
// keeps going.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("scheduler started",
		"job", r.name,
		"interval", r.interval,
		"jitter", r.jitter)

	if r.runOnStart {
		r.invoke(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopped", "job", r.name)
			return
		case <-ticker.C:
			if r.jitter > 0 {
				delay := time.Duration(rand.Int63n(int64(r.jitter)))
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}
			r.invoke(ctx)
		}
	}
}

func (r *Runner) invoke(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("scheduled job panicked",
				"job", r.name,
				"panic", rec)
		}
	}()
	r.job(ctx)
}
