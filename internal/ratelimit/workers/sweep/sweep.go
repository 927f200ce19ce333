// Package sweep runs the periodic eviction of expired rate limit records,
// bounding memory growth of the in-process store. The sweep interval is a
// deployment knob independent of the window and block durations.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"formgate/internal/ratelimit/metrics"
)

// Store is the slice of the rate limit store the sweeper needs.
type Store interface {
	Sweep(ctx context.Context, now time.Time) (evicted int, err error)
	// Len reports the number of tracked clients left after a sweep.
	Len() int
}

// Option configures a Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// Worker periodically evicts expired records from the store.
type Worker struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
}

func New(store Store, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		logger:   slog.Default(),
		interval: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the sweep loop until the context is cancelled. It never blocks
// request handling: each sweep acquires the store lock only for the scan.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			evicted, err := w.RunOnce(ctx)
			duration := time.Since(start)

			if err != nil {
				w.logger.Error("ratelimit_sweep_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				if w.metrics != nil {
					w.metrics.RecordSweep("error", 0, duration.Seconds())
				}
				continue
			}

			w.logger.Info("ratelimit_sweep_completed",
				"evicted", evicted,
				"duration_ms", duration.Milliseconds(),
			)
			if w.metrics != nil {
				w.metrics.RecordSweep("success", evicted, duration.Seconds())
				w.metrics.SetTrackedClients(w.store.Len())
			}

		case <-ctx.Done():
			w.logger.Info("ratelimit sweep worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep. Logging is handled by the caller (Start).
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	return w.store.Sweep(ctx, time.Now())
}
