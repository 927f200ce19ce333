// Package service enforces the per-client submission rate limit.
//
// The limiter is a fixed window with an escalating block: a client that
// exhausts its window quota is blocked for a longer, separate duration.
// State lives behind the Store port so single-instance deployments use the
// in-memory map while multi-instance deployments can slot in a shared store.
//
// Usage:
//
//	svc, _ := service.New(memory.New(), service.WithLogger(log))
//	result, _ := svc.CheckAndConsume(ctx, clientIP)
//	if !result.Allowed {
//	    // Return 429 Too Many Requests
//	}
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"formgate/internal/platform/privacy"
	"formgate/internal/ratelimit/config"
	"formgate/internal/ratelimit/metrics"
	"formgate/internal/ratelimit/models"
	dErrors "formgate/pkg/domain-errors"
)

// Store is the rate limit state port. Implementations must make the whole
// check-and-consume transition atomic per client identifier.
type Store interface {
	CheckAndConsume(ctx context.Context, clientID string, limit int, window, block time.Duration) (*models.Result, error)
	Sweep(ctx context.Context, now time.Time) (evicted int, err error)
}

// Service applies configured limits to client identifiers.
// Thread-safe for concurrent use by HTTP handlers.
type Service struct {
	store   Store
	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger for audit logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default limit configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a rate limiting service backed by the given store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("rate limit store is required")
	}

	svc := &Service{
		store:  store,
		logger: slog.Default(),
		config: config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Config exposes the active limits for response headers and the sweep worker.
func (s *Service) Config() *config.Config {
	return s.config
}

// CheckAndConsume records one request from clientID against the current
// window and reports whether it is admitted. A denial from a client that
// just exhausted the window escalates to a block.
func (s *Service) CheckAndConsume(ctx context.Context, clientID string) (*models.Result, error) {
	result, err := s.store.CheckAndConsume(ctx, clientID, s.config.RequestsPerWindow, s.config.Window, s.config.BlockDuration)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	switch {
	case result.Allowed:
		if s.metrics != nil {
			s.metrics.RecordCheck("allowed")
		}
	case result.Blocked:
		if s.metrics != nil {
			s.metrics.RecordCheck("blocked")
			s.metrics.RecordBlock()
		}
		s.logger.Warn("rate_limit_blocked",
			"client", privacy.AnonymizeIP(clientID),
			"retry_after_s", result.RetryAfter,
		)
	default:
		if s.metrics != nil {
			s.metrics.RecordCheck("denied")
		}
		s.logger.Warn("rate_limit_exceeded",
			"client", privacy.AnonymizeIP(clientID),
			"limit", result.Limit,
			"window_seconds", int(s.config.Window.Seconds()),
		)
	}

	return result, nil
}

// Sweep evicts fully-expired records. Called by the sweep worker.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	evicted, err := s.store.Sweep(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep rate limit records")
	}
	return evicted, nil
}
