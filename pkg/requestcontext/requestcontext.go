// Package requestcontext carries request-scoped values (time, client
// metadata) through the pipeline. All operations within a single submission
// observe the same "now", so freshness checks, window math, and log
// timestamps stay consistent.
package requestcontext

import (
	"context"
	"time"
)

type contextKeyTime struct{}
type contextKeyClientMeta struct{}

type clientMeta struct {
	ip        string
	userAgent string
}

// WithTime injects a specific time into a context. Middleware sets this at
// the start of each request; tests and workers set it explicitly.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyTime{}, t)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithClientMetadata stores the resolved client IP and User-Agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, contextKeyClientMeta{}, clientMeta{ip: ip, userAgent: userAgent})
}

// ClientIP returns the client IP resolved by the metadata middleware,
// or "unknown" when the middleware did not run.
func ClientIP(ctx context.Context) string {
	if m, ok := ctx.Value(contextKeyClientMeta{}).(clientMeta); ok {
		return m.ip
	}
	return "unknown"
}

// UserAgent returns the request User-Agent header, or "" when unset.
func UserAgent(ctx context.Context) string {
	if m, ok := ctx.Value(contextKeyClientMeta{}).(clientMeta); ok {
		return m.userAgent
	}
	return ""
}
