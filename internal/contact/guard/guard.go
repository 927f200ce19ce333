// Package guard screens submissions for automation before any expensive
// work runs. Checks are cheap and deliberately vague toward the caller;
// the specific trip reason only appears in server logs so bots cannot
// probe for the exact rule they hit.
package guard

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"formgate/internal/contact/models"
	"formgate/internal/platform/privacy"
	domainerrors "formgate/pkg/domain-errors"
	"formgate/pkg/requestcontext"
)

const (
	// MinFormAge rejects submissions completed faster than a human can
	// read the form.
	MinFormAge = 3 * time.Second
	// MaxFormAge rejects stale or replayed form tokens.
	MaxFormAge = 10 * time.Minute
)

const rejectionMessage = "Submission could not be processed"

// Guard runs origin and anti-automation checks.
type Guard struct {
	allowedOrigins []string
	logger         *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New builds a Guard. allowedOrigins are scheme://host[:port] values
// matched exactly against the Origin header.
func New(allowedOrigins []string, opts ...Option) *Guard {
	g := &Guard{
		allowedOrigins: allowedOrigins,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckOrigin verifies the request came from an allowed site. A request
// carrying neither Origin nor Referer is tolerated; some privacy
// extensions strip both, and the timestamp check still applies.
func (g *Guard) CheckOrigin(ctx context.Context, origin, referer string) error {
	if len(g.allowedOrigins) == 0 {
		return nil
	}
	if origin == "" && referer == "" {
		return nil
	}

	if origin != "" {
		for _, allowed := range g.allowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return nil
			}
		}
	} else {
		for _, allowed := range g.allowedOrigins {
			if refererMatches(referer, allowed) {
				return nil
			}
		}
	}

	g.logger.WarnContext(ctx, "origin_rejected",
		slog.String("origin", origin),
		slog.String("referer", referer),
		slog.String("client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx))),
	)
	return domainerrors.New(domainerrors.CodeOriginRejected, "Origin not allowed")
}

// refererMatches reports whether the referer falls under the allowed origin.
// The origin must be followed by a path, query, fragment, or nothing at all,
// so https://example.com does not admit https://example.com.evil.test.
func refererMatches(referer, allowed string) bool {
	ref := strings.ToLower(referer)
	origin := strings.ToLower(allowed)
	if !strings.HasPrefix(ref, origin) {
		return false
	}
	rest := ref[len(origin):]
	if rest == "" {
		return true
	}
	switch rest[0] {
	case '/', '?', '#':
		return true
	}
	return false
}

// Check applies the honeypot and timing heuristics to a parsed submission.
func (g *Guard) Check(ctx context.Context, req *models.SubmissionRequest) error {
	if strings.TrimSpace(req.Website) != "" {
		g.logReject(ctx, "honeypot_filled", slog.Int("length", len(req.Website)))
		return domainerrors.New(domainerrors.CodeSpamSuspected, rejectionMessage)
	}

	submittedAt, ok := parseTimestamp(req.Timestamp)
	if !ok {
		g.logReject(ctx, "timestamp_unparseable", slog.String("raw", req.Timestamp))
		return domainerrors.New(domainerrors.CodeSpamSuspected, rejectionMessage)
	}

	age := requestcontext.Now(ctx).Sub(submittedAt)
	switch {
	case age < MinFormAge:
		g.logReject(ctx, "form_filled_too_fast", slog.Duration("age", age))
		return domainerrors.New(domainerrors.CodeSpamSuspected, rejectionMessage)
	case age > MaxFormAge:
		g.logReject(ctx, "form_token_stale", slog.Duration("age", age))
		return domainerrors.New(domainerrors.CodeSpamSuspected, rejectionMessage)
	}

	return nil
}

func (g *Guard) logReject(ctx context.Context, reason string, attrs ...any) {
	base := []any{
		slog.String("reason", reason),
		slog.String("client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx))),
	}
	g.logger.WarnContext(ctx, "submission_rejected", append(base, attrs...)...)
}

// parseTimestamp accepts RFC 3339 or Unix epoch milliseconds, the two
// formats browser clients emit.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis), true
	}
	return time.Time{}, false
}
