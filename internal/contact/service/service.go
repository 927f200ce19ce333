// Package service orchestrates the contact submission pipeline.
//
// A submission passes through a fixed gauntlet: origin check, rate limit,
// payload parse, schema validation, anti-automation guard, and finally
// notification dispatch. The ordering is deliberate; each stage is cheaper
// than the next, so abusive traffic is shed before it costs anything.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"formgate/internal/contact/metrics"
	"formgate/internal/contact/models"
	"formgate/internal/contact/schema"
	"formgate/internal/contact/tracer"
	"formgate/internal/platform/privacy"
	rlmodels "formgate/internal/ratelimit/models"
	domainerrors "formgate/pkg/domain-errors"
	"formgate/pkg/platform/httputil"
	"formgate/pkg/requestcontext"
)

// RateLimiter is the submission quota port.
type RateLimiter interface {
	CheckAndConsume(ctx context.Context, clientID string) (*rlmodels.Result, error)
}

// Validator is the schema engine port.
type Validator interface {
	Validate(raw map[string]string) *schema.Result
}

// Guard is the origin and anti-automation port.
type Guard interface {
	CheckOrigin(ctx context.Context, origin, referer string) error
	Check(ctx context.Context, req *models.SubmissionRequest) error
}

// Dispatcher is the notification delivery port.
type Dispatcher interface {
	Dispatch(ctx context.Context, sub *models.SanitizedSubmission) error
	Configured() bool
}

// Inbound is one submission attempt as seen by the controller: transport
// metadata plus the still-unparsed body.
type Inbound struct {
	Origin   string
	Referer  string
	ClientID string
	Payload  []byte
}

// Outcome is a successful submission result.
type Outcome struct {
	SubmissionID string
	Message      string
	Timestamp    time.Time
	// RateLimit carries quota state for response headers. Always set when
	// the request got past the rate limiter, on success and failure alike.
	RateLimit *rlmodels.Result
}

// Service runs the submission pipeline.
type Service struct {
	limiter    RateLimiter
	validator  Validator
	guard      Guard
	dispatcher Dispatcher

	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates the pipeline controller. All four collaborators are required.
func New(limiter RateLimiter, validator Validator, guard Guard, dispatcher Dispatcher, opts ...Option) (*Service, error) {
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if guard == nil {
		return nil, errors.New("guard is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	svc := &Service{
		limiter:    limiter,
		validator:  validator,
		guard:      guard,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		tracer:     tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Ready reports whether the pipeline can deliver notifications.
func (s *Service) Ready() bool {
	return s.dispatcher.Configured()
}

// Submit runs one submission through the pipeline. On failure the returned
// Outcome still carries rate limit state when the limiter stage produced
// one, so the transport layer can set quota headers on error responses.
func (s *Service) Submit(ctx context.Context, in *Inbound) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSubmit)

	outcome, err := s.submit(ctx, in)
	if err != nil {
		s.recordFailure(ctx, in, err)
	}
	if outcome != nil && outcome.RateLimit != nil {
		span.SetAttributes(tracer.Int64(tracer.AttrRateRemaining, int64(outcome.RateLimit.Remaining)))
	}

	span.End(err)
	return outcome, err
}

func (s *Service) submit(ctx context.Context, in *Inbound) (*Outcome, error) {
	if err := s.guard.CheckOrigin(ctx, in.Origin, in.Referer); err != nil {
		return nil, err
	}

	limit, err := s.limiter.CheckAndConsume(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{RateLimit: limit}
	if !limit.Allowed {
		return outcome, domainerrors.New(domainerrors.CodeRateLimited, "Too many submissions")
	}

	req, err := parsePayload(in.Payload)
	if err != nil {
		return outcome, err
	}

	sanitized, err := s.validate(ctx, req)
	if err != nil {
		return outcome, err
	}

	if err := s.checkGuard(ctx, req); err != nil {
		return outcome, err
	}

	now := requestcontext.Now(ctx)
	sub := models.FromSanitizedFields(uuid.NewString(), sanitized, now)
	sub.UserAgent = req.UserAgent
	sub.TimeZone = req.TimeZone

	if err := s.dispatcher.Dispatch(ctx, sub); err != nil {
		return outcome, err
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission("accepted")
	}
	s.logger.InfoContext(ctx, "submission_accepted",
		slog.String("submission_id", sub.ID),
		slog.String("client_ip", privacy.AnonymizeIP(in.ClientID)),
		slog.String("sender", tracer.HashEmail(sub.Email)),
	)

	outcome.SubmissionID = sub.ID
	outcome.Message = "Your message has been sent successfully"
	outcome.Timestamp = now
	return outcome, nil
}

func (s *Service) validate(ctx context.Context, req *models.SubmissionRequest) (map[string]string, error) {
	_, span := s.tracer.Start(ctx, tracer.SpanValidate)

	result := s.validator.Validate(req.Fields())
	if result.Valid {
		span.End(nil)
		return result.Sanitized, nil
	}

	if s.metrics != nil {
		for field := range result.Errors {
			s.metrics.RecordValidationFailure(field)
		}
	}
	span.SetAttributes(tracer.Int64(tracer.AttrFieldErrors, int64(len(result.Errors))))

	err := domainerrors.NewValidation("Validation failed", result.Errors)
	span.End(err)
	return nil, err
}

func (s *Service) checkGuard(ctx context.Context, req *models.SubmissionRequest) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanGuard)
	err := s.guard.Check(ctx, req)
	span.End(err)
	return err
}

// recordFailure maps pipeline errors to the submissions counter and logs
// anything unexpected. Expected rejections were already logged with detail
// at the stage that produced them.
func (s *Service) recordFailure(ctx context.Context, in *Inbound, err error) {
	outcome := "internal_error"
	switch {
	case domainerrors.HasCode(err, domainerrors.CodeOriginRejected):
		outcome = "rejected_origin"
	case domainerrors.HasCode(err, domainerrors.CodeRateLimited):
		outcome = "rejected_rate"
	case domainerrors.HasCode(err, domainerrors.CodePayloadTooLarge),
		domainerrors.HasCode(err, domainerrors.CodeMalformedPayload):
		outcome = "rejected_payload"
	case domainerrors.HasCode(err, domainerrors.CodeValidationFailed):
		outcome = "rejected_validation"
	case domainerrors.HasCode(err, domainerrors.CodeSpamSuspected):
		outcome = "rejected_guard"
	case domainerrors.HasCode(err, domainerrors.CodeDispatchFailed),
		domainerrors.HasCode(err, domainerrors.CodeTimeout),
		domainerrors.HasCode(err, domainerrors.CodeServiceUnavailable):
		outcome = "dispatch_failed"
	default:
		s.logger.ErrorContext(ctx, "submission_pipeline_error",
			slog.String("client_ip", privacy.AnonymizeIP(in.ClientID)),
			slog.String("error", err.Error()),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission(outcome)
	}
}

// parsePayload decodes the raw body into a submission request. The body
// size was already bounded at the transport layer.
func parsePayload(payload []byte) (*models.SubmissionRequest, error) {
	return httputil.DecodeJSON[models.SubmissionRequest](payload)
}
