package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"formgate/internal/contact/guard"
	"formgate/internal/contact/models"
	"formgate/internal/contact/schema"
	"formgate/internal/contact/tracer"
	rlmodels "formgate/internal/ratelimit/models"
	domainerrors "formgate/pkg/domain-errors"
	"formgate/pkg/requestcontext"
)

// stubLimiter returns a canned result and counts consumptions.
type stubLimiter struct {
	result *rlmodels.Result
	err    error
	calls  int
}

func (l *stubLimiter) CheckAndConsume(_ context.Context, _ string) (*rlmodels.Result, error) {
	l.calls++
	return l.result, l.err
}

// stubDispatcher records what it was asked to deliver.
type stubDispatcher struct {
	err        error
	configured bool
	dispatched []*models.SanitizedSubmission
}

func (d *stubDispatcher) Dispatch(_ context.Context, sub *models.SanitizedSubmission) error {
	d.dispatched = append(d.dispatched, sub)
	return d.err
}

func (d *stubDispatcher) Configured() bool { return d.configured }

// recordingTracer collects span attributes keyed by span name.
type recordingTracer struct {
	attrs map[string][]tracer.Attribute
}

func newRecordingTracer() *recordingTracer {
	return &recordingTracer{attrs: make(map[string][]tracer.Attribute)}
}

func (t *recordingTracer) Start(ctx context.Context, name string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	t.attrs[name] = append(t.attrs[name], attrs...)
	return ctx, &recordingSpan{owner: t, name: name}
}

func (t *recordingTracer) attr(span, key string) (any, bool) {
	for _, a := range t.attrs[span] {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

type recordingSpan struct {
	owner *recordingTracer
	name  string
}

func (s *recordingSpan) End(error) {}

func (s *recordingSpan) SetAttributes(attrs ...tracer.Attribute) {
	s.owner.attrs[s.name] = append(s.owner.attrs[s.name], attrs...)
}

func (s *recordingSpan) AddEvent(string, ...tracer.Attribute) {}

type ServiceSuite struct {
	suite.Suite
	limiter    *stubLimiter
	dispatcher *stubDispatcher
	svc        *Service
	now        time.Time
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.limiter = &stubLimiter{
		result: &rlmodels.Result{Allowed: true, Limit: 3, Remaining: 2},
	}
	s.dispatcher = &stubDispatcher{configured: true}

	g := guard.New([]string{"https://example.com"}, guard.WithLogger(discard))

	svc, err := New(s.limiter, schema.Default(), g, s.dispatcher, WithLogger(discard))
	s.Require().NoError(err)
	s.svc = svc

	s.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) payload(mutate func(map[string]any)) []byte {
	body := map[string]any{
		"name":      "Ada Lovelace",
		"email":     "ada@example.org",
		"subject":   "Engine inquiry",
		"message":   "I would like to discuss the analytical engine project.",
		"timestamp": s.now.Add(-time.Minute).Format(time.RFC3339),
	}
	if mutate != nil {
		mutate(body)
	}
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	return raw
}

func (s *ServiceSuite) inbound(payload []byte) *Inbound {
	return &Inbound{
		Origin:   "https://example.com",
		ClientID: "198.51.100.7",
		Payload:  payload,
	}
}

func (s *ServiceSuite) TestSubmitHappyPath() {
	outcome, err := s.svc.Submit(s.ctx, s.inbound(s.payload(nil)))

	s.Require().NoError(err)
	s.NotEmpty(outcome.SubmissionID)
	s.Equal("Your message has been sent successfully", outcome.Message)
	s.Equal(s.now, outcome.Timestamp)
	s.Require().NotNil(outcome.RateLimit)
	s.Equal(2, outcome.RateLimit.Remaining)

	s.Require().Len(s.dispatcher.dispatched, 1)
	sub := s.dispatcher.dispatched[0]
	s.Equal(outcome.SubmissionID, sub.ID)
	s.Equal("Ada Lovelace", sub.Name)
	s.Equal(s.now, sub.ReceivedAt)
}

func (s *ServiceSuite) TestSubmitTracesRateLimitRemaining() {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	spans := newRecordingTracer()
	g := guard.New([]string{"https://example.com"}, guard.WithLogger(discard))
	svc, err := New(s.limiter, schema.Default(), g, s.dispatcher,
		WithLogger(discard), WithTracer(spans))
	s.Require().NoError(err)

	s.Run("accepted submission", func() {
		_, err := svc.Submit(s.ctx, s.inbound(s.payload(nil)))
		s.Require().NoError(err)

		value, ok := spans.attr(tracer.SpanSubmit, tracer.AttrRateRemaining)
		s.Require().True(ok)
		s.Equal(int64(2), value)
	})

	s.Run("rate limited submission", func() {
		s.limiter.result = &rlmodels.Result{Allowed: false, Limit: 3, Remaining: 0}
		spans.attrs = make(map[string][]tracer.Attribute)

		_, err := svc.Submit(s.ctx, s.inbound(s.payload(nil)))
		s.Require().Error(err)

		value, ok := spans.attr(tracer.SpanSubmit, tracer.AttrRateRemaining)
		s.Require().True(ok)
		s.Equal(int64(0), value)
	})
}

func (s *ServiceSuite) TestSubmitSanitizesBeforeDispatch() {
	payload := s.payload(func(m map[string]any) {
		m["subject"] = `Quote for "project" <urgent>`
	})

	_, err := s.svc.Submit(s.ctx, s.inbound(payload))

	s.Require().NoError(err)
	s.Require().Len(s.dispatcher.dispatched, 1)
	s.Equal("Quote for &quot;project&quot; &lt;urgent&gt;", s.dispatcher.dispatched[0].Subject)
}

func (s *ServiceSuite) TestOriginRejectedBeforeQuotaSpent() {
	// Justification: a cross-site probe must not consume the legitimate
	// user's submission quota for that address.
	in := s.inbound(s.payload(nil))
	in.Origin = "https://evil.test"

	outcome, err := s.svc.Submit(s.ctx, in)

	s.True(domainerrors.HasCode(err, domainerrors.CodeOriginRejected))
	s.Nil(outcome)
	s.Zero(s.limiter.calls)
	s.Empty(s.dispatcher.dispatched)
}

func (s *ServiceSuite) TestRateLimitedCarriesQuotaState() {
	s.limiter.result = &rlmodels.Result{
		Allowed:    false,
		Limit:      3,
		Remaining:  0,
		Blocked:    true,
		RetryAfter: 7200,
	}

	outcome, err := s.svc.Submit(s.ctx, s.inbound(s.payload(nil)))

	s.True(domainerrors.HasCode(err, domainerrors.CodeRateLimited))
	s.Require().NotNil(outcome)
	s.Require().NotNil(outcome.RateLimit)
	s.True(outcome.RateLimit.Blocked)
	s.Equal(7200, outcome.RateLimit.RetryAfter)
	s.Empty(s.dispatcher.dispatched)
}

func (s *ServiceSuite) TestLimiterErrorSurfacesAsInternal() {
	s.limiter.result = nil
	s.limiter.err = domainerrors.Wrap(errors.New("store gone"), domainerrors.CodeInternal, "failed to check rate limit")

	outcome, err := s.svc.Submit(s.ctx, s.inbound(s.payload(nil)))

	s.True(domainerrors.HasCode(err, domainerrors.CodeInternal))
	s.Nil(outcome)
}

func (s *ServiceSuite) TestMalformedPayload() {
	cases := []struct {
		desc    string
		payload []byte
	}{
		{"empty body", []byte("")},
		{"whitespace body", []byte("   \n")},
		{"broken json", []byte(`{"name": "Ada"`)},
		{"trailing garbage", []byte(`{"name": "Ada"} extra`)},
	}

	for _, tc := range cases {
		s.Run(tc.desc, func() {
			outcome, err := s.svc.Submit(s.ctx, s.inbound(tc.payload))

			s.True(domainerrors.HasCode(err, domainerrors.CodeMalformedPayload))
			// Quota was spent; headers must still be settable.
			s.Require().NotNil(outcome)
			s.NotNil(outcome.RateLimit)
		})
	}
}

func (s *ServiceSuite) TestValidationFailureCarriesFieldDetail() {
	payload := s.payload(func(m map[string]any) {
		m["name"] = "A"
		m["email"] = "not-an-email"
	})

	outcome, err := s.svc.Submit(s.ctx, s.inbound(payload))

	s.True(domainerrors.HasCode(err, domainerrors.CodeValidationFailed))
	fields := domainerrors.FieldsOf(err)
	s.Equal("Name must be at least 2 characters", fields["name"])
	s.Equal("Please provide a valid email address", fields["email"])
	s.Require().NotNil(outcome)
	s.Empty(s.dispatcher.dispatched)
}

func (s *ServiceSuite) TestValidationRunsBeforeGuard() {
	// Both field errors and the honeypot trip; the user-facing error is
	// the fixable one.
	payload := s.payload(func(m map[string]any) {
		m["name"] = "A"
		m["website"] = "https://spam.test"
	})

	_, err := s.svc.Submit(s.ctx, s.inbound(payload))

	s.True(domainerrors.HasCode(err, domainerrors.CodeValidationFailed))
}

func (s *ServiceSuite) TestGuardRejections() {
	cases := []struct {
		desc   string
		mutate func(map[string]any)
	}{
		{"honeypot filled", func(m map[string]any) { m["website"] = "https://spam.test" }},
		{"submitted too fast", func(m map[string]any) { m["timestamp"] = s.now.Add(-time.Second).Format(time.RFC3339) }},
		{"form token stale", func(m map[string]any) { m["timestamp"] = s.now.Add(-time.Hour).Format(time.RFC3339) }},
		{"timestamp missing", func(m map[string]any) { delete(m, "timestamp") }},
	}

	for _, tc := range cases {
		s.Run(tc.desc, func() {
			s.dispatcher.dispatched = nil

			outcome, err := s.svc.Submit(s.ctx, s.inbound(s.payload(tc.mutate)))

			s.True(domainerrors.HasCode(err, domainerrors.CodeSpamSuspected))
			s.Require().NotNil(outcome)
			s.Empty(s.dispatcher.dispatched)
		})
	}
}

func (s *ServiceSuite) TestDispatchFailurePropagates() {
	s.dispatcher.err = domainerrors.New(domainerrors.CodeDispatchFailed, "Failed to send notification")

	outcome, err := s.svc.Submit(s.ctx, s.inbound(s.payload(nil)))

	s.True(domainerrors.HasCode(err, domainerrors.CodeDispatchFailed))
	s.Require().NotNil(outcome)
	s.Empty(outcome.SubmissionID)
}

func (s *ServiceSuite) TestReadyReflectsDispatcher() {
	s.True(s.svc.Ready())
	s.dispatcher.configured = false
	s.False(s.svc.Ready())
}

func (s *ServiceSuite) TestNewRequiresCollaborators() {
	g := guard.New(nil)

	_, err := New(nil, schema.Default(), g, s.dispatcher)
	s.Error(err)

	_, err = New(s.limiter, nil, g, s.dispatcher)
	s.Error(err)

	_, err = New(s.limiter, schema.Default(), nil, s.dispatcher)
	s.Error(err)

	_, err = New(s.limiter, schema.Default(), g, nil)
	s.Error(err)
}
