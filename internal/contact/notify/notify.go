// Package notify delivers submission notifications by email. The owner
// notification is the deliverable of the whole pipeline; the sender
// acknowledgement is a courtesy that must never affect the caller-visible
// outcome.
package notify

import (
	"context"
	"log/slog"
	"time"

	"formgate/internal/contact/metrics"
	"formgate/internal/contact/models"
	"formgate/internal/contact/tracer"
	domainerrors "formgate/pkg/domain-errors"
)

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sink delivers a message to an email provider.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, msg *Message) error
}

// Dispatcher sends the owner notification synchronously under a deadline
// and the sender acknowledgement in the background.
type Dispatcher struct {
	sink    Sink
	from    string
	owner   string
	timeout time.Duration

	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *metrics.Metrics

	// ackDone lets tests observe acknowledgement completion; production
	// code never waits on acknowledgements.
	ackDone chan struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// withAckSignal makes Dispatch close the returned channel when the
// background acknowledgement finishes. Test hook only.
func withAckSignal(done chan struct{}) Option {
	return func(d *Dispatcher) {
		d.ackDone = done
	}
}

// New builds a Dispatcher. sink may be nil when no provider is configured;
// Dispatch then fails fast with a service-unavailable error.
func New(sink Sink, from, owner string, timeout time.Duration, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		from:    from,
		owner:   owner,
		timeout: timeout,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configured reports whether a provider sink and owner address are set.
// The readiness probe uses this to fail before traffic arrives.
func (d *Dispatcher) Configured() bool {
	return d.sink != nil && d.owner != "" && d.from != ""
}

// Dispatch sends the owner notification for a sanitized submission. It
// blocks until the send succeeds, fails, or the dispatch timeout elapses,
// whichever comes first. On success the sender acknowledgement goes out in
// the background; its failure is logged and counted but never surfaced.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *models.SanitizedSubmission) error {
	ctx, span := d.tracer.Start(ctx, tracer.SpanDispatch,
		tracer.String(tracer.AttrSubmissionID, sub.ID),
		tracer.String(tracer.AttrSender, tracer.HashEmail(sub.Email)),
		tracer.Duration(tracer.AttrTimeoutMs, d.timeout),
	)

	if !d.Configured() {
		err := domainerrors.New(domainerrors.CodeServiceUnavailable, "Notification service is not configured")
		span.End(err)
		return err
	}

	start := time.Now()
	err := d.sendOwner(ctx, sub)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		d.recordDispatch("ok", elapsed)
		d.logger.InfoContext(ctx, "notification_dispatched",
			slog.String("submission_id", sub.ID),
			slog.Duration("elapsed", elapsed),
		)
		d.sendAckAsync(sub)
	case domainerrors.HasCode(err, domainerrors.CodeTimeout):
		d.recordDispatch("timeout", elapsed)
		d.logger.ErrorContext(ctx, "notification_dispatch_timeout",
			slog.String("submission_id", sub.ID),
			slog.Duration("elapsed", elapsed),
		)
		span.AddEvent(tracer.EventAckSkipped)
	default:
		d.recordDispatch("error", elapsed)
		d.logger.ErrorContext(ctx, "notification_dispatch_failed",
			slog.String("submission_id", sub.ID),
			slog.String("error", err.Error()),
		)
		span.AddEvent(tracer.EventAckSkipped)
	}

	span.End(err)
	return err
}

// sendOwner races the provider call against the dispatch timeout. The
// underlying send is not cancelled on timeout; the provider may still
// deliver, and the caller is told the outcome is unknown rather than
// waiting indefinitely.
func (d *Dispatcher) sendOwner(ctx context.Context, sub *models.SanitizedSubmission) error {
	ctx, span := d.tracer.Start(ctx, tracer.SpanDispatchSend)

	msg := BuildOwnerMessage(d.from, d.owner, sub)

	result := make(chan error, 1)
	go func() {
		result <- d.sink.Send(ctx, msg)
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-result:
		if err != nil {
			err = domainerrors.Wrap(err, domainerrors.CodeDispatchFailed, "Failed to send notification")
		}
	case <-timer.C:
		err = domainerrors.New(domainerrors.CodeTimeout, "Notification send timed out")
	case <-ctx.Done():
		err = domainerrors.Wrap(ctx.Err(), domainerrors.CodeTimeout, "Notification send cancelled")
	}

	span.End(err)
	return err
}

// sendAckAsync fires the sender acknowledgement without blocking the
// request. It runs under its own deadline on a background context so the
// request finishing cannot cancel it.
func (d *Dispatcher) sendAckAsync(sub *models.SanitizedSubmission) {
	done := d.ackDone
	go func() {
		if done != nil {
			defer close(done)
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		ctx, span := d.tracer.Start(ctx, tracer.SpanDispatchAck,
			tracer.String(tracer.AttrSubmissionID, sub.ID),
		)

		err := d.sink.Send(ctx, BuildAckMessage(d.from, sub))
		if err != nil {
			if d.metrics != nil {
				d.metrics.RecordAckFailure()
			}
			d.logger.WarnContext(ctx, "acknowledgement_failed",
				slog.String("submission_id", sub.ID),
				slog.String("error", err.Error()),
			)
			span.AddEvent(tracer.EventAckFailed)
		}
		span.End(err)
	}()
}

func (d *Dispatcher) recordDispatch(status string, elapsed time.Duration) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(status, elapsed.Seconds())
	}
}
