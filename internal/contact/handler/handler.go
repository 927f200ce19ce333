// Package handler exposes the contact pipeline over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"formgate/internal/contact/models"
	"formgate/internal/contact/service"
	rlmodels "formgate/internal/ratelimit/models"
	domainerrors "formgate/pkg/domain-errors"
	"formgate/pkg/platform/httputil"
	"formgate/pkg/requestcontext"
)

// Config carries the static values the handler reports and enforces.
type Config struct {
	MaxBodyBytes   int64
	RateLimit      int
	RateWindowSecs int
	// Development includes diagnostic detail in error responses.
	Development bool
}

// Handler serves the /contact routes.
type Handler struct {
	svc    *service.Service
	cfg    Config
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates the contact HTTP handler.
func New(svc *service.Service, cfg Config, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the contact endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/contact", h.Submit)
	r.Get("/contact", h.Status)
}

// Submit handles POST /contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := httputil.ReadBody(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	outcome, err := h.svc.Submit(ctx, &service.Inbound{
		Origin:   r.Header.Get("Origin"),
		Referer:  r.Referer(),
		ClientID: requestcontext.ClientIP(ctx),
		Payload:  payload,
	})

	if outcome != nil && outcome.RateLimit != nil {
		setRateLimitHeaders(w, outcome.RateLimit)
	}

	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeRateLimited) && outcome != nil && outcome.RateLimit != nil {
			writeRateLimited(w, outcome.RateLimit)
			return
		}
		h.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.SubmissionResponse{
		Success:   true,
		Message:   outcome.Message,
		Timestamp: outcome.Timestamp.UTC().Format(time.RFC3339),
	})
}

// Status handles GET /contact, a side-effect-free probe describing the
// endpoint. It does not consume rate limit quota.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.svc.Ready() {
		status = "degraded"
	}

	httputil.WriteJSON(w, http.StatusOK, models.StatusResponse{
		Service:        "contact",
		Status:         status,
		RequiredFields: []string{"name", "email", "subject", "message"},
		MaxBodyBytes:   h.cfg.MaxBodyBytes,
		RateLimit:      h.cfg.RateLimit,
		RateWindowSecs: h.cfg.RateWindowSecs,
		Timestamp:      requestcontext.Now(r.Context()).UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if h.cfg.Development {
		httputil.WriteErrorDev(w, err)
		return
	}
	httputil.WriteError(w, err)
}

// setRateLimitHeaders reports quota state on every response that got far
// enough for the limiter to run, success and failure alike.
func setRateLimitHeaders(w http.ResponseWriter, result *rlmodels.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	if !result.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	}
}

// writeRateLimited emits the 429 envelope with actionable retry state.
func writeRateLimited(w http.ResponseWriter, result *rlmodels.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))

	msg := "Too many submissions. Please try again later."
	if result.Blocked {
		msg = "Submissions from your address are temporarily blocked."
	}

	httputil.WriteJSON(w, http.StatusTooManyRequests, models.RateLimitedResponse{
		Error:      msg,
		RetryAfter: result.RetryAfter,
		Blocked:    result.Blocked,
		Code:       "RATE_LIMITED",
	})
}
