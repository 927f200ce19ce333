// Package httptransport assembles the public HTTP surface: the contact
// endpoints, health probes, and the metrics listener.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contacthandler "formgate/internal/contact/handler"
	"formgate/internal/platform/config"
	"formgate/internal/platform/health"
	"formgate/internal/platform/middleware"
	"formgate/pkg/platform/middleware/metadata"
	"formgate/pkg/platform/middleware/request"
	"formgate/pkg/platform/middleware/requesttime"
)

// RequestTimeout bounds the whole request, dispatch included. It must
// exceed the notification send timeout or every slow dispatch would
// surface as a request timeout instead of a dispatch error.
const RequestTimeout = 30 * time.Second

// NewRouter wires the middleware stack and mounts all endpoints.
//
// Order matters: recovery wraps everything, identity and time are resolved
// before any check that uses them, and the body limit sits in front of the
// JSON content-type gate so oversized garbage is refused at the cheapest
// possible point.
func NewRouter(contact *contacthandler.Handler, healthHandler *health.Handler, cfg *config.Server, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.ContentTypeJSON)
		contact.Routes(r)
	})

	return r
}
