// Package requesttime pins a single "now" to each HTTP request so every
// pipeline stage (rate limit window math, freshness checks, response
// timestamps) agrees on the current time.
package requesttime

import (
	"net/http"
	"time"

	"formgate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context for the rest of the pipeline.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
