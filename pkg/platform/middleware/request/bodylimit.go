package request

import (
	"net/http"

	dErrors "formgate/pkg/domain-errors"
	"formgate/pkg/platform/httputil"
)

// BodyLimit returns middleware that bounds request body size.
//
// Declared oversize bodies (Content-Length above the ceiling) are rejected
// with the 413 envelope before any bytes are read. Bodies without a length
// declaration are wrapped in http.MaxBytesReader, which aborts the read
// mid-stream and surfaces as CodePayloadTooLarge during JSON decode.
// Apply early in the chain, before anything touches the body.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "Request body too large"))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
