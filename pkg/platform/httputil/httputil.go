package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "formgate/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// Internal errors are flattened to a generic message so server-side detail
// never leaks; callers that want diagnostics in development mode should use
// WriteErrorDev instead.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err, false)
}

// WriteErrorDev behaves like WriteError but includes the underlying error
// message for internal failures. Only wire this up in development mode.
func WriteErrorDev(w http.ResponseWriter, err error) {
	writeError(w, err, true)
}

func writeError(w http.ResponseWriter, err error, dev bool) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = &dErrors.Error{Code: dErrors.CodeInternal, Err: err}
	}

	status := DomainCodeToHTTPStatus(domainErr.Code)
	resp := ErrorResponse{
		Error:   clientMessage(domainErr, dev),
		Code:    DomainCodeToWireCode(domainErr.Code),
		Details: domainErr.Fields,
	}
	WriteJSON(w, status, resp)
}

// clientMessage picks the message returned to the caller. Internal and
// dispatch failures are flattened unless dev diagnostics are enabled.
func clientMessage(e *dErrors.Error, dev bool) string {
	switch e.Code {
	case dErrors.CodeInternal:
		if dev && e.Err != nil {
			return e.Err.Error()
		}
		return "An unexpected error occurred. Please try again later."
	case dErrors.CodeDispatchFailed, dErrors.CodeTimeout:
		if dev {
			return e.Error()
		}
		return "Failed to send your message. Please try again later."
	case dErrors.CodeServiceUnavailable:
		return "The contact service is temporarily unavailable."
	default:
		return e.Error()
	}
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeOriginRejected:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeMalformedPayload, dErrors.CodeValidationFailed, dErrors.CodeSpamSuspected:
		return http.StatusBadRequest
	case dErrors.CodeDispatchFailed, dErrors.CodeTimeout, dErrors.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToWireCode translates domain error codes to the stable wire codes
// the frontend switches on.
func DomainCodeToWireCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeOriginRejected:
		return "INVALID_ORIGIN"
	case dErrors.CodeRateLimited:
		return "RATE_LIMITED"
	case dErrors.CodePayloadTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case dErrors.CodeMalformedPayload:
		return "MALFORMED_PAYLOAD"
	case dErrors.CodeValidationFailed:
		return "VALIDATION_FAILED"
	case dErrors.CodeSpamSuspected:
		return "INVALID_SUBMISSION"
	case dErrors.CodeDispatchFailed:
		return "DISPATCH_FAILED"
	case dErrors.CodeTimeout:
		return "DISPATCH_TIMEOUT"
	case dErrors.CodeServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
