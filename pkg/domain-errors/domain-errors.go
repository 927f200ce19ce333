package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in pipeline terms, not HTTP terms.
type Code string

const (
	// CodeOriginRejected: the request carried an Origin or Referer header
	// that is not on the configured allow-list.
	CodeOriginRejected Code = "origin_rejected"
	// CodeRateLimited: the client exhausted its submission quota for the
	// current window, or is serving an escalated block.
	CodeRateLimited Code = "rate_limited"
	// CodePayloadTooLarge: the request body exceeded the byte ceiling.
	CodePayloadTooLarge Code = "payload_too_large"
	// CodeMalformedPayload: the body was empty or not valid JSON.
	CodeMalformedPayload Code = "malformed_payload"
	// CodeValidationFailed: one or more fields failed schema validation.
	// The accompanying error carries a field-addressable detail map.
	CodeValidationFailed Code = "validation_failed"
	// CodeSpamSuspected: an anti-automation heuristic tripped. Deliberately
	// not more specific so callers cannot learn which heuristic fired.
	CodeSpamSuspected Code = "spam_suspected"
	// CodeDispatchFailed: the primary notification send failed.
	CodeDispatchFailed Code = "dispatch_failed"
	// CodeServiceUnavailable: the notification sink is not configured.
	CodeServiceUnavailable Code = "service_unavailable"
	// CodeTimeout: an outbound dependency exceeded its bounded wait.
	CodeTimeout Code = "timeout"
	// CodeInternal: unexpected failure; details stay server-side.
	CodeInternal Code = "internal_error"
)

// Error wraps pipeline failures with a stable code. It is transport-agnostic
// and flows from the controller and its collaborators up to the HTTP layer.
type Error struct {
	Code    Code
	Message string
	// Fields carries field-addressable validation detail. Only populated
	// for CodeValidationFailed; nil otherwise.
	Fields map[string]string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewValidation creates a validation error carrying per-field messages.
func NewValidation(msg string, fields map[string]string) error {
	return &Error{Code: CodeValidationFailed, Message: msg, Fields: fields}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Fields: existing.Fields, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// FieldsOf extracts the field detail map from a validation error, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
