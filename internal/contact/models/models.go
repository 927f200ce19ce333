package models

import "time"

// HoneypotField is the wire name of the trap input. The form renders it
// invisibly; humans leave it empty, bots fill it.
const HoneypotField = "website"

// SubmissionRequest is the raw, untrusted POST /contact payload.
// Field values are attacker-controlled until they pass the schema engine.
type SubmissionRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Budget   string `json:"budget,omitempty"`
	Timeline string `json:"timeline,omitempty"`

	// Anti-automation metadata, not part of the validated field set.
	Timestamp string `json:"timestamp,omitempty"`
	Website   string `json:"website,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
}

// Fields returns the schema-validated field set as a name->value map.
func (r *SubmissionRequest) Fields() map[string]string {
	return map[string]string{
		"name":     r.Name,
		"email":    r.Email,
		"subject":  r.Subject,
		"message":  r.Message,
		"budget":   r.Budget,
		"timeline": r.Timeline,
	}
}

// SanitizedSubmission is the post-validation form of a submission. Every
// value has been through the sanitizer; it is safe to embed in notification
// HTML. A submission is either fully sanitized or rejected, never partial.
type SanitizedSubmission struct {
	ID       string
	Name     string
	Email    string
	Subject  string
	Message  string
	Budget   string
	Timeline string

	// Metadata rides along for notification context only.
	UserAgent  string
	TimeZone   string
	ReceivedAt time.Time
}

// FromSanitizedFields builds a SanitizedSubmission from the schema engine's
// output map.
func FromSanitizedFields(id string, fields map[string]string, receivedAt time.Time) *SanitizedSubmission {
	return &SanitizedSubmission{
		ID:         id,
		Name:       fields["name"],
		Email:      fields["email"],
		Subject:    fields["subject"],
		Message:    fields["message"],
		Budget:     fields["budget"],
		Timeline:   fields["timeline"],
		ReceivedAt: receivedAt,
	}
}

// SubmissionResponse is the 200 wire response.
type SubmissionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// RateLimitedResponse is the 429 wire response. Rate limit state is not
// secret, so the client gets actionable retry information.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
	Blocked    bool   `json:"blocked"`
	Code       string `json:"code"`
}

// StatusResponse is the GET /contact probe response. Static operational
// metadata only; serving it has no side effects.
type StatusResponse struct {
	Service        string   `json:"service"`
	Status         string   `json:"status"`
	RequiredFields []string `json:"requiredFields"`
	MaxBodyBytes   int64    `json:"maxBodyBytes"`
	RateLimit      int      `json:"rateLimit"`
	RateWindowSecs int      `json:"rateWindowSeconds"`
	Timestamp      string   `json:"timestamp"`
}
