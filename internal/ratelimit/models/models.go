package models

import "time"

// Record tracks one client's submission activity inside the current window.
// Records live in the store keyed by client identifier (resolved source IP)
// and are evicted by the sweep worker once fully expired.
//
// Invariant: Blocked implies now < BlockedUntil; once BlockedUntil passes,
// the next check resets the record to a fresh window.
type Record struct {
	Count         int
	WindowResetAt time.Time
	Blocked       bool
	BlockedUntil  time.Time
}

// Expired reports whether the record holds no live state: the window has
// elapsed and no block is pending. Expired records are sweep candidates.
func (r *Record) Expired(now time.Time) bool {
	if r.Blocked && now.Before(r.BlockedUntil) {
		return false
	}
	return !now.Before(r.WindowResetAt)
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// Blocked is true when the denial came from an escalated block rather
	// than plain window exhaustion.
	Blocked bool `json:"blocked"`
	// RetryAfter is seconds until the client may try again. Only set when
	// not allowed.
	RetryAfter int `json:"retry_after,omitempty"`
}
