package config

import "time"

// Config holds rate limiting configuration. Values are tunable deployment
// knobs, not hard-coded policy.
type Config struct {
	// Window is the fixed counting window per client.
	Window time.Duration

	// RequestsPerWindow is the number of submissions allowed per window.
	RequestsPerWindow int

	// BlockDuration is how long a client stays blocked after exhausting
	// the window on top of hitting the limit.
	BlockDuration time.Duration

	// SweepInterval is how often the eviction worker scans for expired
	// records. Independent of Window and BlockDuration.
	SweepInterval time.Duration
}

// DefaultConfig returns the canonical contact-form limits:
// 3 submissions per hour, then a 2 hour block.
func DefaultConfig() *Config {
	return &Config{
		Window:            time.Hour,
		RequestsPerWindow: 3,
		BlockDuration:     2 * time.Hour,
		SweepInterval:     10 * time.Minute,
	}
}
