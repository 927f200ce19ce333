package config

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the contact gateway.
type Server struct {
	Addr        string
	Development bool

	// AllowedOrigins is the origin allow-list applied to both the CORS
	// layer and the anti-automation origin check. An empty list disables
	// origin checking entirely and accepts submissions from any origin.
	AllowedOrigins []string

	// TrustedProxies lists CIDR prefixes allowed to set forwarding headers.
	TrustedProxies []netip.Prefix

	// MaxBodyBytes bounds the POST /contact request body.
	MaxBodyBytes int64

	// Rate limiter knobs. Fixed window with an escalating block.
	RateLimitWindow   time.Duration
	RateLimitRequests int
	RateLimitBlock    time.Duration
	SweepInterval     time.Duration

	// Notification sink credentials and addressing. An empty APIKey means
	// the sink is unconfigured and submissions fail with 503.
	Mail Mail
}

// Mail holds outbound notification configuration.
type Mail struct {
	APIBaseURL   string
	APIKey       string
	FromAddress  string
	OwnerAddress string
	SendTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("FORMGATE_ADDR", ":8080"),
		Development:       os.Getenv("FORMGATE_ENV") == "development",
		AllowedOrigins:    splitAndTrim(os.Getenv("FORMGATE_ALLOWED_ORIGINS")),
		MaxBodyBytes:      envInt64("FORMGATE_MAX_BODY_BYTES", 10*1024),
		RateLimitWindow:   envDuration("FORMGATE_RATELIMIT_WINDOW", time.Hour),
		RateLimitRequests: envInt("FORMGATE_RATELIMIT_REQUESTS", 3),
		RateLimitBlock:    envDuration("FORMGATE_RATELIMIT_BLOCK", 2*time.Hour),
		SweepInterval:     envDuration("FORMGATE_SWEEP_INTERVAL", 10*time.Minute),
		Mail: Mail{
			APIBaseURL:   envOr("FORMGATE_MAIL_API_URL", "https://api.resend.com"),
			APIKey:       os.Getenv("FORMGATE_MAIL_API_KEY"),
			FromAddress:  envOr("FORMGATE_MAIL_FROM", "contact@formgate.local"),
			OwnerAddress: os.Getenv("FORMGATE_MAIL_OWNER"),
			SendTimeout:  envDuration("FORMGATE_MAIL_TIMEOUT", 15*time.Second),
		},
	}

	for _, raw := range splitAndTrim(os.Getenv("FORMGATE_TRUSTED_PROXIES")) {
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			cfg.TrustedProxies = append(cfg.TrustedProxies, prefix)
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
