// Package metadata resolves the client identity (IP, User-Agent) for each
// request. The rate limiter keys on the resolved IP, so the trusted-proxy
// rules here are a security boundary: an untrusted client must not be able
// to pick its own rate-limit key by sending forwarding headers.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"formgate/pkg/requestcontext"
)

// MaxForwardedHeaderLength bounds X-Forwarded-For / X-Real-IP header
// lengths to prevent header injection padding.
const MaxForwardedHeaderLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies lists IP prefixes (CIDR notation) allowed to set
	// forwarding headers. If empty, forwarding headers are never trusted.
	TrustedProxies []netip.Prefix
}

// DefaultConfig returns a Config with no trusted proxies.
func DefaultConfig() *Config {
	return &Config{TrustedProxies: nil}
}

// Middleware extracts client metadata with configurable trusted proxies.
type Middleware struct {
	config *Config
}

// NewMiddleware creates a metadata middleware with the given config.
func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Middleware{config: cfg}
}

// Handler resolves the client IP and User-Agent and stores them in the
// request context for the rate limiter and the notification content.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.resolveClientIP(r)
		ctx := requestcontext.WithClientMetadata(r.Context(), ip, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolveClientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}

	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxForwardedHeaderLength {
		// First entry in the chain is the original client.
		clientIP := xff
		if before, _, ok := strings.Cut(xff, ","); ok {
			clientIP = before
		}
		clientIP = strings.TrimSpace(clientIP)
		if _, err := netip.ParseAddr(clientIP); err == nil {
			return clientIP
		}
		return remoteIP
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" && len(xri) <= MaxForwardedHeaderLength {
		clientIP := strings.TrimSpace(xri)
		if _, err := netip.ParseAddr(clientIP); err == nil {
			return clientIP
		}
	}

	return remoteIP
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr strips the port from an http.Request RemoteAddr.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if addrPort, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return addrPort.Addr().String()
	}
	if addr, err := netip.ParseAddr(remoteAddr); err == nil {
		return addr.String()
	}
	return ""
}
