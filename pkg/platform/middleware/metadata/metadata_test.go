package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/suite"

	"formgate/pkg/requestcontext"
)

// MetadataSuite tests client IP resolution.
//
// Justification: the resolved IP is the rate-limit key. If a client can
// spoof it via forwarding headers, the limiter is trivially bypassed.
type MetadataSuite struct {
	suite.Suite
}

func TestMetadataSuite(t *testing.T) {
	suite.Run(t, new(MetadataSuite))
}

func (s *MetadataSuite) resolve(mw *Middleware, remoteAddr string, headers map[string]string) (ip, ua string) {
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return ip, ua
}

func (s *MetadataSuite) TestNoTrustedProxies() {
	mw := NewMiddleware(nil)

	s.Run("uses remote addr", func() {
		ip, _ := s.resolve(mw, "203.0.113.7:51234", nil)
		s.Equal("203.0.113.7", ip)
	})

	s.Run("ignores spoofed forwarding header", func() {
		ip, _ := s.resolve(mw, "203.0.113.7:51234", map[string]string{
			"X-Forwarded-For": "10.0.0.1",
		})
		s.Equal("203.0.113.7", ip)
	})

	s.Run("captures user agent", func() {
		_, ua := s.resolve(mw, "203.0.113.7:51234", map[string]string{
			"User-Agent": "Mozilla/5.0",
		})
		s.Equal("Mozilla/5.0", ua)
	})
}

func (s *MetadataSuite) TestTrustedProxies() {
	mw := NewMiddleware(&Config{
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	})

	s.Run("honors XFF from trusted proxy", func() {
		ip, _ := s.resolve(mw, "10.0.0.5:443", map[string]string{
			"X-Forwarded-For": "198.51.100.9, 10.0.0.5",
		})
		s.Equal("198.51.100.9", ip)
	})

	s.Run("honors X-Real-IP from trusted proxy", func() {
		ip, _ := s.resolve(mw, "10.0.0.5:443", map[string]string{
			"X-Real-IP": "198.51.100.10",
		})
		s.Equal("198.51.100.10", ip)
	})

	s.Run("falls back on unparseable XFF entry", func() {
		ip, _ := s.resolve(mw, "10.0.0.5:443", map[string]string{
			"X-Forwarded-For": "not-an-ip",
		})
		s.Equal("10.0.0.5", ip)
	})

	s.Run("untrusted source still uses remote addr", func() {
		ip, _ := s.resolve(mw, "203.0.113.7:51234", map[string]string{
			"X-Forwarded-For": "198.51.100.9",
		})
		s.Equal("203.0.113.7", ip)
	})
}
