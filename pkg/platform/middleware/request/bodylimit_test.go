package request

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// BodyLimitSuite tests the request body ceiling.
//
// Justification: the ceiling is the first defense in the pipeline; a request
// above it must never reach JSON parsing.
type BodyLimitSuite struct {
	suite.Suite
}

func TestBodyLimitSuite(t *testing.T) {
	suite.Run(t, new(BodyLimitSuite))
}

func (s *BodyLimitSuite) TestDeclaredOversizeRejectedEarly() {
	handlerRan := false
	mw := BodyLimit(64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(strings.Repeat("a", 128)))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.False(handlerRan)
	s.Contains(rec.Body.String(), "PAYLOAD_TOO_LARGE")
}

func (s *BodyLimitSuite) TestStreamedOversizeAbortsRead() {
	var readErr error
	mw := BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	// No Content-Length: body arrives chunked, the reader must enforce the cap.
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(strings.Repeat("b", 64)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	var maxBytesErr *http.MaxBytesError
	s.ErrorAs(readErr, &maxBytesErr)
}

func (s *BodyLimitSuite) TestWithinLimitPassesThrough() {
	var body []byte
	mw := BodyLimit(64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"ok":true}`))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"ok":true}`, string(body))
}
