package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainerrors "formgate/pkg/domain-errors"
)

// ResendSink implements Sink by calling the Resend HTTP API.
type ResendSink struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Sink = (*ResendSink)(nil)

// ResendOption configures the ResendSink.
type ResendOption func(*ResendSink)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) ResendOption {
	return func(s *ResendSink) {
		s.httpClient = client
	}
}

// NewResendSink creates a Resend-backed sink. The client timeout is a
// backstop; per-send deadlines come from the caller's context.
func NewResendSink(baseURL, apiKey string, timeout time.Duration, opts ...ResendOption) *ResendSink {
	s := &ResendSink{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resendRequest is the provider's send payload.
type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// resendError is the provider's error payload.
type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send delivers one message through the provider.
func (s *ResendSink) Send(ctx context.Context, msg *Message) error {
	reqBody, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to marshal send request")
	}

	url := fmt.Sprintf("%s/emails", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create send request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return domainerrors.Wrap(err, domainerrors.CodeTimeout, "provider request timed out")
		}
		return domainerrors.Wrap(err, domainerrors.CodeDispatchFailed, "provider request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeDispatchFailed, "failed to read provider response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domainerrors.New(domainerrors.CodeDispatchFailed, "provider rejected credentials")
	case resp.StatusCode == http.StatusTooManyRequests:
		return domainerrors.New(domainerrors.CodeDispatchFailed, "provider rate limit reached")
	case resp.StatusCode >= 500:
		return domainerrors.New(domainerrors.CodeServiceUnavailable, "provider unavailable")
	default:
		var provErr resendError
		if json.Unmarshal(body, &provErr) == nil && provErr.Message != "" {
			return domainerrors.New(domainerrors.CodeDispatchFailed,
				fmt.Sprintf("provider error: %s", provErr.Message))
		}
		return domainerrors.New(domainerrors.CodeDispatchFailed,
			fmt.Sprintf("unexpected provider status: %d", resp.StatusCode))
	}
}
