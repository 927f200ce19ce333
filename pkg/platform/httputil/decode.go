package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "formgate/pkg/domain-errors"
)

// ReadBody drains a size-bounded request body, translating the read
// failures into domain errors:
//   - body over the ceiling -> CodePayloadTooLarge (http.MaxBytesReader)
//   - any other read error  -> CodeMalformedPayload
func ReadBody(r *http.Request) ([]byte, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, dErrors.New(dErrors.CodePayloadTooLarge, "Request body exceeds the size limit")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "Failed to read request body")
	}
	return payload, nil
}

// DecodeJSON decodes a raw JSON payload into the target type:
//   - empty body   -> CodeMalformedPayload
//   - invalid JSON -> CodeMalformedPayload
//
// Trailing garbage after the JSON object is rejected as malformed.
func DecodeJSON[T any](payload []byte) (*T, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, dErrors.New(dErrors.CodeMalformedPayload, "Request body is empty")
	}

	var req T
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "Invalid JSON payload")
	}
	if dec.More() {
		return nil, dErrors.New(dErrors.CodeMalformedPayload, "Invalid JSON payload")
	}
	return &req, nil
}
