package tracer_test

import (
	"context"
	"errors"
	"testing"

	"formgate/internal/contact/tracer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, "test.span",
		tracer.String("key", "value"),
		tracer.Bool("flag", true),
	)

	// Context should be returned unchanged
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	// Span methods should not panic
	span.SetAttributes(tracer.String("another", "attr"))
	span.AddEvent("test.event", tracer.Int64("count", 42))
	span.End(nil)
}

func TestNoopTracer_SpanEndWithError(t *testing.T) {
	tr := tracer.NewNoop()

	_, span := tr.Start(context.Background(), "test.span")
	require.NotNil(t, span)

	// Should not panic when ending with error
	span.End(errors.New("test error"))
}

func TestHashEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{
			name:    "empty string returns empty",
			input:   "",
			wantLen: 0,
		},
		{
			name:    "short address produces 16 char hash",
			input:   "a@b.co",
			wantLen: 16,
		},
		{
			name:    "long address produces 16 char hash",
			input:   "someone.with.a.long.address@subdomain.example.org",
			wantLen: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tracer.HashEmail(tt.input)
			assert.Len(t, result, tt.wantLen)
		})
	}
}

func TestHashEmail_Deterministic(t *testing.T) {
	email := "ada@example.org"
	hash1 := tracer.HashEmail(email)
	hash2 := tracer.HashEmail(email)
	assert.Equal(t, hash1, hash2, "same input should produce same hash")
}

func TestHashEmail_DifferentInputs(t *testing.T) {
	hash1 := tracer.HashEmail("ada@example.org")
	hash2 := tracer.HashEmail("brian@example.org")
	assert.NotEqual(t, hash1, hash2, "different inputs should produce different hashes")
}

func TestAttributeConstructors(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		attr := tracer.String("key", "value")
		assert.Equal(t, "key", attr.Key)
		assert.Equal(t, "value", attr.Value)
	})

	t.Run("Bool", func(t *testing.T) {
		attr := tracer.Bool("flag", true)
		assert.Equal(t, "flag", attr.Key)
		assert.Equal(t, true, attr.Value)
	})

	t.Run("Int64", func(t *testing.T) {
		attr := tracer.Int64("count", 42)
		assert.Equal(t, "count", attr.Key)
		assert.Equal(t, int64(42), attr.Value)
	})

	t.Run("Duration", func(t *testing.T) {
		attr := tracer.Duration("latency", 150*1e6) // 150ms in nanoseconds
		assert.Equal(t, "latency", attr.Key)
		assert.Equal(t, int64(150), attr.Value)
	})
}

func TestSpanConstants(t *testing.T) {
	assert.Equal(t, "contact.submit", tracer.SpanSubmit)
	assert.Equal(t, "contact.dispatch", tracer.SpanDispatch)
	assert.Equal(t, "contact.dispatch.send", tracer.SpanDispatchSend)
	assert.Equal(t, "contact.dispatch.ack", tracer.SpanDispatchAck)
}
