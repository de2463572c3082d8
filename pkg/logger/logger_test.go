package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("reviews", "warn", &buf)

	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNewWithWriter_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("reviews", "info", &buf)
	l.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reviews", entry["service"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
}

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithContext_Enrichment(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("reviews", "info", &buf)

	ctx := WithRequestID(context.Background(), "req-9")
	ctx = WithUserID(ctx, "user-9")

	WithContext(ctx, base).Info("enriched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "user-9", entry["user_id"])
}
