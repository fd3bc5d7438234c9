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

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New("production", &buf).Info("sale committed", "sale_id", 42)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sale committed", line["msg"])
	assert.EqualValues(t, 42, line["sale_id"])
}

func TestNewLocalIsDebugText(t *testing.T) {
	var buf bytes.Buffer
	New("local", &buf).Debug("cart updated")
	assert.Contains(t, buf.String(), "msg=\"cart updated\"")
}

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	var buf bytes.Buffer
	tagged := New("local", &buf).With("request_id", "abc")
	ctx := InjectLogger(context.Background(), tagged)
	WithCtx(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=abc")
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelFor(200))
	assert.Equal(t, slog.LevelWarn, LevelFor(422))
	assert.Equal(t, slog.LevelError, LevelFor(503))
}
