package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reqCtx := NewRequestContextWithID(logger, "req-1", "update", 42)
	reqCtx.SetHandler("new")
	reqCtx.Error("failed", errors.New("boom"), slog.Int(LogFieldUpdateID, 7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[LogFieldRequestID])
	assert.Equal(t, float64(42), entry[LogFieldChatID])
	assert.Equal(t, "new", entry[LogFieldHandler])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(7), entry[LogFieldUpdateID])
}

func TestRequestContext_Context(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.NotNil(t, LoggerFrom(context.Background()))

	reqCtx := NewRequestContext(nil, "start", 1)
	assert.NotEmpty(t, reqCtx.RequestID)
	ctx := WithRequestContext(context.Background(), reqCtx)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reqCtx, got)
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics(10)
	m.RecordUpdate("new", 10*time.Millisecond, false)
	m.RecordUpdate("new", 30*time.Millisecond, true)
	m.RecordUpdate("list", 5*time.Millisecond, false)
	m.RecordRateLimited()

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.UpdateTotal)
	assert.Equal(t, int64(1), snap.UpdateFailed)
	assert.Equal(t, int64(1), snap.RateLimited)
	assert.Equal(t, int64(2), snap.Handlers["new"].Count)
	assert.Equal(t, int64(1), snap.Handlers["new"].Errors)
	assert.InDelta(t, 20.0, snap.Handlers["new"].AvgDurationMs, 0.001)
	assert.Equal(t, int64(10), snap.P95Ms)

	for i := 0; i < 20; i++ {
		m.RecordUpdate("list", time.Millisecond, false)
	}
	assert.Equal(t, int64(1), m.Snapshot().P95Ms, "only the newest durations are kept")
}
