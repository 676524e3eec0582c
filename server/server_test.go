package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/remindbot/plugin/reminder"
	"github.com/hrygo/remindbot/plugin/telegram"
	"github.com/hrygo/remindbot/server/internal/observability"
)

type recorder struct {
	mu      sync.Mutex
	updates []*telegram.Update
}

func (r *recorder) handle(_ context.Context, update *telegram.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
}

type staticHealth reminder.HealthStatus

func (h staticHealth) Check(context.Context) reminder.HealthStatus {
	return reminder.HealthStatus(h)
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Webhook(t *testing.T) {
	rec := &recorder{}
	s := NewServer(Config{WebhookSecret: "s3cret", Handle: rec.handle})
	payload := `{"update_id":7,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"A"},"chat":{"id":42,"type":"private"},"date":0,"text":"/start"}}`

	tests := []struct {
		name   string
		secret string
		body   string
		want   int
	}{
		{"missing secret", "", payload, http.StatusUnauthorized},
		{"wrong secret", "nope", payload, http.StatusUnauthorized},
		{"bad json", "s3cret", "{", http.StatusBadRequest},
		{"ok", "s3cret", payload, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, s.Handler(), http.MethodPost, "/telegram/webhook", tt.body, map[string]string{SecretHeader: tt.secret})
			assert.Equal(t, tt.want, resp.Code)
		})
	}

	require.Len(t, rec.updates, 1)
	assert.Equal(t, int64(7), rec.updates[0].UpdateID)
	assert.Equal(t, "/start", rec.updates[0].Message.Text)
	assert.Equal(t, int64(42), rec.updates[0].ChatID())
}

func TestServer_WebhookRequiresConfiguredSecret(t *testing.T) {
	rec := &recorder{}
	s := NewServer(Config{Handle: rec.handle})
	payload := `{"update_id":1,"message":{"message_id":1,"from":{"id":9001,"is_bot":false,"first_name":"A"},"chat":{"id":9001,"type":"private"},"date":0,"text":"/block_user"}}`

	for _, secret := range []string{"", "anything"} {
		resp := do(t, s.Handler(), http.MethodPost, "/telegram/webhook", payload, map[string]string{SecretHeader: secret})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	assert.Empty(t, rec.updates)
}

func TestServer_WebhookDisabledInPolling(t *testing.T) {
	s := NewServer(Config{})
	resp := do(t, s.Handler(), http.MethodPost, "/telegram/webhook", "{}", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_Health(t *testing.T) {
	healthy := NewServer(Config{Health: staticHealth{Healthy: true, QueueDepth: 3}})
	resp := do(t, healthy.Handler(), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var status reminder.HealthStatus
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &status))
	assert.Equal(t, 3, status.QueueDepth)

	broken := NewServer(Config{Health: staticHealth{Healthy: false, Error: "redis down"}})
	resp = do(t, broken.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "redis down")
}

func TestServer_Stats(t *testing.T) {
	delivery := reminder.NewMetricsCollector()
	delivery.RecordProcessed(2)
	updates := observability.NewMetrics(10)
	updates.RecordRateLimited()

	s := NewServer(Config{Delivery: delivery, Updates: updates})
	resp := do(t, s.Handler(), http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	require.NotNil(t, stats.Delivery)
	require.NotNil(t, stats.Updates)
	assert.Equal(t, int64(2), stats.Delivery.TotalSent)
	assert.Equal(t, int64(1), stats.Updates.RateLimited)
}
