package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Body   map[string]any
}

// fakeAPI serves Bot API methods from a map of canned result bodies.
type fakeAPI struct {
	t       *testing.T
	mu      sync.Mutex
	calls   []recordedCall
	results map[string]string
}

func newFakeAPI(t *testing.T, results map[string]string) (*fakeAPI, *Client) {
	api := &fakeAPI{t: t, results: results}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return api, NewClient(Config{Token: "123:abc", APIURL: server.URL, Timeout: 2 * time.Second})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/bot123:abc/"
	require.Equal(f.t, http.MethodPost, r.Method)
	require.Equal(f.t, "application/json", r.Header.Get("Content-Type"))
	require.True(f.t, len(r.URL.Path) > len(prefix) && r.URL.Path[:len(prefix)] == prefix, r.URL.Path)
	method := r.URL.Path[len(prefix):]

	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: method, Body: body})
	f.mu.Unlock()

	result, ok := f.results[method]
	if !ok {
		result = "true"
	}
	if len(result) > 0 && result[0] == '!' {
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprintf(w, `{"ok":false,"error_code":403,"description":%q}`, result[1:])
		return
	}
	_, _ = fmt.Fprintf(w, `{"ok":true,"result":%s}`, result)
}

func (f *fakeAPI) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func TestClient_SendMessage(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"sendMessage": `{"message_id":7,"chat":{"id":42,"type":"private"},"date":1,"text":"hi"}`,
	})

	msg, err := client.SendMessage(context.Background(), &SendMessageRequest{
		ChatID: 42,
		Text:   "🔔 Напоминание: test",
		ReplyMarkup: NewInlineKeyboard(InlineKeyboardButton{
			Text:         "🔁 Повторить",
			CallbackData: "remind_again:5",
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)
	assert.Equal(t, int64(42), msg.Chat.ID)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].Method)
	assert.Equal(t, float64(42), calls[0].Body["chat_id"])
	assert.Equal(t, "🔔 Напоминание: test", calls[0].Body["text"])
	markup := calls[0].Body["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "remind_again:5", button["callback_data"])
}

func TestClient_APIError(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{
		"sendMessage": "!Forbidden: bot was blocked by the user",
	})

	_, err := client.SendMessage(context.Background(), &SendMessageRequest{ChatID: 1, Text: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.True(t, IsUnreachable(err))
	assert.NotContains(t, err.Error(), "123:abc")
}

func TestIsUnreachable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"forbidden", &APIError{Code: 403}, true},
		{"chat not found", &APIError{Code: 400, Description: "Bad Request: chat not found"}, true},
		{"other bad request", &APIError{Code: 400, Description: "Bad Request: message is too long"}, false},
		{"rate limited", &APIError{Code: 429, RetryAfter: 3}, false},
		{"wrapped", fmt.Errorf("send: %w", &APIError{Code: 403}), true},
		{"plain", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnreachable(tt.err))
		})
	}
}

func TestClient_SimpleMethods(t *testing.T) {
	api, client := newFakeAPI(t, nil)
	ctx := context.Background()

	require.NoError(t, client.AnswerCallbackQuery(ctx, "cb-1", ""))
	require.NoError(t, client.SetMyCommands(ctx, []BotCommand{{Command: "start", Description: "Начать"}}))
	require.NoError(t, client.SetWebhook(ctx, "https://example.com/telegram/webhook", "s3cret"))
	require.NoError(t, client.DeleteWebhook(ctx))

	calls := api.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "answerCallbackQuery", calls[0].Method)
	assert.Equal(t, "cb-1", calls[0].Body["callback_query_id"])
	assert.Equal(t, "setMyCommands", calls[1].Method)
	assert.Equal(t, "setWebhook", calls[2].Method)
	assert.Equal(t, "s3cret", calls[2].Body["secret_token"])
	assert.Equal(t, "deleteWebhook", calls[3].Method)
}

func TestPoller_Run(t *testing.T) {
	var mu sync.Mutex
	offsets := []float64{}
	served := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botT/getUpdates" {
			_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		offset, _ := body["offset"].(float64)
		offsets = append(offsets, offset)
		served++
		n := served
		mu.Unlock()

		if n == 1 {
			_, _ = io.WriteString(w, `{"ok":true,"result":[
				{"update_id":10,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"date":1,"text":"/start"}},
				{"update_id":11,"callback_query":{"id":"q","from":{"id":5,"is_bot":false,"first_name":"A"},"data":"remind_again:3"}}
			]}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{Token: "T", APIURL: server.URL, Timeout: time.Second})
	poller := NewPoller(client, 1)

	ctx, cancel := context.WithCancel(context.Background())
	var got []int64
	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx, func(_ context.Context, update *Update) {
			got = append(got, update.UpdateID)
			if len(got) == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, []int64{10, 11}, got)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, float64(0), offsets[0])
}

func TestMessage_Command(t *testing.T) {
	tests := []struct {
		text string
		cmd  string
		args string
	}{
		{"/start", "start", ""},
		{"/unblock_user 123", "unblock_user", "123"},
		{"/list@remind_bot", "list", ""},
		{"/new@remind_bot  завтра в 10:00", "new", "завтра в 10:00"},
		{"через 5 минут", "", ""},
		{"/", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			msg := &Message{Text: tt.text}
			assert.Equal(t, tt.cmd, msg.Command())
			assert.Equal(t, tt.args, msg.CommandArguments())
		})
	}
}

func TestUpdate_IDs(t *testing.T) {
	msg := &Update{Message: &Message{From: &User{ID: 1}, Chat: Chat{ID: 2}}}
	assert.Equal(t, int64(2), msg.ChatID())
	assert.Equal(t, int64(1), msg.SenderID())

	cb := &Update{CallbackQuery: &CallbackQuery{From: User{ID: 3}}}
	assert.Equal(t, int64(3), cb.ChatID())
	assert.Equal(t, int64(3), cb.SenderID())

	assert.Zero(t, (&Update{}).ChatID())
}
