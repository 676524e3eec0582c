// Package telegram is a small client for the Telegram Bot API covering
// what the reminder bot uses.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// allowedUpdates lists the update kinds the bot handles.
var allowedUpdates = []string{"message", "callback_query"}

// APIError is a failed Bot API call.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// IsUnreachable reports whether err means the chat can no longer receive
// messages: the user blocked the bot or the chat does not exist.
func IsUnreachable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusForbidden ||
		(apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Description), "chat not found"))
}

// Config holds the Bot API client configuration.
type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration // Per-request timeout, long polling excluded
}

// Client calls the Bot API over HTTPS with JSON bodies.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Bot API client.
func NewClient(config Config) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	config.APIURL = strings.TrimRight(config.APIURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		// Deadlines come from the request context so long polls can
		// outlive the default timeout.
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.config.APIURL, c.config.Token, method)
}

// call posts payload to method and decodes the result into result when
// it is not nil.
func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("telegram %s returned status %d: %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		apiErr := &APIError{Method: method, Code: apiResp.ErrorCode, Description: apiResp.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		c.logger.Warn("telegram api error", "method", method, "code", apiErr.Code, "description", apiErr.Description)
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.config.Timeout)
}

func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*Message, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnswerCallbackQuery stops the button spinner, optionally showing text.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: callbackQueryID, Text: text}, nil)
}

func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.call(ctx, "setMyCommands", setMyCommandsRequest{Commands: commands}, nil)
}

// SetWebhook points the bot at webhookURL. Telegram sends secret back in the
// X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.call(ctx, "setWebhook", setWebhookRequest{URL: webhookURL, SecretToken: secret, AllowedUpdates: allowedUpdates}, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.call(ctx, "deleteWebhook", deleteWebhookRequest{}, nil)
}

// GetUpdates long-polls for updates after offset, waiting up to
// timeout seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second+c.config.Timeout)
	defer cancel()

	var updates []Update
	req := getUpdatesRequest{Offset: offset, Timeout: timeout, AllowedUpdates: allowedUpdates}
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
