package telegram

import (
	"encoding/json"
	"strings"
)

// Update is one incoming event from the Bot API. Only the fields the bot
// handles are decoded.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// ChatID returns the chat the update belongs to, or 0.
func (u *Update) ChatID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID
	}
	return 0
}

// SenderID returns the id of the user who caused the update, or 0.
func (u *Update) SenderID() int64 {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID
	}
	return 0
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// IsCommand reports whether the message starts with a bot command.
func (m *Message) IsCommand() bool {
	return strings.HasPrefix(m.Text, "/") && len(m.Text) > 1
}

// Command returns the command name without the slash and without any
// @botname suffix, or "" when the message is not a command.
func (m *Message) Command() string {
	if !m.IsCommand() {
		return ""
	}
	name, _, _ := strings.Cut(m.Text[1:], " ")
	name, _, _ = strings.Cut(name, "\n")
	name, _, _ = strings.Cut(name, "@")
	return name
}

// CommandArguments returns the text after the command.
func (m *Message) CommandArguments() string {
	if !m.IsCommand() {
		return ""
	}
	i := strings.IndexAny(m.Text, " \n")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(m.Text[i+1:])
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// NewInlineKeyboard builds a keyboard with one button per row.
func NewInlineKeyboard(buttons ...InlineKeyboardButton) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		rows = append(rows, []InlineKeyboardButton{button})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

type SendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type setMyCommandsRequest struct {
	Commands []BotCommand `json:"commands"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type deleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}
