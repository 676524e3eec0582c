// Package bot implements the chat conversation: commands, dialogs and
// the reminder message users receive.
package bot

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf16"

	"github.com/hrygo/remindbot/internal/profile"
	"github.com/hrygo/remindbot/plugin/reminder"
	"github.com/hrygo/remindbot/plugin/telegram"
	"github.com/hrygo/remindbot/plugin/timeparse"
	boterrors "github.com/hrygo/remindbot/server/internal/errors"
	"github.com/hrygo/remindbot/server/internal/observability"
	"github.com/hrygo/remindbot/server/middleware"
)

// Messenger sends messages to chats. *telegram.Client satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, req *telegram.SendMessageRequest) (*telegram.Message, error)
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
}

// Config holds the bot's collaborators.
type Config struct {
	Profile   *profile.Profile
	Messenger Messenger
	Reminders *reminder.Service
	Users     *reminder.UserService
	Time      timeparse.TimeService
	Limiter   *middleware.RateLimiter
	Metrics   *observability.Metrics
	States    *StateStore
}

// HandlerFunc handles one update.
type HandlerFunc func(ctx context.Context, update *telegram.Update) error

type commandHandler func(ctx context.Context, msg *telegram.Message) error

type stateHandler func(ctx context.Context, msg *telegram.Message, session Session) error

// Bot routes updates to command and dialog handlers.
type Bot struct {
	profile   *profile.Profile
	messenger Messenger
	reminders *reminder.Service
	users     *reminder.UserService
	time      timeparse.TimeService
	limiter   *middleware.RateLimiter
	metrics   *observability.Metrics
	states    *StateStore
	logger    *slog.Logger

	commands map[string]commandHandler
	dialogs  map[State]stateHandler
	handler  HandlerFunc
}

// New creates a bot. Limiter, Metrics and States get defaults when nil.
func New(config Config) *Bot {
	if config.Limiter == nil {
		config.Limiter = middleware.NewRateLimiter(config.Profile.RateLimit, config.Profile.RateBurst)
	}
	if config.Metrics == nil {
		config.Metrics = observability.NewMetrics(1000)
	}
	if config.States == nil {
		config.States = NewStateStore(time.Hour)
	}

	b := &Bot{
		profile:   config.Profile,
		messenger: config.Messenger,
		reminders: config.Reminders,
		users:     config.Users,
		time:      config.Time,
		limiter:   config.Limiter,
		metrics:   config.Metrics,
		states:    config.States,
		logger:    slog.Default(),
	}

	b.commands = map[string]commandHandler{
		"start":           b.handleStart,
		"new":             b.handleNew,
		"list":            b.handleList,
		"delete":          b.handleDelete,
		"cancel":          b.handleCancel,
		"admin":           b.handleAdmin,
		"admin_users":     b.handleAdminUsers,
		"admin_reminders": b.handleAdminReminders,
		"block_user":      b.handleBlockUser,
		"unblock_user":    b.handleUnblockUser,
	}
	b.dialogs = map[State]stateHandler{
		StateWaitingReminderText:     b.processReminderText,
		StateWaitingReminderToDelete: b.processReminderDelete,
		StateWaitingDelayText:        b.processRemindAgainDelay,
		StateWaitingBlockUserID:      b.processBlockUserID,
		StateWaitingBlockReason:      b.processBlockReason,
	}
	b.handler = chain(b.route, b.rateLimit, b.blockCheck)
	return b
}

// Commands returns the commands shown in the chat menu.
func (b *Bot) Commands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Начать"},
		{Command: "new", Description: "Создать напоминание"},
		{Command: "list", Description: "Список напоминаний"},
		{Command: "delete", Description: "Удалить напоминание"},
	}
}

// Metrics returns the update metrics.
func (b *Bot) Metrics() *observability.Metrics {
	return b.metrics
}

// HandleUpdate processes one update. Failures are reported to the chat
// and logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, update *telegram.Update) {
	chatID := update.ChatID()
	reqCtx := observability.NewRequestContext(b.logger, "update", chatID)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	err := b.handler(ctx, update)
	failed := err != nil && boterrors.GetErrorCode(err) == boterrors.ErrCodeInternal
	b.metrics.RecordUpdate(reqCtx.Handler, reqCtx.Duration(), failed)

	if err == nil {
		reqCtx.Debug("update handled", slog.Int64(observability.LogFieldUpdateID, update.UpdateID), slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
		return
	}

	code := boterrors.GetErrorCode(err)
	switch code {
	case boterrors.ErrCodeRateLimited:
		reqCtx.Debug("update dropped by rate limit")
		return
	case boterrors.ErrCodeInternal:
		reqCtx.Error("failed to handle update", err)
	default:
		reqCtx.Info("update rejected", slog.String(observability.LogFieldErrorCode, string(code)), slog.String("error", err.Error()))
	}

	if chatID == 0 {
		return
	}
	if err := b.reply(ctx, chatID, boterrors.UserMessage(err, textInternal)); err != nil {
		reqCtx.Error("failed to send error reply", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	_, err := b.messenger.SendMessage(ctx, &telegram.SendMessageRequest{ChatID: chatID, Text: text})
	return err
}

// replyLong sends text split into chunks the API accepts.
func (b *Bot) replyLong(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := b.reply(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// maxMessageLength is the Bot API limit on message text, in UTF-16
// code units.
const maxMessageLength = 4096

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// preferring to cut after a newline. Emoji outside the BMP count as two.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		fit, units := 0, 0
		for fit < len(runes) {
			n := max(utf16.RuneLen(runes[fit]), 1)
			if units+n > limit {
				break
			}
			units += n
			fit++
		}
		if fit == len(runes) {
			chunks = append(chunks, string(runes))
			break
		}
		fit = max(fit, 1)

		cut := fit
		for i := fit - 1; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func logWarn(ctx context.Context, msg string, err error) {
	observability.LoggerFrom(ctx).Warn(msg, slog.String("error", err.Error()))
}

func setHandler(ctx context.Context, name string) {
	if reqCtx, ok := observability.FromContext(ctx); ok {
		reqCtx.SetHandler(name)
	}
}
