package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/remindbot/plugin/telegram"
	boterrors "github.com/hrygo/remindbot/server/internal/errors"
)

// Middleware wraps a HandlerFunc.
type Middleware func(HandlerFunc) HandlerFunc

// chain applies middlewares so the first one runs outermost.
func chain(h HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// rateLimit drops updates from chats over their budget.
func (b *Bot) rateLimit(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, update *telegram.Update) error {
		chatID := update.ChatID()
		if chatID != 0 && !b.limiter.Allow(chatID) {
			b.metrics.RecordRateLimited()
			return boterrors.RateLimited("too many updates")
		}
		return next(ctx, update)
	}
}

// blockCheck stops messages from blocked users. Button presses are not
// checked.
func (b *Bot) blockCheck(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, update *telegram.Update) error {
		if update.Message == nil || update.Message.From == nil {
			return next(ctx, update)
		}

		blocked, reason, err := b.users.IsBlocked(ctx, update.Message.From.ID)
		if err != nil {
			return boterrors.Internal(textInternal, err)
		}
		if blocked {
			setHandler(ctx, "blocked")
			if reason == "" {
				reason = textNoReason
			}
			return boterrors.Blocked(fmt.Sprintf(textBlocked, reason))
		}
		return next(ctx, update)
	}
}

// route dispatches to a command, the chat's open dialog, or a callback.
// A command abandons any open dialog.
func (b *Bot) route(ctx context.Context, update *telegram.Update) error {
	if update.CallbackQuery != nil {
		return b.handleCallback(ctx, update.CallbackQuery)
	}

	msg := update.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	if name := msg.Command(); name != "" {
		if handler, ok := b.commands[name]; ok {
			setHandler(ctx, name)
			if name != "cancel" {
				b.states.Clear(ctx, msg.Chat.ID)
			}
			return handler(ctx, msg)
		}
	}

	session := b.states.Get(ctx, msg.Chat.ID)
	if handler, ok := b.dialogs[session.State]; ok {
		setHandler(ctx, string(session.State))
		return handler(ctx, msg, session)
	}

	setHandler(ctx, "unknown")
	return b.reply(ctx, msg.Chat.ID, textUnknown)
}

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) error {
	if strings.HasPrefix(query.Data, callbackRemindAgain) {
		setHandler(ctx, "remind_again")
		return b.handleRemindAgain(ctx, query)
	}
	setHandler(ctx, "callback")
	return b.messenger.AnswerCallbackQuery(ctx, query.ID, "")
}
