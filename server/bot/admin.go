package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hrygo/remindbot/plugin/reminder"
	"github.com/hrygo/remindbot/plugin/telegram"
	boterrors "github.com/hrygo/remindbot/server/internal/errors"
	"github.com/hrygo/remindbot/server/timezone"
)

func (b *Bot) requireAdmin(msg *telegram.Message) error {
	if !b.profile.IsAdmin(msg.From.ID) {
		return boterrors.AccessDenied(textAccessDenied)
	}
	return nil
}

func (b *Bot) handleAdmin(ctx context.Context, msg *telegram.Message) error {
	if err := b.requireAdmin(msg); err != nil {
		return err
	}
	return b.reply(ctx, msg.Chat.ID, textAdminMenu)
}

func (b *Bot) handleAdminUsers(ctx context.Context, msg *telegram.Message) error {
	if err := b.requireAdmin(msg); err != nil {
		return err
	}

	users, err := b.users.ListUsers(ctx)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if len(users) == 0 {
		return b.reply(ctx, msg.Chat.ID, textNoUsers)
	}

	var sb strings.Builder
	sb.WriteString(textUsersHeader)
	for _, summary := range users {
		status := textStatusActive
		if summary.User.IsBlocked {
			status = textStatusBlocked
		}
		fmt.Fprintf(&sb, "ID: %d\nСтатус: %s\n", summary.User.TelegramID, status)
		if summary.User.IsBlocked && summary.User.BlockReason != "" {
			fmt.Fprintf(&sb, "Причина: %s\n", summary.User.BlockReason)
		}
		fmt.Fprintf(&sb, "Напоминаний: %d\n\n", summary.ReminderCount)
	}
	return b.replyLong(ctx, msg.Chat.ID, sb.String())
}

func (b *Bot) handleAdminReminders(ctx context.Context, msg *telegram.Message) error {
	if err := b.requireAdmin(msg); err != nil {
		return err
	}

	list, err := b.reminders.ListAll(ctx)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if len(list) == 0 {
		return b.reply(ctx, msg.Chat.ID, textNoAllReminders)
	}
	users, err := b.users.UsersByID(ctx)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(textAllRemindersHead)
	for _, r := range list {
		status := textStatusPending
		if r.IsSent {
			status = textStatusSent
		}
		owner := "?"
		if user, ok := users[r.UserID]; ok {
			owner = strconv.FormatInt(user.TelegramID, 10)
		}
		fmt.Fprintf(&sb, "ID: %d\nПользователь: %s\nТекст: %s\nВремя: %s\nСтатус: %s\n\n",
			r.ID, owner, r.Text, timezone.FormatReminderTs(r.RemindTs), status)
	}
	return b.replyLong(ctx, msg.Chat.ID, sb.String())
}

func (b *Bot) handleBlockUser(ctx context.Context, msg *telegram.Message) error {
	if err := b.requireAdmin(msg); err != nil {
		return err
	}
	b.states.Set(ctx, msg.Chat.ID, Session{State: StateWaitingBlockUserID})
	return b.reply(ctx, msg.Chat.ID, textBlockPromptID)
}

// processBlockUserID and processBlockReason re-check the sender, since
// the admin list can change while a dialog is open.
func (b *Bot) processBlockUserID(ctx context.Context, msg *telegram.Message, _ Session) error {
	if err := b.requireAdmin(msg); err != nil {
		b.states.Clear(ctx, msg.Chat.ID)
		return err
	}

	target, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil {
		b.states.Clear(ctx, msg.Chat.ID)
		return b.reply(ctx, msg.Chat.ID, textBlockBadID)
	}
	if _, err := b.users.GetUser(ctx, target); err != nil {
		b.states.Clear(ctx, msg.Chat.ID)
		if errors.Is(err, reminder.ErrUserNotFound) {
			return b.reply(ctx, msg.Chat.ID, textUserNotFound)
		}
		return boterrors.Internal(textInternal, err)
	}

	b.states.Set(ctx, msg.Chat.ID, Session{State: StateWaitingBlockReason, TargetUserID: target})
	return b.reply(ctx, msg.Chat.ID, textBlockPromptReason)
}

func (b *Bot) processBlockReason(ctx context.Context, msg *telegram.Message, session Session) error {
	b.states.Clear(ctx, msg.Chat.ID)
	if err := b.requireAdmin(msg); err != nil {
		return err
	}

	reason := strings.TrimSpace(msg.Text)
	_, err := b.users.Block(ctx, session.TargetUserID, reason)
	if errors.Is(err, reminder.ErrUserNotFound) {
		return b.reply(ctx, msg.Chat.ID, textUserNotFound)
	}
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	return b.reply(ctx, msg.Chat.ID, fmt.Sprintf(textUserBlocked, session.TargetUserID, reason))
}

func (b *Bot) handleUnblockUser(ctx context.Context, msg *telegram.Message) error {
	if err := b.requireAdmin(msg); err != nil {
		return err
	}

	target, err := strconv.ParseInt(msg.CommandArguments(), 10, 64)
	if err != nil {
		return b.reply(ctx, msg.Chat.ID, textUnblockUsage)
	}

	blocked, _, err := b.users.IsBlocked(ctx, target)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if !blocked {
		return b.reply(ctx, msg.Chat.ID, textUnblockNotFound)
	}
	if _, err := b.users.Unblock(ctx, target); err != nil {
		if errors.Is(err, reminder.ErrUserNotFound) {
			return b.reply(ctx, msg.Chat.ID, textUnblockNotFound)
		}
		return boterrors.Internal(textInternal, err)
	}
	return b.reply(ctx, msg.Chat.ID, fmt.Sprintf(textUserUnblocked, target))
}
