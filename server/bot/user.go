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
	"github.com/hrygo/remindbot/store"
)

func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message) error {
	if _, err := b.users.EnsureUser(ctx, msg.From.ID); err != nil {
		return boterrors.Internal(textInternal, err)
	}
	return b.reply(ctx, msg.Chat.ID, textStart)
}

func (b *Bot) handleNew(ctx context.Context, msg *telegram.Message) error {
	b.states.Set(ctx, msg.Chat.ID, Session{State: StateWaitingReminderText})
	return b.reply(ctx, msg.Chat.ID, textNewPrompt)
}

// processReminderText creates a reminder from "<time> <text>". On a parse
// failure the dialog stays open so the user can try again.
func (b *Bot) processReminderText(ctx context.Context, msg *telegram.Message, _ Session) error {
	at, payload, ok := b.time.ParseWithPayload(msg.Text)
	if !ok {
		return b.reply(ctx, msg.Chat.ID, textParseFailed)
	}

	user, err := b.users.EnsureUser(ctx, msg.From.ID)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	created, err := b.reminders.Create(ctx, user.ID, payload, at)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if _, err := b.reminders.Schedule(ctx, created, msg.From.ID); err != nil {
		return boterrors.Internal(textInternal, err)
	}

	b.states.Clear(ctx, msg.Chat.ID)
	return b.reply(ctx, msg.Chat.ID, fmt.Sprintf(textCreated, timezone.FormatReminderTime(at), payload))
}

// pendingFor returns the sender's unsent reminders. Unknown senders have none.
func (b *Bot) pendingFor(ctx context.Context, telegramID int64) ([]*store.Reminder, error) {
	user, err := b.users.GetUser(ctx, telegramID)
	if errors.Is(err, reminder.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b.reminders.ListPending(ctx, user.ID)
}

func formatPending(list []*store.Reminder) string {
	var sb strings.Builder
	sb.WriteString(textListHeader)
	for i, r := range list {
		fmt.Fprintf(&sb, textListEntry, i+1, r.Text, timezone.FormatReminderTs(r.RemindTs), r.ID)
	}
	return sb.String()
}

func (b *Bot) handleList(ctx context.Context, msg *telegram.Message) error {
	if _, err := b.users.GetUser(ctx, msg.From.ID); errors.Is(err, reminder.ErrUserNotFound) {
		return b.reply(ctx, msg.Chat.ID, textNoReminders)
	}
	list, err := b.pendingFor(ctx, msg.From.ID)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if len(list) == 0 {
		return b.reply(ctx, msg.Chat.ID, textNoActiveReminders)
	}
	return b.replyLong(ctx, msg.Chat.ID, formatPending(list))
}

func (b *Bot) handleDelete(ctx context.Context, msg *telegram.Message) error {
	list, err := b.pendingFor(ctx, msg.From.ID)
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if len(list) == 0 {
		return b.reply(ctx, msg.Chat.ID, textNothingToDelete)
	}

	b.states.Set(ctx, msg.Chat.ID, Session{State: StateWaitingReminderToDelete})
	return b.replyLong(ctx, msg.Chat.ID, formatPending(list)+textDeletePrompt)
}

func (b *Bot) processReminderDelete(ctx context.Context, msg *telegram.Message, _ Session) error {
	input := strings.TrimSpace(msg.Text)
	if cancelWords[strings.ToLower(input)] {
		b.states.Clear(ctx, msg.Chat.ID)
		return b.reply(ctx, msg.Chat.ID, textDeleteCancelled)
	}

	id, err := strconv.ParseInt(input, 10, 32)
	if err != nil || id <= 0 {
		return b.reply(ctx, msg.Chat.ID, textDeleteBadID)
	}

	b.states.Clear(ctx, msg.Chat.ID)
	user, err := b.users.GetUser(ctx, msg.From.ID)
	if errors.Is(err, reminder.ErrUserNotFound) {
		return b.reply(ctx, msg.Chat.ID, textNotFound)
	}
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}

	err = b.reminders.Delete(ctx, int32(id), user.ID)
	if errors.Is(err, reminder.ErrReminderNotFound) {
		return b.reply(ctx, msg.Chat.ID, textNotFound)
	}
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	return b.reply(ctx, msg.Chat.ID, fmt.Sprintf(textDeleted, id))
}

// handleRemindAgain starts the reschedule dialog from the button under a
// delivered reminder. The callback is always answered so the client stops
// its spinner.
func (b *Bot) handleRemindAgain(ctx context.Context, query *telegram.CallbackQuery) error {
	if err := b.messenger.AnswerCallbackQuery(ctx, query.ID, ""); err != nil {
		logWarn(ctx, "failed to answer callback", err)
	}

	chatID := query.From.ID
	if query.Message != nil {
		chatID = query.Message.Chat.ID
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(query.Data, callbackRemindAgain), 10, 32)
	if err != nil {
		return b.reply(ctx, chatID, textNotFound)
	}
	if _, err := b.ownedReminder(ctx, int32(id), query.From.ID); err != nil {
		if errors.Is(err, reminder.ErrReminderNotFound) {
			return b.reply(ctx, chatID, textNotFound)
		}
		return boterrors.Internal(textInternal, err)
	}

	b.states.Set(ctx, chatID, Session{State: StateWaitingDelayText, ReminderID: int32(id)})
	return b.reply(ctx, chatID, textRemindAgainPrompt)
}

func (b *Bot) processRemindAgainDelay(ctx context.Context, msg *telegram.Message, session Session) error {
	at, ok := b.time.ParseInstantOnly(msg.Text)
	if !ok {
		return b.reply(ctx, msg.Chat.ID, textDelayParseFailed)
	}

	b.states.Clear(ctx, msg.Chat.ID)
	if _, err := b.ownedReminder(ctx, session.ReminderID, msg.From.ID); err != nil {
		if errors.Is(err, reminder.ErrReminderNotFound) {
			return b.reply(ctx, msg.Chat.ID, textNotFound)
		}
		return boterrors.Internal(textInternal, err)
	}

	updated, err := b.reminders.Reschedule(ctx, session.ReminderID, at)
	if errors.Is(err, reminder.ErrReminderNotFound) {
		return b.reply(ctx, msg.Chat.ID, textNotFound)
	}
	if err != nil {
		return boterrors.Internal(textInternal, err)
	}
	if _, err := b.reminders.Schedule(ctx, updated, msg.From.ID); err != nil {
		return boterrors.Internal(textInternal, err)
	}
	return b.reply(ctx, msg.Chat.ID, fmt.Sprintf(textRescheduled, timezone.FormatReminderTime(at)))
}

func (b *Bot) ownedReminder(ctx context.Context, id int32, telegramID int64) (*store.Reminder, error) {
	user, err := b.users.GetUser(ctx, telegramID)
	if errors.Is(err, reminder.ErrUserNotFound) {
		return nil, reminder.ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	return b.reminders.GetOwned(ctx, id, user.ID)
}

func (b *Bot) handleCancel(ctx context.Context, msg *telegram.Message) error {
	if b.states.Get(ctx, msg.Chat.ID).State == StateNone {
		return b.reply(ctx, msg.Chat.ID, textNothingCancel)
	}
	b.states.Clear(ctx, msg.Chat.ID)
	return b.reply(ctx, msg.Chat.ID, textCancelled)
}
