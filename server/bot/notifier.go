package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hrygo/remindbot/plugin/reminder"
	"github.com/hrygo/remindbot/plugin/telegram"
)

var _ reminder.Notifier = (*Bot)(nil)

// SendReminder delivers a due reminder with a button to schedule it
// again. Chats the bot can no longer write to are reported as
// undeliverable.
func (b *Bot) SendReminder(ctx context.Context, chatID int64, reminderID int32, text string) error {
	_, err := b.messenger.SendMessage(ctx, &telegram.SendMessageRequest{
		ChatID: chatID,
		Text:   fmt.Sprintf(textReminder, text),
		ReplyMarkup: telegram.NewInlineKeyboard(telegram.InlineKeyboardButton{
			Text:         textRepeatButton,
			CallbackData: callbackRemindAgain + strconv.FormatInt(int64(reminderID), 10),
		}),
	})
	if telegram.IsUnreachable(err) {
		return fmt.Errorf("%w: %w", reminder.ErrUndeliverable, err)
	}
	return err
}
