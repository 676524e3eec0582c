// Package timeparse turns Russian reminder phrases such as "через 10 минут",
// "завтра в 10:00" or "20.12 в 15:00 забрать посылку" into absolute instants.
//
// Recognized shapes, tried in order:
//
//	через N минут|часов|дней [текст]
//	в HH:MM [текст]
//	завтра в HH:MM [текст]
//	послезавтра в HH:MM [текст]
//	DD.MM.YYYY в HH:MM [текст]
//	DD.MM в HH:MM [текст]
//
// A bare clock time already passed today moves to tomorrow; a day and
// month already passed this year move to next year.
package timeparse

import "time"

// TimeService is the entry point used by the bot and the CLI.
type TimeService interface {
	// ParseWithPayload requires both an instant and reminder text.
	ParseWithPayload(text string) (time.Time, string, bool)

	// ParseInstantOnly requires only an instant.
	ParseInstantOnly(text string) (time.Time, bool)

	// Now returns the reference instant used for parsing.
	Now() time.Time
}
