// Package timezone provides timezone utilities for remindbot.
//
// The bot works in a single fixed zone. Everything that renders or
// computes wall-clock times goes through this package so the zone is
// injected rather than read from the process environment.
package timezone

import "time"

// TimezoneYekaterinburg is the zone every reminder is interpreted in.
const TimezoneYekaterinburg = "Asia/Yekaterinburg"

// yekaterinburgOffset is the fixed UTC offset of Asia/Yekaterinburg.
const yekaterinburgOffset = 5 * 60 * 60

// DisplayLayout is the layout used when showing reminder times to users.
const DisplayLayout = "02.01.2006 15:04"

// Yekaterinburg is the bot's fixed zone. Falls back to a fixed UTC+5
// zone when the tz database is not available.
var Yekaterinburg = loadOrFixed(TimezoneYekaterinburg, "+05", yekaterinburgOffset)

func loadOrFixed(name, abbr string, offset int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(abbr, offset)
	}
	return loc
}

// ToUserTimezone converts a Unix timestamp to the given zone.
func ToUserTimezone(ts int64, tz *time.Location) time.Time {
	if tz == nil {
		tz = Yekaterinburg
	}
	return time.Unix(ts, 0).In(tz)
}

// FormatTimeWithTimezone formats a Unix timestamp as a string in the given timezone.
func FormatTimeWithTimezone(ts int64, tz *time.Location, format string) string {
	return ToUserTimezone(ts, tz).Format(format)
}

// FormatReminderTime renders a reminder instant as "02.01.2006 15:04"
// in the fixed zone.
func FormatReminderTime(t time.Time) string {
	return t.In(Yekaterinburg).Format(DisplayLayout)
}

// FormatReminderTs is FormatReminderTime for a Unix timestamp.
func FormatReminderTs(ts int64) string {
	return FormatTimeWithTimezone(ts, Yekaterinburg, DisplayLayout)
}
