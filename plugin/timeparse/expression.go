package timeparse

import (
	"math"
	"strings"
	"time"
)

// Kind identifies the phrase shape an instant was resolved from.
type Kind int

const (
	KindUnknown Kind = iota
	KindRelativeOffset
	KindClockToday
	KindClockTomorrow
	KindClockDayAfterTomorrow
	KindDateWithYear
	KindDateWithoutYear
)

func (k Kind) String() string {
	switch k {
	case KindRelativeOffset:
		return "relative_offset"
	case KindClockToday:
		return "clock_today"
	case KindClockTomorrow:
		return "clock_tomorrow"
	case KindClockDayAfterTomorrow:
		return "clock_day_after_tomorrow"
	case KindDateWithYear:
		return "date_with_year"
	case KindDateWithoutYear:
		return "date_without_year"
	default:
		return "unknown"
	}
}

// Expression is a recognized phrase shape carrying exactly the fields its
// handler needs. Resolve reports false when the fields do not form a
// valid instant.
type Expression interface {
	Kind() Kind
	Resolve(now time.Time) (time.Time, bool)
}

// Unit is the unit of a relative offset.
type Unit int

const (
	UnitMinute Unit = iota + 1
	UnitHour
	UnitDay
)

// Duration returns the length of one unit.
func (u Unit) Duration() time.Duration {
	switch u {
	case UnitMinute:
		return time.Minute
	case UnitHour:
		return time.Hour
	case UnitDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Unit stems, checked in this order against the lower-cased unit token.
var (
	minuteStems = []string{"мин"}
	hourStems   = []string{"час"}
	dayStems    = []string{"дн", "ден"} // "ден" so the singular "день" counts
)

// resolveUnit maps a unit token to a Unit. Minute stems win over hour
// stems, hour stems over day stems.
func resolveUnit(token string) (Unit, bool) {
	token = strings.ToLower(token)
	switch {
	case containsAny(token, minuteStems):
		return UnitMinute, true
	case containsAny(token, hourStems):
		return UnitHour, true
	case containsAny(token, dayStems):
		return UnitDay, true
	default:
		return 0, false
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// RelativeOffset is "через N <unit>": now plus N units, seconds kept.
type RelativeOffset struct {
	Value int64
	Unit  Unit
}

func (RelativeOffset) Kind() Kind { return KindRelativeOffset }

func (e RelativeOffset) Resolve(now time.Time) (time.Time, bool) {
	step := e.Unit.Duration()
	if step <= 0 || e.Value < 0 || e.Value > math.MaxInt64/int64(step) {
		return time.Time{}, false
	}
	at := now.Add(time.Duration(e.Value) * step)
	if at.Year() > maxYear {
		return time.Time{}, false
	}
	return at, true
}

// ClockToday is "в HH:MM": today at HH:MM, or tomorrow if that is
// strictly before now.
type ClockToday struct {
	Hour, Minute int
}

func (ClockToday) Kind() Kind { return KindClockToday }

func (e ClockToday) Resolve(now time.Time) (time.Time, bool) {
	if !validClock(e.Hour, e.Minute) {
		return time.Time{}, false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), e.Hour, e.Minute, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, true
}

// ClockDayOffset is "завтра в HH:MM" (Days == 1) or "послезавтра в HH:MM"
// (Days == 2): the calendar day Days after now, at HH:MM.
type ClockDayOffset struct {
	Days         int
	Hour, Minute int
}

func (e ClockDayOffset) Kind() Kind {
	if e.Days == 2 {
		return KindClockDayAfterTomorrow
	}
	return KindClockTomorrow
}

func (e ClockDayOffset) Resolve(now time.Time) (time.Time, bool) {
	if !validClock(e.Hour, e.Minute) {
		return time.Time{}, false
	}
	day := now.AddDate(0, 0, e.Days)
	return time.Date(day.Year(), day.Month(), day.Day(), e.Hour, e.Minute, 0, 0, now.Location()), true
}

// DateWithYear is "DD.MM.YYYY в HH:MM". The year is trusted as-is, no
// rollover applies.
type DateWithYear struct {
	Day, Month, Year int
	Hour, Minute     int
}

func (DateWithYear) Kind() Kind { return KindDateWithYear }

func (e DateWithYear) Resolve(now time.Time) (time.Time, bool) {
	if !validDate(e.Year, e.Month, e.Day) || !validClock(e.Hour, e.Minute) {
		return time.Time{}, false
	}
	return time.Date(e.Year, time.Month(e.Month), e.Day, e.Hour, e.Minute, 0, 0, now.Location()), true
}

// DateWithoutYear is "DD.MM в HH:MM" in the current year, moved to the
// next year when strictly before now. Only the year changes.
type DateWithoutYear struct {
	Day, Month   int
	Hour, Minute int
}

func (DateWithoutYear) Kind() Kind { return KindDateWithoutYear }

func (e DateWithoutYear) Resolve(now time.Time) (time.Time, bool) {
	year := now.Year()
	if !validDate(year, e.Month, e.Day) || !validClock(e.Hour, e.Minute) {
		return time.Time{}, false
	}
	at := time.Date(year, time.Month(e.Month), e.Day, e.Hour, e.Minute, 0, 0, now.Location())
	if !at.Before(now) {
		return at, true
	}
	// 29.02 in a leap year has no counterpart next year.
	if !validDate(year+1, e.Month, e.Day) {
		return time.Time{}, false
	}
	return time.Date(year+1, time.Month(e.Month), e.Day, e.Hour, e.Minute, 0, 0, now.Location()), true
}

const (
	minYear = 1
	maxYear = 9999
)

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

func validDate(year, month, day int) bool {
	if year < minYear || year > maxYear || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= daysIn(year, time.Month(month))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
