package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("+05", 5*60*60)

func at(year int, month time.Month, day, hour, minute, sec int) time.Time {
	return time.Date(year, month, day, hour, minute, sec, 0, testLoc)
}

func TestParser_RelativeOffset(t *testing.T) {
	parser := NewParser(testLoc)
	now := at(2024, 12, 19, 20, 0, 30)

	tests := []struct {
		name        string
		input       string
		wantAt      time.Time
		wantPayload string
	}{
		{"minutes", "через 10 минут купить молоко", now.Add(10 * time.Minute), "купить молоко"},
		{"minute singular form", "через 1 минуту выключить плиту", now.Add(time.Minute), "выключить плиту"},
		{"short minutes", "через 5 мин чай", now.Add(5 * time.Minute), "чай"},
		{"no space before unit", "через 15минут перерыв", now.Add(15 * time.Minute), "перерыв"},
		{"hours", "через 2 часа сделать домашку", now.Add(2 * time.Hour), "сделать домашку"},
		{"hours genitive plural", "через 5 часов спать", now.Add(5 * time.Hour), "спать"},
		{"one day", "через 1 день позвонить", now.Add(24 * time.Hour), "позвонить"},
		{"days", "через 3 дня оплатить счёт", now.Add(72 * time.Hour), "оплатить счёт"},
		{"many days crossing year", "через 20 дней продлить", now.Add(20 * 24 * time.Hour), "продлить"},
		{"upper case", "ЧЕРЕЗ 10 МИНУТ Купить Хлеб", now.Add(10 * time.Minute), "Купить Хлеб"},
		{"surrounding whitespace", "   через 10 минут  полить цветы  ", now.Add(10 * time.Minute), "полить цветы"},
		{"multi line payload", "через 5 минут купить\nмолоко", now.Add(5 * time.Minute), "купить\nмолоко"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, payload, ok := parser.ParseWithPayload(tt.input, now)
			require.True(t, ok)
			assert.True(t, tt.wantAt.Equal(got), "got %v, want %v", got, tt.wantAt)
			assert.Equal(t, tt.wantPayload, payload)
		})
	}
}

func TestParser_RelativeOffsetKeepsSeconds(t *testing.T) {
	parser := NewParser(testLoc)
	now := time.Date(2024, 12, 19, 20, 0, 30, 123, testLoc)

	got, ok := parser.ParseInstantOnly("через 10 минут", now)
	require.True(t, ok)
	assert.Equal(t, 30, got.Second())
	assert.Equal(t, 123, got.Nanosecond())
}

func TestParser_ClockToday(t *testing.T) {
	parser := NewParser(testLoc)

	tests := []struct {
		name   string
		now    time.Time
		input  string
		wantAt time.Time
	}{
		{"already passed rolls to tomorrow", at(2024, 12, 19, 9, 30, 0), "в 09:00 зарядка", at(2024, 12, 20, 9, 0, 0)},
		{"later today stays today", at(2024, 12, 19, 8, 0, 0), "в 09:00 зарядка", at(2024, 12, 19, 9, 0, 0)},
		{"equal to now is not rolled", at(2024, 12, 19, 9, 0, 0), "в 09:00 зарядка", at(2024, 12, 19, 9, 0, 0)},
		{"seconds past the minute rolls", at(2024, 12, 19, 9, 0, 1), "в 09:00 зарядка", at(2024, 12, 20, 9, 0, 0)},
		{"single digit hour", at(2024, 12, 19, 6, 0, 0), "в 7:15 пробежка", at(2024, 12, 19, 7, 15, 0)},
		{"rolls across month end", at(2024, 12, 31, 23, 0, 0), "в 18:30 позвонить маме", at(2025, 1, 1, 18, 30, 0)},
		{"midnight", at(2024, 12, 19, 12, 0, 0), "в 00:00 спать", at(2024, 12, 20, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := parser.Match(tt.input, tt.now, true)
			require.True(t, ok)
			assert.Equal(t, KindClockToday, res.Kind)
			assert.True(t, tt.wantAt.Equal(res.At), "got %v, want %v", res.At, tt.wantAt)
			assert.Zero(t, res.At.Second())
			assert.Zero(t, res.At.Nanosecond())
		})
	}
}

func TestParser_Tomorrow(t *testing.T) {
	parser := NewParser(testLoc)

	tests := []struct {
		name     string
		now      time.Time
		input    string
		wantAt   time.Time
		wantKind Kind
	}{
		{"evening", at(2024, 12, 19, 20, 0, 0), "завтра в 10:00 встреча", at(2024, 12, 20, 10, 0, 0), KindClockTomorrow},
		{"morning is still tomorrow", at(2024, 12, 19, 8, 0, 0), "завтра в 10:00 встреча", at(2024, 12, 20, 10, 0, 0), KindClockTomorrow},
		{"seconds are zeroed", at(2024, 12, 19, 8, 0, 45), "Завтра в 9:05 врач", at(2024, 12, 20, 9, 5, 0), KindClockTomorrow},
		{"day after tomorrow", at(2024, 12, 19, 20, 0, 0), "послезавтра в 10:00 встреча", at(2024, 12, 21, 10, 0, 0), KindClockDayAfterTomorrow},
		{"day after tomorrow across year", at(2024, 12, 30, 12, 0, 0), "послезавтра в 7:05 врач", at(2025, 1, 1, 7, 5, 0), KindClockDayAfterTomorrow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := parser.Match(tt.input, tt.now, true)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.True(t, tt.wantAt.Equal(res.At), "got %v, want %v", res.At, tt.wantAt)
		})
	}
}

func TestParser_Dates(t *testing.T) {
	parser := NewParser(testLoc)

	tests := []struct {
		name     string
		now      time.Time
		input    string
		wantAt   time.Time
		wantKind Kind
	}{
		{"full date in the future", at(2024, 12, 1, 12, 0, 0), "25.12.2024 в 20:00 праздник", at(2024, 12, 25, 20, 0, 0), KindDateWithYear},
		{"full date in the past is trusted", at(2025, 6, 1, 12, 0, 0), "25.12.2024 в 20:00 праздник", at(2024, 12, 25, 20, 0, 0), KindDateWithYear},
		{"full date single digits", at(2025, 6, 1, 12, 0, 0), "1.2.2026 в 8:00 отчёт", at(2026, 2, 1, 8, 0, 0), KindDateWithYear},
		{"date without year passed rolls to next year", at(2024, 12, 25, 10, 0, 0), "20.12 в 15:00 забрать посылку", at(2025, 12, 20, 15, 0, 0), KindDateWithoutYear},
		{"date without year upcoming", at(2024, 12, 19, 10, 0, 0), "20.12 в 15:00 забрать посылку", at(2024, 12, 20, 15, 0, 0), KindDateWithoutYear},
		{"date without year equal to now", at(2024, 12, 20, 15, 0, 0), "20.12 в 15:00 забрать посылку", at(2024, 12, 20, 15, 0, 0), KindDateWithoutYear},
		{"leap day in a leap year", at(2024, 1, 10, 10, 0, 0), "29.02 в 10:00 поздравить", at(2024, 2, 29, 10, 0, 0), KindDateWithoutYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := parser.Match(tt.input, tt.now, true)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.True(t, tt.wantAt.Equal(res.At), "got %v, want %v", res.At, tt.wantAt)
		})
	}
}

func TestParser_FieldInvalid(t *testing.T) {
	parser := NewParser(testLoc)
	now := at(2025, 1, 10, 10, 0, 0)

	tests := []struct {
		name  string
		now   time.Time
		input string
	}{
		{"hour out of range", now, "в 25:00 встать"},
		{"minute out of range", now, "в 10:60 встать"},
		{"tomorrow hour out of range", now, "завтра в 24:00 встать"},
		{"day 31 in a 30 day month", now, "31.04.2025 в 10:00 отчёт"},
		{"month out of range", now, "15.13.2025 в 10:00 отчёт"},
		{"day zero", now, "00.12 в 10:00 отчёт"},
		{"year zero", now, "01.01.0000 в 10:00 отчёт"},
		{"leap day outside a leap year", now, "29.02 в 10:00 поздравить"},
		{"leap day rolled into a common year", at(2024, 3, 1, 10, 0, 0), "29.02 в 10:00 поздравить"},
		{"relative value overflows", now, "через 99999999999999999999 минут ждать"},
		{"relative duration overflows", now, "через 9999999999 дней ждать"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := parser.ParseWithPayload(tt.input, tt.now)
			assert.False(t, ok)
			_, ok = parser.ParseInstantOnly(tt.input, tt.now)
			assert.False(t, ok)
		})
	}
}

func TestParser_NoMatch(t *testing.T) {
	parser := NewParser(testLoc)
	now := at(2024, 12, 19, 20, 0, 0)

	for _, input := range []string{
		"",
		"   ",
		"hello world",
		"купить молоко через 10 минут",
		"через десять минут",
		"через 2 недели отпуск",
		"в 1830 позвонить",
		"25.12.2024 20:00 праздник",
	} {
		t.Run(input, func(t *testing.T) {
			got, payload, ok := parser.ParseWithPayload(input, now)
			assert.False(t, ok)
			assert.True(t, got.IsZero())
			assert.Empty(t, payload)

			got, ok = parser.ParseInstantOnly(input, now)
			assert.False(t, ok)
			assert.True(t, got.IsZero())
		})
	}
}

func TestParser_PayloadRequirement(t *testing.T) {
	parser := NewParser(testLoc)
	now := at(2024, 12, 19, 20, 0, 0)

	for _, input := range []string{"через 10 минут", "в 18:30", "завтра в 10:00", "20.12 в 15:00", "25.12.2024 в 20:00  "} {
		t.Run(input, func(t *testing.T) {
			_, _, ok := parser.ParseWithPayload(input, now)
			assert.False(t, ok, "create mode needs reminder text")

			_, ok = parser.ParseInstantOnly(input, now)
			assert.True(t, ok, "reschedule mode needs only an instant")
		})
	}

	got, ok := parser.ParseInstantOnly("через 10 минут пожалуйста", now)
	require.True(t, ok)
	assert.True(t, now.Add(10*time.Minute).Equal(got))
}

func TestParser_UnicodeSpaces(t *testing.T) {
	parser := NewParser(testLoc)
	now := at(2024, 12, 19, 12, 0, 0)

	got, payload, ok := parser.ParseWithPayload("в\u00a018:30\u00a0позвонить маме", now)
	require.True(t, ok)
	assert.True(t, at(2024, 12, 19, 18, 30, 0).Equal(got))
	assert.Equal(t, "позвонить маме", payload)
}

func TestParser_NowInOtherZone(t *testing.T) {
	parser := NewParser(testLoc)
	// 15:00 UTC is 20:00 in UTC+5, so 19:00 has already passed there.
	now := time.Date(2024, 12, 19, 15, 0, 0, 0, time.UTC)

	got, ok := parser.ParseInstantOnly("в 19:00", now)
	require.True(t, ok)
	assert.True(t, at(2024, 12, 20, 19, 0, 0).Equal(got))
	assert.Equal(t, testLoc, got.Location())
}

func TestResolveUnit(t *testing.T) {
	tests := []struct {
		token string
		want  Unit
		ok    bool
	}{
		{"минут", UnitMinute, true},
		{"МИН", UnitMinute, true},
		{"часа", UnitHour, true},
		{"часов", UnitHour, true},
		{"день", UnitDay, true},
		{"дня", UnitDay, true},
		{"дней", UnitDay, true},
		{"минчас", UnitMinute, true},
		{"часмин", UnitMinute, true},
		{"часдн", UnitHour, true},
		{"неделя", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := resolveUnit(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_FormatRoundTrip(t *testing.T) {
	parser := NewParser(testLoc)

	instants := []time.Time{
		at(2024, 12, 25, 20, 0, 0),
		at(2025, 1, 1, 0, 0, 0),
		at(2028, 2, 29, 23, 59, 0),
		at(2030, 7, 4, 7, 5, 0),
	}
	nows := []time.Time{
		at(2020, 1, 1, 0, 0, 0),
		at(2026, 6, 15, 12, 30, 0),
		at(2035, 1, 1, 0, 0, 0),
	}

	for _, want := range instants {
		text := parser.Format(want)
		for _, now := range nows {
			res, ok := parser.Match(text, now, false)
			require.True(t, ok, text)
			assert.Equal(t, KindDateWithYear, res.Kind)
			assert.True(t, want.Equal(res.At), "%q at now=%v: got %v", text, now, res.At)
		}
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "relative_offset", KindRelativeOffset.String())
	assert.Equal(t, "date_without_year", KindDateWithoutYear.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
