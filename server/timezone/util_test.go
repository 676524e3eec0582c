package timezone

import (
	"testing"
	"time"
)

func TestYekaterinburgOffset(t *testing.T) {
	now := time.Date(2024, 12, 19, 20, 0, 0, 0, Yekaterinburg)
	_, offset := now.Zone()
	if offset != 5*60*60 {
		t.Errorf("Yekaterinburg offset = %d, want %d", offset, 5*60*60)
	}
}

func TestFormatReminderTime(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "local wall clock",
			in:   time.Date(2024, 12, 25, 20, 0, 0, 0, Yekaterinburg),
			want: "25.12.2024 20:00",
		},
		{
			name: "utc input is converted",
			in:   time.Date(2024, 12, 25, 15, 0, 0, 0, time.UTC),
			want: "25.12.2024 20:00",
		},
		{
			name: "single digit fields are zero padded",
			in:   time.Date(2025, 1, 2, 3, 4, 0, 0, Yekaterinburg),
			want: "02.01.2025 03:04",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatReminderTime(tt.in); got != tt.want {
				t.Errorf("FormatReminderTime() = %q, want %q", got, tt.want)
			}
			if got := FormatReminderTs(tt.in.Unix()); got != tt.want {
				t.Errorf("FormatReminderTs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToUserTimezone(t *testing.T) {
	ts := time.Date(2024, 12, 19, 23, 30, 0, 0, time.UTC).Unix() // 04:30 next day in UTC+5

	got := ToUserTimezone(ts, nil)
	if got.Day() != 20 || got.Hour() != 4 || got.Minute() != 30 {
		t.Errorf("ToUserTimezone() = %v, want 2024-12-20 04:30 +05", got)
	}
	if got := ToUserTimezone(ts, time.UTC); got.Hour() != 23 {
		t.Errorf("ToUserTimezone(UTC) hour = %d, want 23", got.Hour())
	}
}
