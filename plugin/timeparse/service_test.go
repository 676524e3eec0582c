package timeparse

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_UsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 12, 19, 15, 0, 0, 0, time.UTC))
	svc := NewService(testLoc, clock)

	assert.True(t, at(2024, 12, 19, 20, 0, 0).Equal(svc.Now()))
	assert.Equal(t, testLoc, svc.Now().Location())

	got, payload, ok := svc.ParseWithPayload("завтра в 10:00 встреча")
	require.True(t, ok)
	assert.True(t, at(2024, 12, 20, 10, 0, 0).Equal(got))
	assert.Equal(t, "встреча", payload)

	clock.Advance(30 * time.Minute)
	got, ok = svc.ParseInstantOnly("через 10 минут")
	require.True(t, ok)
	assert.True(t, at(2024, 12, 19, 20, 40, 0).Equal(got))
}

func TestService_DeliveryDelay(t *testing.T) {
	clock := clockwork.NewFakeClockAt(at(2024, 12, 19, 9, 30, 0))
	svc := NewService(testLoc, clock)

	got, ok := svc.ParseInstantOnly("в 09:30")
	require.True(t, ok)
	// An instant equal to now is kept, which makes the delivery delay zero.
	assert.Equal(t, time.Duration(0), max(0, got.Sub(svc.Now())))

	got, ok = svc.ParseInstantOnly("в 09:00")
	require.True(t, ok)
	assert.Equal(t, 23*time.Hour+30*time.Minute, got.Sub(svc.Now()))
}

func TestService_FormatParsesBack(t *testing.T) {
	clock := clockwork.NewFakeClockAt(at(2024, 12, 19, 20, 0, 0))
	svc := NewService(testLoc, clock)

	want := at(2024, 12, 25, 20, 0, 0)
	assert.Equal(t, "25.12.2024 в 20:00", svc.Format(want))

	got, ok := svc.ParseInstantOnly(svc.Format(want))
	require.True(t, ok)
	assert.True(t, want.Equal(got))
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, nil)
	require.NotNil(t, svc.Parser())
	assert.Equal(t, time.UTC, svc.Parser().Location())
	assert.WithinDuration(t, time.Now(), svc.Now(), time.Minute)
}
