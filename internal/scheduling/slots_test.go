package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
	return loc
}()

func TestGenerateSlotsReturnsAscendingGridWithinHorizon(t *testing.T) {
	policy := DefaultSlotPolicy()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, saoPaulo) // Saturday

	slots := policy.GenerateSlots(now, 14, 10, nil)
	require.Len(t, slots, 10)

	horizon := now.AddDate(0, 0, 14)
	for i, slot := range slots {
		assert.False(t, slot.Before(now) || slot.After(horizon),
			"slot %s outside horizon [%s, %s]", slot, now, horizon)
		if i > 0 {
			assert.True(t, slots[i-1].Before(slot),
				"slots not strictly ascending at index %d: %s then %s", i, slots[i-1], slot)
		}
		assert.NotEqual(t, time.Sunday, slot.Weekday(), "slot %s lands on a closed Sunday", slot)
		h := slot.Hour()
		assert.True(t, h >= policy.OpeningHour && h < policy.ClosingHour,
			"slot %s outside business hours", slot)
	}
}

func TestGenerateSlotsSkipsBookedInstants(t *testing.T) {
	policy := DefaultSlotPolicy()
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, saoPaulo) // Monday before opening

	booked := map[int64]struct{}{
		SlotUnix(time.Date(2025, 3, 3, 9, 0, 0, 0, saoPaulo)):  {},
		SlotUnix(time.Date(2025, 3, 3, 11, 0, 0, 0, saoPaulo)): {},
	}

	slots := policy.GenerateSlots(now, 14, 10, booked)
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		_, taken := booked[SlotUnix(slot)]
		assert.False(t, taken, "proposed slot %s collides with a booking", slot)
	}
	assert.True(t, slots[0].Equal(time.Date(2025, 3, 3, 10, 0, 0, 0, saoPaulo)),
		"expected first free slot at 10:00, got %s", slots[0])
}

func TestGenerateSlotsSkipsBookingsStoredInOtherZones(t *testing.T) {
	policy := DefaultSlotPolicy()
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, saoPaulo) // Monday

	// 12:00 UTC is 09:00 in Sao Paulo; storage commonly hands instants
	// back in UTC.
	booked := map[int64]struct{}{
		SlotUnix(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)): {},
	}

	slots := policy.GenerateSlots(now, 14, 10, booked)
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		_, taken := booked[SlotUnix(slot)]
		assert.False(t, taken, "proposed slot %s collides with a UTC-stored booking", slot)
	}
	assert.True(t, slots[0].Equal(time.Date(2025, 3, 3, 10, 0, 0, 0, saoPaulo)),
		"expected the 09:00 booking to be skipped, got %s first", slots[0])
}

func TestGenerateSlotsReturnsFewerWhenHorizonExhausts(t *testing.T) {
	policy := SlotPolicy{OpeningHour: 9, ClosingHour: 11, Interval: time.Hour}
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, saoPaulo) // Monday

	// Two slots per day, one-day horizon: 9:00 and 10:00 today plus the
	// grid points through tomorrow 8:00 cutoff.
	slots := policy.GenerateSlots(now, 1, 10, nil)
	require.NotEmpty(t, slots)
	assert.Less(t, len(slots), 10, "expected a short slate")
}

func TestGenerateSlotsAlignsOffGridRequest(t *testing.T) {
	policy := DefaultSlotPolicy()
	now := time.Date(2025, 3, 3, 9, 17, 0, 0, saoPaulo)

	slots := policy.GenerateSlots(now, 14, 3, nil)
	require.NotEmpty(t, slots)
	assert.True(t, slots[0].Equal(time.Date(2025, 3, 3, 10, 0, 0, 0, saoPaulo)),
		"expected alignment to 10:00, got %s", slots[0])
}

func TestGenerateSlotsHonorsConfiguredClosedWeekdays(t *testing.T) {
	policy := DefaultSlotPolicy()
	policy.ClosedWeekdays = []time.Weekday{time.Saturday, time.Sunday}
	now := time.Date(2025, 3, 7, 17, 30, 0, 0, saoPaulo) // Friday evening

	slots := policy.GenerateSlots(now, 7, 5, nil)
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		assert.NotEqual(t, time.Saturday, slot.Weekday(), "slot %s lands on a closed Saturday", slot)
		assert.NotEqual(t, time.Sunday, slot.Weekday(), "slot %s lands on a closed Sunday", slot)
	}
	assert.Equal(t, time.Monday, slots[0].Weekday(), "expected the weekend skipped, got %s", slots[0])
}

func TestGenerateSlotsRejectsBadPolicy(t *testing.T) {
	bad := SlotPolicy{OpeningHour: 18, ClosingHour: 9, Interval: time.Hour}
	assert.Nil(t, bad.GenerateSlots(time.Now(), 14, 10, nil))
}
