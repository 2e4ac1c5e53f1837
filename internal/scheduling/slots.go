package scheduling

import "time"

// SlotPolicy is the candidate-generation surface: which hours of which days
// are bookable and at what granularity. ClosedWeekdays lists the days the
// office does not book; a zero-value policy closes nothing.
type SlotPolicy struct {
	OpeningHour    int
	ClosingHour    int
	Interval       time.Duration
	ClosedWeekdays []time.Weekday
}

// DefaultSlotPolicy mirrors the office hours most tenants run: 9 to 18 on
// the hour, closed Sundays.
func DefaultSlotPolicy() SlotPolicy {
	return SlotPolicy{
		OpeningHour:    9,
		ClosingHour:    18,
		Interval:       time.Hour,
		ClosedWeekdays: []time.Weekday{time.Sunday},
	}
}

func (p SlotPolicy) valid() bool {
	return p.Interval > 0 && p.OpeningHour >= 0 && p.ClosingHour > p.OpeningHour && p.ClosingHour <= 24 &&
		len(p.ClosedWeekdays) < 7
}

func (p SlotPolicy) closedOn(d time.Weekday) bool {
	for _, c := range p.ClosedWeekdays {
		if c == d {
			return true
		}
	}
	return false
}

// GenerateSlots walks the business-hour grid from now through the horizon
// and returns up to count instants not present in booked, earliest first.
// Fewer than count slots is not an error; the horizon simply ran out.
// booked is keyed by SlotUnix so instants compare regardless of the zone
// storage handed them back in.
func (p SlotPolicy) GenerateSlots(now time.Time, horizonDays, count int, booked map[int64]struct{}) []time.Time {
	if !p.valid() || horizonDays <= 0 || count <= 0 {
		return nil
	}

	horizon := now.AddDate(0, 0, horizonDays)
	cursor := p.align(now)

	var slots []time.Time
	for len(slots) < count && !cursor.After(horizon) {
		if _, taken := booked[SlotUnix(cursor)]; !taken {
			slots = append(slots, cursor)
		}
		cursor = p.align(cursor.Add(p.Interval))
	}
	return slots
}

// align rounds an instant up to the nearest bookable grid point: within
// business hours, on the interval grid, never on a closed weekday.
func (p SlotPolicy) align(at time.Time) time.Time {
	for {
		open := time.Date(at.Year(), at.Month(), at.Day(), p.OpeningHour, 0, 0, 0, at.Location())
		close := time.Date(at.Year(), at.Month(), at.Day(), p.ClosingHour, 0, 0, 0, at.Location())

		if p.closedOn(at.Weekday()) || !at.Before(close) {
			at = open.AddDate(0, 0, 1)
			continue
		}
		if at.Before(open) {
			return open
		}
		// Snap up to the next grid point within the day.
		offset := at.Sub(open)
		if rem := offset % p.Interval; rem != 0 {
			at = open.Add(offset - rem + p.Interval)
			continue
		}
		// A slot must end by closing time.
		if at.Add(p.Interval).After(close) {
			at = open.AddDate(0, 0, 1)
			continue
		}
		return at
	}
}
