// Package clock provides the office-local wall clock used for every temporal
// comparison in the system (history windows, upcoming appointments, slot
// proposals). Loading the timezone happens once at startup; a bad timezone
// name is a configuration error, not a per-call failure.
package clock

import (
	"fmt"
	"time"
)

// Clock yields the current instant in a fixed IANA timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New loads the named IANA timezone. An unknown name fails construction so
// the process refuses to start rather than mis-stamping every record.
func New(timezone string) (*Clock, error) {
	if timezone == "" {
		return nil, fmt.Errorf("clock: timezone is required")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("clock: invalid timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed returns a clock pinned to a single instant, for tests.
func NewFixed(at time.Time) *Clock {
	return &Clock{loc: at.Location(), now: func() time.Time { return at }}
}

// Now returns the current instant in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Location exposes the loaded timezone for formatting.
func (c *Clock) Location() *time.Location {
	return c.loc
}
