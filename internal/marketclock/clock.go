// Package marketclock decides whether the instrument universe is currently
// active based on wall-clock time in a fixed reference timezone.
package marketclock

import (
	"fmt"
	"time"
)

// Clock reports market-hours state for a fixed timezone and hour window.
// No half-day or holiday handling; weekdays within [openHour, closeHour)
// count as open.
type Clock struct {
	loc       *time.Location
	openHour  int
	closeHour int
}

// New creates a clock for the given IANA timezone name and hour window.
func New(timezone string, openHour, closeHour int) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	if openHour >= closeHour {
		return nil, fmt.Errorf("open hour %d must be before close hour %d", openHour, closeHour)
	}
	return &Clock{loc: loc, openHour: openHour, closeHour: closeHour}, nil
}

// IsActive reports whether now, converted to the reference timezone, falls
// on a weekday within the open window. The open hour is inclusive, the
// close hour exclusive.
func (c *Clock) IsActive(now time.Time) bool {
	local := now.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := local.Hour()
	return h >= c.openHour && h < c.closeHour
}

// Location returns the reference timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}
