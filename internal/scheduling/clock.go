// Package scheduling holds the pure shift-scheduling core: the operational
// clock, daily window resolution with overnight rollover, time-derived
// status, and the day-by-guard expansion of a scheduling request. Nothing in
// this package touches storage.
package scheduling

import (
	"time"

	"guardpost/internal/logger"
)

// Clock supplies "now" in the single fixed operational timezone. It is built
// once from config and threaded explicitly into every time computation; no
// package-level clock state exists.
type Clock struct {
	loc   *time.Location
	nowFn func() time.Time
}

func NewClock(timezone string) (*Clock, error) {
	log := logger.New("scheduling").Function("NewClock")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, log.Err("failed to load operational timezone", err, "timezone", timezone)
	}

	return &Clock{loc: loc, nowFn: time.Now}, nil
}

// NewClockAt returns a clock frozen at the given instant, for tests and for
// replaying a sweep deterministically.
func NewClockAt(timezone string, at time.Time) (*Clock, error) {
	clock, err := NewClock(timezone)
	if err != nil {
		return nil, err
	}
	clock.nowFn = func() time.Time { return at }
	return clock, nil
}

// Now returns the current instant expressed in the operational timezone.
func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// Location returns the operational timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}
