package scheduling

import (
	"time"

	. "guardpost/internal/models"
)

// DeriveShiftStatus is the pure time derivation for a shift. Exactly one of
// upcoming/ongoing/completed holds for any instant: now before start is
// upcoming, now at or past end is completed, anything between is ongoing.
// Both the read-path reconciler and the daily sweep funnel through this
// function so the two paths cannot drift.
func DeriveShiftStatus(now, startsAt, endsAt time.Time) ShiftStatus {
	switch {
	case now.Before(startsAt):
		return ShiftUpcoming
	case !now.Before(endsAt):
		return ShiftCompleted
	default:
		return ShiftOngoing
	}
}

// DeriveOrderStatus is the order-level analogue, computed against local
// calendar dates: before start-of-day(startDate) the order is upcoming, at
// or past end-of-day(endDate) it is completed. A missing endDate means the
// order ends with its start date.
func DeriveOrderStatus(clock *Clock, now time.Time, startDate string, endDate *string) (OrderStatus, error) {
	start, err := StartOfDay(clock, startDate)
	if err != nil {
		return "", err
	}

	last := startDate
	if endDate != nil && *endDate != "" {
		last = *endDate
	}
	end, err := EndOfDay(clock, last)
	if err != nil {
		return "", err
	}

	switch {
	case now.Before(start):
		return OrderUpcoming, nil
	case !now.Before(end):
		return OrderCompleted, nil
	default:
		return OrderOngoing, nil
	}
}
