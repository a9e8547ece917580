package scheduling

import (
	"errors"
	"fmt"
	"time"

	. "guardpost/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingOrder  = errors.New("orderId is required")
	ErrMissingWindow = errors.New("daily start and end times are required")
	ErrNoGuards      = errors.New("at least one guard is required")
	ErrDateOrder     = errors.New("endDate is before startDate")
)

// ExpansionRequest is a scheduling request before expansion: a date range,
// a daily time window, and the guards to cover it.
type ExpansionRequest struct {
	OrderID        uuid.UUID
	StartDate      string
	EndDate        string // empty means single-day
	DailyStartTime string
	DailyEndTime   string
	GuardIDs       []uuid.UUID
}

// ShiftIntent is one intended (day, guard) shift record. Intents are built
// for the full request and committed or discarded as a whole; nothing is
// persisted here.
type ShiftIntent struct {
	OrderID    uuid.UUID
	GuardID    uuid.UUID
	Date       string
	EndDate    string
	StartsAt   time.Time // UTC
	EndsAt     time.Time // UTC
	Status     ShiftStatus
	TotalHours decimal.Decimal
}

// Expand turns a request into one intent per (day, guard) pair across the
// inclusive date range. Each day resolves its window independently, so the
// overnight rollover holds for every day of a multi-day range. A shift whose
// window already fully elapsed is born completed; everything else starts
// pending until the guard responds.
func Expand(clock *Clock, req ExpansionRequest) ([]ShiftIntent, error) {
	if req.OrderID == uuid.Nil {
		return nil, ErrMissingOrder
	}
	if req.DailyStartTime == "" || req.DailyEndTime == "" {
		return nil, ErrMissingWindow
	}
	if len(req.GuardIDs) == 0 {
		return nil, ErrNoGuards
	}

	first, err := ParseDate(clock, req.StartDate)
	if err != nil {
		return nil, err
	}
	last := first
	if req.EndDate != "" {
		if last, err = ParseDate(clock, req.EndDate); err != nil {
			return nil, err
		}
	}
	if last.Before(first) {
		return nil, fmt.Errorf("%w: %s < %s", ErrDateOrder, req.EndDate, req.StartDate)
	}

	now := clock.Now()

	var intents []ShiftIntent
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		window, err := ResolveWindow(clock, day.Format(DateLayout), req.DailyStartTime, req.DailyEndTime)
		if err != nil {
			return nil, err
		}

		status := ShiftPending
		if !now.Before(window.End) {
			status = ShiftCompleted
		}

		for _, guardID := range req.GuardIDs {
			intents = append(intents, ShiftIntent{
				OrderID:    req.OrderID,
				GuardID:    guardID,
				Date:       window.Date,
				EndDate:    window.EndDate,
				StartsAt:   window.Start.UTC(),
				EndsAt:     window.End.UTC(),
				Status:     status,
				TotalHours: window.Hours(),
			})
		}
	}

	return intents, nil
}
