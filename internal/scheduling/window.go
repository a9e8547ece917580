package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the local calendar date format persisted on shifts and
	// orders, independent of the UTC instants.
	DateLayout = "2006-01-02"

	// TimeOfDayLayout is the daily HH:mm window format.
	TimeOfDayLayout = "15:04"
)

var (
	ErrBadDate      = errors.New("invalid date")
	ErrBadTimeOfDay = errors.New("invalid time of day")
)

// Window is one resolved daily work interval. Start and End are instants in
// the operational timezone; Date and EndDate are the local calendar dates
// the window covers.
type Window struct {
	Date    string
	EndDate string
	Start   time.Time
	End     time.Time
}

// ParseDate parses a local calendar date in the operational timezone.
func ParseDate(clock *Clock, value string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, value, clock.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, value)
	}
	return day, nil
}

// ResolveWindow resolves a daily HH:mm start/end pair against a local
// calendar date. When the end time is not after the start time the window
// wraps past midnight and the end moment advances exactly one calendar day
// (overnight shift).
func ResolveWindow(clock *Clock, date string, startOfDay string, endOfDay string) (Window, error) {
	day, err := ParseDate(clock, date)
	if err != nil {
		return Window{}, err
	}

	startClock, err := time.Parse(TimeOfDayLayout, startOfDay)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrBadTimeOfDay, startOfDay)
	}
	endClock, err := time.Parse(TimeOfDayLayout, endOfDay)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrBadTimeOfDay, endOfDay)
	}

	loc := clock.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(),
		startClock.Hour(), startClock.Minute(), 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(),
		endClock.Hour(), endClock.Minute(), 0, 0, loc)

	endDate := date
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
		endDate = day.AddDate(0, 0, 1).Format(DateLayout)
	}

	return Window{
		Date:    date,
		EndDate: endDate,
		Start:   start,
		End:     end,
	}, nil
}

// Hours returns the window's duration in fractional hours.
func (w Window) Hours() decimal.Decimal {
	return HoursBetween(w.Start, w.End)
}

// HoursBetween computes fractional hours between two instants at minute
// precision, the billing granularity for worked time.
func HoursBetween(start, end time.Time) decimal.Decimal {
	minutes := int64(end.Sub(start) / time.Minute)
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
}

// StartOfDay returns midnight of the given local date.
func StartOfDay(clock *Clock, date string) (time.Time, error) {
	return ParseDate(clock, date)
}

// EndOfDay returns the first instant after the given local date, i.e.
// midnight of the following day. Used as the exclusive upper bound of a
// date range.
func EndOfDay(clock *Clock, date string) (time.Time, error) {
	day, err := ParseDate(clock, date)
	if err != nil {
		return time.Time{}, err
	}
	return day.AddDate(0, 0, 1), nil
}
