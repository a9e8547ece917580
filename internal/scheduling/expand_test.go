package scheduling

import (
	"testing"
	"time"

	. "guardpost/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandOvernightSingleDayTwoGuards(t *testing.T) {
	// Order with startDate=2024-06-10, no endDate, dailyStart=22:00,
	// dailyEnd=06:00, two guards: two shifts, each 22:00 -> 06:00 next day,
	// 8 hours.
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	guardA := uuid.New()
	guardB := uuid.New()
	intents, err := Expand(clock, ExpansionRequest{
		OrderID:        uuid.New(),
		StartDate:      "2024-06-10",
		DailyStartTime: "22:00",
		DailyEndTime:   "06:00",
		GuardIDs:       []uuid.UUID{guardA, guardB},
	})
	require.NoError(t, err)
	require.Len(t, intents, 2)

	loc := clock.Location()
	for _, intent := range intents {
		assert.Equal(t, "2024-06-10", intent.Date)
		assert.Equal(t, "2024-06-11", intent.EndDate)
		assert.Equal(t, "2024-06-10 22:00", intent.StartsAt.In(loc).Format("2006-01-02 15:04"))
		assert.Equal(t, "2024-06-11 06:00", intent.EndsAt.In(loc).Format("2006-01-02 15:04"))
		assert.Equal(t, "8", intent.TotalHours.String())
		assert.Equal(t, ShiftPending, intent.Status)
		assert.Equal(t, time.UTC, intent.StartsAt.Location())
	}
	assert.Equal(t, guardA, intents[0].GuardID)
	assert.Equal(t, guardB, intents[1].GuardID)
}

func TestExpandMultiDayProducesDaysTimesGuards(t *testing.T) {
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	guards := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	intents, err := Expand(clock, ExpansionRequest{
		OrderID:        uuid.New(),
		StartDate:      "2024-06-10",
		EndDate:        "2024-06-14", // 5 days inclusive
		DailyStartTime: "22:00",
		DailyEndTime:   "06:00",
		GuardIDs:       guards,
	})
	require.NoError(t, err)
	require.Len(t, intents, 5*3)

	// Exactly one intent per (day, guard) pair, overnight rollover applied
	// independently for every day.
	seen := make(map[string]bool)
	for _, intent := range intents {
		key := intent.Date + "/" + intent.GuardID.String()
		assert.False(t, seen[key], "duplicate (day, guard) pair %s", key)
		seen[key] = true

		day, err := ParseDate(clock, intent.Date)
		require.NoError(t, err)
		assert.Equal(t, day.AddDate(0, 0, 1).Format(DateLayout), intent.EndDate)
		assert.Equal(t, "8", intent.TotalHours.String())
	}
}

func TestExpandPastWindowIsBornCompleted(t *testing.T) {
	// Scheduling after the window already elapsed creates completed shifts.
	clock := testClock(t, time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC))

	intents, err := Expand(clock, ExpansionRequest{
		OrderID:        uuid.New(),
		StartDate:      "2024-06-10",
		EndDate:        "2024-06-11",
		DailyStartTime: "09:00",
		DailyEndTime:   "17:00",
		GuardIDs:       []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	require.Len(t, intents, 2)

	for _, intent := range intents {
		assert.Equal(t, ShiftCompleted, intent.Status)
	}
}

func TestExpandStillPendingWhileWindowOpen(t *testing.T) {
	// Mid-window scheduling: end has not elapsed, so the shift is pending
	// until the guard responds.
	clock := testClock(t, time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC))

	intents, err := Expand(clock, ExpansionRequest{
		OrderID:        uuid.New(),
		StartDate:      "2024-06-10",
		DailyStartTime: "22:00",
		DailyEndTime:   "06:00",
		GuardIDs:       []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, ShiftPending, intents[0].Status)
}

func TestExpandValidation(t *testing.T) {
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	guard := []uuid.UUID{uuid.New()}

	tests := []struct {
		name    string
		req     ExpansionRequest
		wantErr error
	}{
		{
			"missing order",
			ExpansionRequest{StartDate: "2024-06-10", DailyStartTime: "09:00", DailyEndTime: "17:00", GuardIDs: guard},
			ErrMissingOrder,
		},
		{
			"missing daily start",
			ExpansionRequest{OrderID: uuid.New(), StartDate: "2024-06-10", DailyEndTime: "17:00", GuardIDs: guard},
			ErrMissingWindow,
		},
		{
			"missing daily end",
			ExpansionRequest{OrderID: uuid.New(), StartDate: "2024-06-10", DailyStartTime: "09:00", GuardIDs: guard},
			ErrMissingWindow,
		},
		{
			"no guards",
			ExpansionRequest{OrderID: uuid.New(), StartDate: "2024-06-10", DailyStartTime: "09:00", DailyEndTime: "17:00"},
			ErrNoGuards,
		},
		{
			"bad start date",
			ExpansionRequest{OrderID: uuid.New(), StartDate: "nope", DailyStartTime: "09:00", DailyEndTime: "17:00", GuardIDs: guard},
			ErrBadDate,
		},
		{
			"end date before start date",
			ExpansionRequest{OrderID: uuid.New(), StartDate: "2024-06-10", EndDate: "2024-06-09", DailyStartTime: "09:00", DailyEndTime: "17:00", GuardIDs: guard},
			ErrDateOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(clock, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
