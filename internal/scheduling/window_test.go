package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZone = "Asia/Karachi"

func testClock(t *testing.T, at time.Time) *Clock {
	t.Helper()
	clock, err := NewClockAt(testZone, at)
	require.NoError(t, err)
	return clock
}

func TestResolveWindow(t *testing.T) {
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name       string
		date       string
		start, end string
		wantEnd    string // end instant in operational time, RFC3339-ish
		wantEndDay string
		wantHours  string
	}{
		{
			name:       "same-day window",
			date:       "2024-06-10",
			start:      "09:00",
			end:        "17:00",
			wantEnd:    "2024-06-10 17:00",
			wantEndDay: "2024-06-10",
			wantHours:  "8",
		},
		{
			name:       "overnight window rolls end to next day",
			date:       "2024-06-10",
			start:      "22:00",
			end:        "06:00",
			wantEnd:    "2024-06-11 06:00",
			wantEndDay: "2024-06-11",
			wantHours:  "8",
		},
		{
			name:       "equal start and end is a full day",
			date:       "2024-06-10",
			start:      "08:00",
			end:        "08:00",
			wantEnd:    "2024-06-11 08:00",
			wantEndDay: "2024-06-11",
			wantHours:  "24",
		},
		{
			name:       "fractional hours",
			date:       "2024-06-10",
			start:      "09:15",
			end:        "17:45",
			wantEnd:    "2024-06-10 17:45",
			wantEndDay: "2024-06-10",
			wantHours:  "8.5",
		},
		{
			name:       "one minute past midnight still overnight",
			date:       "2024-12-31",
			start:      "23:30",
			end:        "00:30",
			wantEnd:    "2025-01-01 00:30",
			wantEndDay: "2025-01-01",
			wantHours:  "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := ResolveWindow(clock, tt.date, tt.start, tt.end)
			require.NoError(t, err)

			assert.Equal(t, tt.date, window.Date)
			assert.Equal(t, tt.wantEndDay, window.EndDate)
			assert.Equal(t, tt.wantEnd, window.End.Format("2006-01-02 15:04"))
			assert.True(t, window.End.After(window.Start), "end must be after start")
			assert.Equal(t, tt.wantHours, window.Hours().String())
		})
	}
}

func TestResolveWindowOvernightIsExactly24hLater(t *testing.T) {
	// The overnight end instant must be exactly 24h after the naive same-day
	// interpretation of the end time.
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	window, err := ResolveWindow(clock, "2024-06-10", "22:00", "06:00")
	require.NoError(t, err)

	naive := time.Date(2024, 6, 10, 6, 0, 0, 0, clock.Location())
	assert.Equal(t, naive.Add(24*time.Hour), window.End)
}

func TestResolveWindowErrors(t *testing.T) {
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name             string
		date, start, end string
		wantErr          error
	}{
		{"bad date", "10-06-2024", "09:00", "17:00", ErrBadDate},
		{"bad start time", "2024-06-10", "9am", "17:00", ErrBadTimeOfDay},
		{"bad end time", "2024-06-10", "09:00", "25:61", ErrBadTimeOfDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveWindow(clock, tt.date, tt.start, tt.end)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHoursBetween(t *testing.T) {
	start := time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "8", HoursBetween(start, start.Add(8*time.Hour)).String())
	assert.Equal(t, "0.25", HoursBetween(start, start.Add(15*time.Minute)).String())
	assert.Equal(t, "10.5", HoursBetween(start, start.Add(10*time.Hour+30*time.Minute)).String())
}

func TestEndOfDayIsNextMidnight(t *testing.T) {
	clock := testClock(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	end, err := EndOfDay(clock, "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11 00:00", end.Format("2006-01-02 15:04"))
}
