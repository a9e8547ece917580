package scheduling

import (
	"testing"
	"time"

	. "guardpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveShiftStatus(t *testing.T) {
	start := time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want ShiftStatus
	}{
		{"well before start", start.Add(-24 * time.Hour), ShiftUpcoming},
		{"one second before start", start.Add(-time.Second), ShiftUpcoming},
		{"exactly at start", start, ShiftOngoing},
		{"mid shift", start.Add(4 * time.Hour), ShiftOngoing},
		{"one second before end", end.Add(-time.Second), ShiftOngoing},
		{"exactly at end", end, ShiftCompleted},
		{"long after end", end.Add(48 * time.Hour), ShiftCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveShiftStatus(tt.now, start, end))
		})
	}
}

func TestDeriveShiftStatusIsTotal(t *testing.T) {
	// Every instant maps to exactly one of the three derived states.
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	for offset := -2 * time.Hour; offset <= 10*time.Hour; offset += 13 * time.Minute {
		got := DeriveShiftStatus(start.Add(offset), start, end)
		assert.Contains(t, []ShiftStatus{ShiftUpcoming, ShiftOngoing, ShiftCompleted}, got)
	}
}

func TestDeriveOrderStatus(t *testing.T) {
	end := "2024-06-12"

	tests := []struct {
		name      string
		now       string // operational local time
		startDate string
		endDate   *string
		want      OrderStatus
	}{
		{"day before range", "2024-06-09 23:59", "2024-06-10", &end, OrderUpcoming},
		{"midnight of start day", "2024-06-10 00:00", "2024-06-10", &end, OrderOngoing},
		{"inside range", "2024-06-11 12:00", "2024-06-10", &end, OrderOngoing},
		{"last minute of end day", "2024-06-12 23:59", "2024-06-10", &end, OrderOngoing},
		{"midnight after end day", "2024-06-13 00:00", "2024-06-10", &end, OrderCompleted},
		{"no endDate defaults to startDate", "2024-06-11 00:00", "2024-06-10", nil, OrderCompleted},
		{"no endDate still ongoing on start day", "2024-06-10 15:00", "2024-06-10", nil, OrderOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, err := NewClock(testZone)
			require.NoError(t, err)

			now, err := time.ParseInLocation("2006-01-02 15:04", tt.now, clock.Location())
			require.NoError(t, err)

			got, err := DeriveOrderStatus(clock, now, tt.startDate, tt.endDate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveOrderStatusBadDate(t *testing.T) {
	clock, err := NewClock(testZone)
	require.NoError(t, err)

	_, err = DeriveOrderStatus(clock, time.Now(), "June 10th", nil)
	assert.ErrorIs(t, err, ErrBadDate)
}
