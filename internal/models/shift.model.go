package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShiftStatus string

const (
	ShiftPending           ShiftStatus = "pending"
	ShiftUpcoming          ShiftStatus = "upcoming"
	ShiftOngoing           ShiftStatus = "ongoing"
	ShiftCompleted         ShiftStatus = "completed"
	ShiftCancelled         ShiftStatus = "cancelled"
	ShiftMissed            ShiftStatus = "missed"
	ShiftEndedEarly        ShiftStatus = "ended_early"
	ShiftOvertimeStarted   ShiftStatus = "overtime_started"
	ShiftOvertimeEnded     ShiftStatus = "overtime_ended"
	ShiftMissedRespond     ShiftStatus = "missed_respond"
	ShiftMissedEndOvertime ShiftStatus = "missed_endovertime"
	ShiftAbsent            ShiftStatus = "absent"
)

// Shift is one concrete per-guard, per-day work interval belonging to an
// order. StartsAt/EndsAt are absolute UTC instants; Date/EndDate are the
// local calendar dates the window was expanded from. EndDate differs from
// Date only for overnight shifts.
type Shift struct {
	BaseUUIDModel
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderId"`
	Order      Order           `gorm:"foreignKey:OrderID"       json:"order"`
	Date       string          `gorm:"type:date;not null;index" json:"date"`
	EndDate    string          `gorm:"type:date;not null"       json:"endDate"`
	StartsAt   time.Time       `gorm:"not null"                 json:"startsAt"`
	EndsAt     time.Time       `gorm:"not null"                 json:"endsAt"`
	Status     ShiftStatus     `gorm:"type:text;not null;default:'pending';index" json:"status"`
	TotalHours decimal.Decimal `gorm:"type:numeric(6,2)"        json:"totalHours"`

	Assignments []Assignment `gorm:"foreignKey:ShiftID" json:"assignments,omitempty"`
}

// TimeDerived reports whether the stored status may be overwritten by the
// pure time derivation. Clock events and guard responses own every other
// state.
func (s ShiftStatus) TimeDerived() bool {
	return s == ShiftPending || s == ShiftUpcoming || s == ShiftOngoing
}

// IsTerminal reports whether no further transitions apply to the shift.
func (s ShiftStatus) IsTerminal() bool {
	switch s {
	case ShiftCompleted, ShiftCancelled, ShiftMissed, ShiftEndedEarly,
		ShiftOvertimeEnded, ShiftMissedRespond, ShiftMissedEndOvertime, ShiftAbsent:
		return true
	}
	return false
}
