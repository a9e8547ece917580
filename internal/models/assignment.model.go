package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
)

// Assignment links one guard to one shift and carries the guard's response
// plus recorded clock events. Unique per (shift, guard).
type Assignment struct {
	BaseUUIDModel
	ShiftID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_shift_guard" json:"shiftId"`
	Shift           Shift           `gorm:"foreignKey:ShiftID"  json:"shift"`
	GuardID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_shift_guard;index" json:"guardId"`
	Guard           User            `gorm:"foreignKey:GuardID"  json:"guard"`
	Response        ResponseStatus  `gorm:"type:text;not null;default:'pending'" json:"response"`
	ClockInAt       *time.Time      `gorm:"type:timestamp"      json:"clockInAt,omitempty"`
	ClockOutAt      *time.Time      `gorm:"type:timestamp"      json:"clockOutAt,omitempty"`
	TotalHours      decimal.Decimal `gorm:"type:numeric(6,2)"   json:"totalHours"`
	OvertimeStartAt *time.Time      `gorm:"type:timestamp"      json:"overtimeStartAt,omitempty"`
	OvertimeEndAt   *time.Time      `gorm:"type:timestamp"      json:"overtimeEndAt,omitempty"`
	OvertimeHours   decimal.Decimal `gorm:"type:numeric(6,2)"   json:"overtimeHours"`
}

// Responded reports whether the guard already gave a terminal response. A
// guard may respond exactly once.
func (a *Assignment) Responded() bool {
	return a.Response == ResponseAccepted || a.Response == ResponseRejected
}

// BillableFact is the fact exposed to billing collaborators for each
// completed assignment.
type BillableFact struct {
	GuardID       uuid.UUID       `json:"guardId"`
	ShiftID       uuid.UUID       `json:"shiftId"`
	TotalHours    decimal.Decimal `json:"totalHours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
}

// ToBillableFact builds the billable-hours record for the assignment.
func (a *Assignment) ToBillableFact() BillableFact {
	return BillableFact{
		GuardID:       a.GuardID,
		ShiftID:       a.ShiftID,
		TotalHours:    a.TotalHours,
		OvertimeHours: a.OvertimeHours,
	}
}
