package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// ShiftChangeRequest is a guard's proposal to alter a shift's time window.
// At most one pending request may exist per (shift, guard); the partial
// index enforcing that lives in the migration.
type ShiftChangeRequest struct {
	BaseUUIDModel
	ShiftID           uuid.UUID           `gorm:"type:uuid;not null;index" json:"shiftId"`
	Shift             Shift               `gorm:"foreignKey:ShiftID"       json:"shift"`
	RequestedByID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"requestedById"`
	RequestedBy       User                `gorm:"foreignKey:RequestedByID" json:"requestedBy"`
	RequestedDate     string              `gorm:"type:date;not null"       json:"requestedDate"`
	RequestedEndDate  string              `gorm:"type:date;not null"       json:"requestedEndDate"`
	RequestedStartsAt time.Time           `gorm:"not null"                 json:"requestedStartsAt"`
	RequestedEndsAt   time.Time           `gorm:"not null"                 json:"requestedEndsAt"`
	Reason            string              `gorm:"type:text"                json:"reason"`
	Status            ChangeRequestStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`
	AdminComment      string              `gorm:"type:text"                json:"adminComment"`
}
