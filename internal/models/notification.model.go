package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifyShiftAssigned       NotificationType = "shift_assigned"
	NotifyShiftResponse       NotificationType = "shift_response"
	NotifyShiftChangeRequest  NotificationType = "shift_change_request"
	NotifyShiftChangeResolved NotificationType = "shift_change_resolved"
	NotifyOrderStatus         NotificationType = "order_status"
)

// Notification is one delivered message per recipient. Rows persist so
// guards who were offline still see what they were sent.
type Notification struct {
	BaseUUIDModel
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index" json:"recipientId"`
	Recipient   User             `gorm:"foreignKey:RecipientID"   json:"recipient"`
	Title       string           `gorm:"type:text;not null"       json:"title"`
	Message     string           `gorm:"type:text"                json:"message"`
	Type        NotificationType `gorm:"type:text;not null"       json:"type"`
	Data        datatypes.JSON   `gorm:"type:jsonb"               json:"data"`
	ReadAt      *time.Time       `gorm:"type:timestamp"           json:"readAt,omitempty"`
}
