package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ServiceType string

const (
	ServiceStatic ServiceType = "static"
	ServicePatrol ServiceType = "patrol"
	ServiceEvent  ServiceType = "event"
	ServiceEscort ServiceType = "escort"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderUpcoming  OrderStatus = "upcoming"
	OrderOngoing   OrderStatus = "ongoing"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderMissed    OrderStatus = "missed"
)

// GeoPoint is stored as a JSON column on the order's location.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Order is a client's request for guard service over a date range. Dates are
// local calendar dates in the operational timezone, stored independently of
// any UTC instant so day boundaries never drift.
type Order struct {
	BaseUUIDModel
	ClientID        uuid.UUID      `gorm:"type:uuid;not null;index"  json:"clientId"`
	Client          User           `gorm:"foreignKey:ClientID"       json:"client"`
	ServiceType     ServiceType    `gorm:"type:text;not null"        json:"serviceType"`
	LocationName    string         `gorm:"type:text;not null"        json:"locationName"`
	LocationAddress string         `gorm:"type:text"                 json:"locationAddress"`
	LocationPoint   datatypes.JSON `gorm:"type:jsonb"                json:"locationPoint"`
	GuardsRequired  int            `gorm:"not null;default:1"        json:"guardsRequired"`
	StartDate       string         `gorm:"type:date;not null"        json:"startDate"`
	EndDate         *string        `gorm:"type:date"                 json:"endDate,omitempty"`
	DailyStartTime  *string        `gorm:"type:text"                 json:"dailyStartTime,omitempty"`
	DailyEndTime    *string        `gorm:"type:text"                 json:"dailyEndTime,omitempty"`
	Status          OrderStatus    `gorm:"type:text;not null;default:'pending';index" json:"status"`
	Images          datatypes.JSON `gorm:"type:jsonb"                json:"images"`

	Shifts []Shift `gorm:"foreignKey:OrderID" json:"shifts,omitempty"`
}

// IsTerminal reports whether the order can no longer change status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// TimeDerived reports whether the status may be recomputed from the clock.
// Pending orders are excluded: they only leave pending through an operator
// accept or cancel action. Missed orders are excluded too, a late accept
// stays missed instead of being re-derived to ongoing or completed.
func (s OrderStatus) TimeDerived() bool {
	return s == OrderUpcoming || s == OrderOngoing
}
