package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleGuard    Role = "guard"
	RoleOperator Role = "operator"
	RoleClient   Role = "client"
)

type User struct {
	BaseUUIDModel
	FirstName   string     `gorm:"type:text"               json:"firstName"`
	LastName    string     `gorm:"type:text"               json:"lastName"`
	FullName    string     `gorm:"type:text"               json:"fullName"`
	Email       *string    `gorm:"type:text;uniqueIndex"   json:"email"`
	Phone       string     `gorm:"type:text"               json:"phone"`
	Role        Role       `gorm:"type:text;not null;default:'guard';index" json:"role"`
	IsActive    bool       `gorm:"type:bool;default:true"  json:"isActive"`
	LastLoginAt *time.Time `gorm:"type:timestamp"          json:"lastLoginAt,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.FullName == "" {
		u.FullName = u.FirstName + " " + u.LastName
	}
	return nil
}

func (u *User) IsGuard() bool {
	return u.Role == RoleGuard
}

func (u *User) IsOperator() bool {
	return u.Role == RoleOperator
}

// UserProfile represents public user profile information
type UserProfile struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	FullName  string  `json:"fullName"`
	Email     *string `json:"email,omitempty"`
	Phone     string  `json:"phone"`
	Role      Role    `json:"role"`
	IsActive  bool    `json:"isActive"`
}

// ToProfile converts a User to a UserProfile (public information only)
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}
