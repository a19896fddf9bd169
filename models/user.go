package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	Base
	Email       string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"type:text;not null" json:"-"`
	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100" json:"last_name"`
	Phone       string     `gorm:"size:30" json:"phone"`
	Bio         string     `gorm:"type:text" json:"bio"`
	AvatarURL   string     `gorm:"size:500" json:"avatar_url"`
	Role        UserRole   `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	Points      int        `gorm:"not null;default:0" json:"points"`
	Status      *bool      `gorm:"default:true" json:"status"` // nil or true = active
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsActive() bool {
	return u.Status == nil || *u.Status
}

func (u *User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
