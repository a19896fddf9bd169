package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the uuid primary key and timestamps shared by every table.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All lists the models handed to AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Order{},
		&OrderItem{},
		&CourseEnrollment{},
		&Assessment{},
		&Question{},
		&Submission{},
		&TodoList{},
		&Task{},
		&Notification{},
	}
}
