package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type TodoList struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Tasks       []Task    `gorm:"foreignKey:TodoListID;constraint:OnDelete:CASCADE;" json:"tasks"`
}

type Task struct {
	Base
	TodoListID uuid.UUID    `gorm:"type:uuid;not null;index" json:"todo_list_id"`
	Title      string       `gorm:"size:255;not null" json:"title"`
	Completed  bool         `gorm:"default:false" json:"completed"`
	Priority   TaskPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	DueDate    *time.Time   `json:"due_date,omitempty"`
	Position   int          `gorm:"default:0" json:"position"`
}
