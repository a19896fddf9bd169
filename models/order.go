package models

import "github.com/google/uuid"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	Base
	UserID uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Total  float64     `gorm:"type:numeric(10,2);default:0" json:"total"`
	Items  []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;" json:"items"`
}

type OrderItem struct {
	Base
	OrderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null" json:"course_id"`
	Price    float64   `gorm:"type:numeric(10,2);default:0" json:"price"`
	Course   *Course   `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
}
