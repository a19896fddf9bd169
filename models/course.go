package models

import "github.com/google/uuid"

type Course struct {
	Base
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Subject      string    `gorm:"size:100;index" json:"subject"`
	Level        string    `gorm:"size:50" json:"level"`
	Price        float64   `gorm:"type:numeric(10,2);default:0" json:"price"`
	Published    bool      `gorm:"default:false" json:"published"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor   *User     `gorm:"foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`

	Assessments []Assessment       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"assessments,omitempty"`
	Enrollments []CourseEnrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"enrollments,omitempty"`
}

// CourseEnrollment is the authorisation gate for a course's assessments.
type CourseEnrollment struct {
	Base
	CourseID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_user" json:"course_id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_user;index" json:"user_id"`
	OrderID  *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	Progress float64    `gorm:"type:numeric(5,2);default:0" json:"progress"` // 0..100

	Course *Course `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	User   *User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}
