package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifySubmissionReceived = "submission_received"
	NotifySubmissionGraded   = "submission_graded"
	NotifyEnrollment         = "enrollment"
)

type Notification struct {
	Base
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	Title   string    `gorm:"size:255;not null" json:"title"`
	Message string    `gorm:"type:text;not null" json:"message"`
	Type    string    `gorm:"size:50" json:"type"`
	IsRead  bool      `gorm:"default:false" json:"is_read"`

	AssessmentID *uuid.UUID `gorm:"type:uuid" json:"assessment_id,omitempty"`
	SubmissionID *uuid.UUID `gorm:"type:uuid" json:"submission_id,omitempty"`
	RelatedURL   *string    `gorm:"size:500" json:"related_url,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`
}
