package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionLate      SubmissionStatus = "late"
	SubmissionGraded    SubmissionStatus = "graded"
)

const (
	GradeAuto    = "auto-graded"
	GradePending = "Pending manual grading"
	GradeManual  = "graded"
)

// GradingEntry is the per-question grading detail of a submission.
type GradingEntry struct {
	QuestionIndex int     `json:"question_index"`
	MaxPoints     float64 `json:"max_points"`
	PointsAwarded float64 `json:"points_awarded"`
	IsCorrect     *bool   `json:"is_correct,omitempty"`
	Status        string  `json:"status"`
	Comments      string  `json:"comments,omitempty"`
}

// Submission is one attempt of one student at an assessment.
// (assessment, student, attempt) is unique so a racing duplicate attempt is rejected by the store.
type Submission struct {
	Base
	AssessmentID    uuid.UUID                         `gorm:"type:uuid;not null;uniqueIndex:idx_submission_attempt" json:"assessment_id"`
	StudentID       uuid.UUID                         `gorm:"type:uuid;not null;uniqueIndex:idx_submission_attempt;index" json:"student_id"`
	AttemptNumber   int                               `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"attempt_number"`
	Answers         datatypes.JSONSlice[string]       `json:"answers"`
	TimeSpent       int                               `gorm:"default:0" json:"time_spent"` // seconds
	Score           float64                           `gorm:"type:numeric(8,2);default:0" json:"score"`
	TotalPoints     float64                           `gorm:"type:numeric(8,2);default:0" json:"total_points"`
	Percentage      int                               `gorm:"default:0" json:"percentage"`
	Status          SubmissionStatus                  `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	PenaltyApplied  float64                           `gorm:"type:numeric(4,3);default:0" json:"penalty_applied"`
	Grading         datatypes.JSONSlice[GradingEntry] `json:"grading"`
	TeacherComments datatypes.JSONSlice[string]       `json:"teacher_comments"`
	SubmittedAt     time.Time                         `json:"submitted_at"`
	GradedAt        *time.Time                        `json:"graded_at,omitempty"`
	GradedBy        *uuid.UUID                        `gorm:"type:uuid" json:"graded_by,omitempty"`

	Student    *User       `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE;" json:"student,omitempty"`
	Assessment *Assessment `gorm:"foreignKey:AssessmentID;references:ID" json:"assessment,omitempty"`
}
