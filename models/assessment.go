package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssessmentKind string

const (
	KindAssignment AssessmentKind = "assignment"
	KindQuiz       AssessmentKind = "quiz"
	KindExam       AssessmentKind = "exam"
)

type AssessmentStatus string

const (
	StatusDraft     AssessmentStatus = "draft"
	StatusAvailable AssessmentStatus = "available"
	StatusClosed    AssessmentStatus = "closed"
)

// Assessment is an assignment, quiz or exam of a course.
type Assessment struct {
	Base
	CourseID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      *Course          `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Kind        AssessmentKind   `gorm:"type:varchar(20);not null;index" json:"kind"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Status      AssessmentStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Published   bool             `gorm:"default:false" json:"published"`
	Attempts    int              `gorm:"not null;default:1" json:"attempts"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	AllowLate   bool             `gorm:"default:false" json:"allow_late"`
	LatePenalty float64          `gorm:"type:numeric(4,3);default:0" json:"late_penalty"` // fraction removed from late scores
	TimeLimit   int              `gorm:"default:0" json:"time_limit"`                     // minutes, 0 = unlimited
	TotalPoints float64          `gorm:"type:numeric(8,2);default:0" json:"total_points"`
	CreatedBy   uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`

	Questions   []Question   `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE;" json:"questions,omitempty"`
	Submissions []Submission `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (a *Assessment) IsActive() bool {
	return a.Published && a.Status == StatusAvailable
}

func (a *Assessment) IsPastDue(now time.Time) bool {
	return a.DueDate != nil && now.After(*a.DueDate)
}

// SumPoints recomputes TotalPoints from the question list.
func (a *Assessment) SumPoints() float64 {
	var total float64
	for _, q := range a.Questions {
		total += q.Points
	}
	a.TotalPoints = total
	return total
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionText           QuestionType = "text"
	QuestionFile           QuestionType = "file"
)

type Question struct {
	Base
	AssessmentID  uuid.UUID                   `gorm:"type:uuid;not null;index" json:"assessment_id"`
	Position      int                         `gorm:"not null;default:0" json:"position"`
	Type          QuestionType                `gorm:"type:varchar(20);not null" json:"type"`
	Prompt        string                      `gorm:"type:text;not null" json:"prompt"`
	Options       datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectAnswer string                      `gorm:"type:text" json:"correct_answer,omitempty"` // sample answer for text questions
	Points        float64                     `gorm:"type:numeric(6,2);default:1" json:"points"`
}
