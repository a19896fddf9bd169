package services

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ignation/worldcourse-backend/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrNotActive          = errors.New("assessment is not active")
	ErrNotEnrolled        = errors.New("student is not enrolled in this course")
	ErrMaxAttempts        = errors.New("maximum attempts reached")
	ErrAttemptConflict    = errors.New("concurrent submission, please retry")
	ErrPastDue            = errors.New("due date has passed")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

type FieldError struct {
	Field string
	Error string
}

// ValidationError is a 400 carrying per-field messages.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Error: msg})
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns e only if a field error was added.
func (e *ValidationError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Err: errors.New(msg)}
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleTeacher
}

// CanManage reports whether the actor may edit or grade within the course.
func (a Actor) CanManage(course *models.Course) bool {
	return a.IsAdmin() || (a.Role == models.RoleTeacher && course != nil && course.InstructorID == a.ID)
}
