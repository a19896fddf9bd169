package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
)

type QuestionParams struct {
	Type          models.QuestionType `json:"type" binding:"required,oneof=multiple-choice text file"`
	Prompt        string              `json:"prompt" binding:"required"`
	Options       []string            `json:"options"`
	CorrectAnswer string              `json:"correct_answer"`
	Points        float64             `json:"points" binding:"gte=0"`
}

type AssessmentParams struct {
	CourseID    uuid.UUID               `json:"course_id" binding:"required"`
	Title       string                  `json:"title" binding:"required,max=255"`
	Description string                  `json:"description"`
	Status      models.AssessmentStatus `json:"status" binding:"omitempty,oneof=draft available closed"`
	Published   bool                    `json:"published"`
	Attempts    int                     `json:"attempts" binding:"omitempty,min=1"`
	DueDate     *time.Time              `json:"due_date"`
	AllowLate   bool                    `json:"allow_late"`
	LatePenalty float64                 `json:"late_penalty" binding:"gte=0,lte=1"`
	TimeLimit   int                     `json:"time_limit" binding:"gte=0"`
	Questions   []QuestionParams        `json:"questions" binding:"omitempty,dive"`
}

type AssessmentFilter struct {
	CourseID *uuid.UUID
	Status   string
	Page
}

func buildQuestions(params []QuestionParams) ([]models.Question, error) {
	verr := NewValidationError("invalid questions")
	out := make([]models.Question, 0, len(params))
	for i, p := range params {
		field := fmt.Sprintf("questions[%d]", i)
		if p.Type == models.QuestionMultipleChoice {
			if len(p.Options) < 2 {
				verr.Add(field+".options", "multiple-choice questions need at least two options")
			} else if !contains(p.Options, p.CorrectAnswer) {
				verr.Add(field+".correct_answer", "must be one of the options")
			}
		}
		points := p.Points
		if points == 0 {
			points = 1
		}
		out = append(out, models.Question{
			Position:      i,
			Type:          p.Type,
			Prompt:        strings.TrimSpace(p.Prompt),
			Options:       p.Options,
			CorrectAnswer: p.CorrectAnswer,
			Points:        points,
		})
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func CreateAssessment(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, p AssessmentParams) (*models.Assessment, error) {
	course, err := GetCourse(ctx, db, p.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(course) {
		return nil, ErrForbidden
	}
	questions, err := buildQuestions(p.Questions)
	if err != nil {
		return nil, err
	}

	a := &models.Assessment{
		CourseID:    course.ID,
		Kind:        kind,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Status:      p.Status,
		Published:   p.Published,
		Attempts:    p.Attempts,
		DueDate:     p.DueDate,
		AllowLate:   p.AllowLate,
		LatePenalty: p.LatePenalty,
		TimeLimit:   p.TimeLimit,
		CreatedBy:   actor.ID,
		Questions:   questions,
	}
	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if a.Attempts == 0 {
		a.Attempts = 1
	}
	a.SumPoints()

	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, errors.Wrap(err, "creating assessment")
	}
	return a, nil
}

// ListAssessments returns the assessments of a kind visible to the actor:
// students see published ones of their enrolled courses, teachers those of
// the courses they teach, admins everything.
func ListAssessments(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, f AssessmentFilter) ([]models.Assessment, int64, error) {
	db = db.WithContext(ctx)
	q := db.Model(&models.Assessment{}).Where("kind = ?", kind)
	switch {
	case actor.IsAdmin():
	case actor.Role == models.RoleTeacher:
		q = q.Where("course_id IN (?)", db.Model(&models.Course{}).Select("id").Where("instructor_id = ?", actor.ID))
	default:
		q = q.Where("published = ?", true).
			Where("course_id IN (?)", db.Model(&models.CourseEnrollment{}).Select("course_id").Where("user_id = ?", actor.ID))
	}
	if f.CourseID != nil {
		q = q.Where("course_id = ?", *f.CourseID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "counting assessments")
	}
	var list []models.Assessment
	if err := q.Order("created_at DESC").Offset(f.Offset()).Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, 0, errors.Wrap(err, "listing assessments")
	}
	return list, total, nil
}

// GetAssessment loads an assessment with its questions. Correct answers are
// blanked for anyone who cannot manage the course.
func GetAssessment(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, id uuid.UUID) (*models.Assessment, error) {
	a, err := loadAssessment(ctx, db, id, kind)
	if err != nil {
		return nil, err
	}
	if actor.CanManage(a.Course) {
		return a, nil
	}
	if !a.Published {
		return nil, ErrNotFound
	}
	enrolled, err := IsEnrolled(ctx, db, a.CourseID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	for i := range a.Questions {
		a.Questions[i].CorrectAnswer = ""
	}
	return a, nil
}

func UpdateAssessment(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, id uuid.UUID, p AssessmentParams) (*models.Assessment, error) {
	a, err := loadAssessment(ctx, db, id, kind)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(a.Course) {
		return nil, ErrForbidden
	}

	var questions []models.Question
	if p.Questions != nil {
		if questions, err = buildQuestions(p.Questions); err != nil {
			return nil, err
		}
	}

	status := p.Status
	if status == "" {
		status = a.Status
	}
	attempts := p.Attempts
	if attempts == 0 {
		attempts = a.Attempts
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":        strings.TrimSpace(p.Title),
			"description":  p.Description,
			"status":       status,
			"published":    p.Published,
			"attempts":     attempts,
			"due_date":     p.DueDate,
			"allow_late":   p.AllowLate,
			"late_penalty": p.LatePenalty,
			"time_limit":   p.TimeLimit,
		}
		if questions != nil {
			var subs int64
			if err := tx.Model(&models.Submission{}).Where("assessment_id = ?", a.ID).Count(&subs).Error; err != nil {
				return err
			}
			if subs > 0 {
				verr := NewValidationError("questions cannot change once submissions exist")
				verr.Add("questions", "assessment already has submissions")
				return verr
			}
			if err := tx.Where("assessment_id = ?", a.ID).Delete(&models.Question{}).Error; err != nil {
				return err
			}
			var total float64
			for i := range questions {
				questions[i].AssessmentID = a.ID
				total += questions[i].Points
			}
			if len(questions) > 0 {
				if err := tx.Create(&questions).Error; err != nil {
					return err
				}
			}
			updates["total_points"] = total
		}
		return tx.Model(&models.Assessment{}).Where("id = ?", a.ID).Updates(updates).Error
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, errors.Wrap(err, "updating assessment")
	}
	return loadAssessment(ctx, db, id, kind)
}

func DeleteAssessment(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, id uuid.UUID) error {
	a, err := loadAssessment(ctx, db, id, kind)
	if err != nil {
		return err
	}
	if !actor.CanManage(a.Course) {
		return ErrForbidden
	}
	if err := db.WithContext(ctx).Select("Questions", "Submissions").Delete(&models.Assessment{Base: models.Base{ID: a.ID}}).Error; err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return nil
}

// ListSubmissions returns every submission of an assessment for its instructor.
func ListSubmissions(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, id uuid.UUID) (*models.Assessment, []models.Submission, error) {
	a, err := loadAssessment(ctx, db, id, kind)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanManage(a.Course) {
		return nil, nil, ErrForbidden
	}
	var subs []models.Submission
	if err := db.WithContext(ctx).Preload("Student").
		Where("assessment_id = ?", a.ID).
		Order("submitted_at DESC").
		Find(&subs).Error; err != nil {
		return nil, nil, errors.Wrap(err, "listing submissions")
	}
	return a, subs, nil
}

func MySubmissions(ctx context.Context, db *gorm.DB, studentID uuid.UUID, kind models.AssessmentKind, id uuid.UUID) ([]models.Submission, error) {
	if _, err := loadAssessment(ctx, db, id, kind); err != nil {
		return nil, err
	}
	var subs []models.Submission
	if err := db.WithContext(ctx).
		Where("assessment_id = ? AND student_id = ?", id, studentID).
		Order("attempt_number ASC").
		Find(&subs).Error; err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	return subs, nil
}
