package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ignation/worldcourse-backend/models"
)

// NowFunc is the clock used for due dates and grading stamps.
var NowFunc = time.Now

const maxInsertRetries = 3

type SubmitInput struct {
	StudentID    uuid.UUID
	AssessmentID uuid.UUID
	Kind         models.AssessmentKind // empty matches any kind
	Answers      []string
	TimeSpent    int
}

// SubmitAssessment records one attempt of a student, auto-grades it and applies
// the late penalty. The attempt limit is enforced inside the insert transaction
// and backed by the (assessment, student, attempt) unique index.
func SubmitAssessment(ctx context.Context, db *gorm.DB, in SubmitInput) (*models.Submission, *models.Assessment, error) {
	a, err := loadAssessment(ctx, db, in.AssessmentID, in.Kind)
	if err != nil {
		return nil, nil, err
	}
	if !a.IsActive() {
		return nil, nil, ErrNotActive
	}
	enrolled, err := IsEnrolled(ctx, db, a.CourseID, in.StudentID)
	if err != nil {
		return nil, nil, err
	}
	if !enrolled {
		return nil, nil, ErrNotEnrolled
	}

	now := NowFunc()
	late := a.IsPastDue(now)
	if late && !a.AllowLate {
		return nil, nil, ErrPastDue
	}

	res := AutoGrade(a.Questions, in.Answers)
	sub := &models.Submission{
		AssessmentID: a.ID,
		StudentID:    in.StudentID,
		Answers:      in.Answers,
		TimeSpent:    in.TimeSpent,
		Score:        res.Score,
		TotalPoints:  res.TotalPoints,
		Percentage:   res.Percentage,
		Status:       models.SubmissionSubmitted,
		Grading:      res.Entries,
		SubmittedAt:  now,
	}
	if sub.Answers == nil {
		sub.Answers = []string{}
	}
	if late {
		penalty := clampFraction(a.LatePenalty)
		sub.Status = models.SubmissionLate
		sub.PenaltyApplied = penalty
		sub.Score = res.Score * (1 - penalty)
		sub.Percentage = Percentage(sub.Score, res.TotalPoints)
	}

	for try := 0; try < maxInsertRetries; try++ {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Submission{}).
				Where("assessment_id = ? AND student_id = ?", a.ID, in.StudentID).
				Count(&count).Error; err != nil {
				return err
			}
			if int(count) >= a.Attempts {
				return ErrMaxAttempts
			}
			sub.ID = uuid.Nil
			sub.AttemptNumber = int(count) + 1
			return tx.Omit(clause.Associations).Create(sub).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrMaxAttempts) {
				return nil, nil, ErrMaxAttempts
			}
			return nil, nil, errors.Wrap(err, "recording submission")
		}
		return sub, a, nil
	}
	return nil, nil, ErrAttemptConflict
}

type GradeInput struct {
	SubmissionID    uuid.UUID       `json:"submissionId" binding:"required"`
	Grading         []GradeOverride `json:"grading" binding:"required"`
	TeacherComments []string        `json:"teacherComments"`
}

// GradeSubmission replaces the grading of a submission with the instructor's decisions.
func GradeSubmission(ctx context.Context, db *gorm.DB, actor Actor, kind models.AssessmentKind, assessmentID uuid.UUID, in GradeInput) (*models.Submission, *models.Assessment, error) {
	a, err := loadAssessment(ctx, db, assessmentID, kind)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanManage(a.Course) {
		return nil, nil, ErrForbidden
	}

	var sub models.Submission
	if err := db.WithContext(ctx).
		First(&sub, "id = ? AND assessment_id = ?", in.SubmissionID, a.ID).Error; err != nil {
		return nil, nil, notFound(err, "loading submission")
	}

	entries, score, err := ApplyOverrides(a.Questions, in.Grading)
	if err != nil {
		return nil, nil, err
	}

	total := a.TotalPoints
	if total <= 0 {
		for _, q := range a.Questions {
			total += q.Points
		}
	}
	now := NowFunc()
	graderID := actor.ID
	comments := in.TeacherComments
	if comments == nil {
		comments = []string{}
	}

	sub.Grading = entries
	sub.Score = score
	sub.TotalPoints = total
	sub.Percentage = Percentage(score, total)
	sub.TeacherComments = comments
	sub.Status = models.SubmissionGraded
	sub.GradedAt = &now
	sub.GradedBy = &graderID

	if err := db.WithContext(ctx).Model(&sub).
		Select("grading", "score", "total_points", "percentage", "teacher_comments", "status", "graded_at", "graded_by").
		Updates(&sub).Error; err != nil {
		return nil, nil, errors.Wrap(err, "saving grading")
	}
	return &sub, a, nil
}

func loadAssessment(ctx context.Context, db *gorm.DB, id uuid.UUID, kind models.AssessmentKind) (*models.Assessment, error) {
	var a models.Assessment
	q := db.WithContext(ctx).
		Preload("Course").
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("id = ?", id)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.First(&a).Error; err != nil {
		return nil, notFound(err, "loading assessment")
	}
	return &a, nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
