package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ignation/worldcourse-backend/config"
	"github.com/ignation/worldcourse-backend/models"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Email:     fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		Password:  "x",
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createCourse(t *testing.T, db *gorm.DB, instructor *models.User) *models.Course {
	t.Helper()
	c := &models.Course{
		Title:        "Physics",
		Slug:         "physics-" + uuid.NewString()[:8],
		Published:    true,
		InstructorID: instructor.ID,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func enroll(t *testing.T, db *gorm.DB, course *models.Course, student *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.CourseEnrollment{CourseID: course.ID, UserID: student.ID}).Error)
}

type assessmentOpt func(*models.Assessment)

func createAssessment(t *testing.T, db *gorm.DB, course *models.Course, kind models.AssessmentKind, questions []models.Question, opts ...assessmentOpt) *models.Assessment {
	t.Helper()
	a := &models.Assessment{
		CourseID:  course.ID,
		Kind:      kind,
		Title:     "Unit test " + string(kind),
		Status:    models.StatusAvailable,
		Published: true,
		Attempts:  1,
		CreatedBy: course.InstructorID,
		Questions: questions,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.SumPoints()
	require.NoError(t, db.Create(a).Error)
	return a
}

func mcq(pos int, correct string, points float64) models.Question {
	return models.Question{
		Position:      pos,
		Type:          models.QuestionMultipleChoice,
		Prompt:        fmt.Sprintf("Q%d", pos+1),
		Options:       []string{"A", "B", "C"},
		CorrectAnswer: correct,
		Points:        points,
	}
}

func textQ(pos int, points float64) models.Question {
	return models.Question{Position: pos, Type: models.QuestionText, Prompt: "Explain", Points: points}
}

// freezeClock pins NowFunc for the duration of the test.
func freezeClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := NowFunc
	NowFunc = func() time.Time { return now }
	t.Cleanup(func() { NowFunc = prev })
}

var ctx = context.Background()

// staleSubmissionCounts makes the next n submission counts on db read 0, as if
// another request had not committed yet. n < 0 stales every count.
func staleSubmissionCounts(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	remaining := n
	err := db.Callback().Query().After("gorm:query").Register("test:stale_submission_count", func(tx *gorm.DB) {
		count, ok := tx.Statement.Dest.(*int64)
		if !ok || tx.Statement.Table != "submissions" || remaining == 0 {
			return
		}
		if remaining > 0 {
			remaining--
		}
		*count = 0
	})
	require.NoError(t, err)
}
