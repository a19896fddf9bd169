package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ignation/worldcourse-backend/config"
	"github.com/ignation/worldcourse-backend/models"
	"github.com/ignation/worldcourse-backend/services"
	"github.com/ignation/worldcourse-backend/utils"
)

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *memStore) Upload(_ context.Context, objectPath string, data io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[objectPath] = b
	return "https://files.test/" + objectPath, nil
}

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	mailer *services.ConsoleMailer
	store  *memStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	services.BcryptCost = bcrypt.MinCost

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	app := &testApp{
		t:      t,
		db:     db,
		mailer: &services.ConsoleMailer{},
		store:  &memStore{files: map[string][]byte{}},
	}
	app.router = SetupRouter(gin.New(), db, Options{Mailer: app.mailer, Store: app.store})
	return app
}

func (a *testApp) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seedUser inserts a user directly and returns a token for it.
func (a *testApp) seedUser(email string, role models.UserRole) (*models.User, string) {
	a.t.Helper()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	u := &models.User{Email: email, Password: string(hashed), FirstName: string(role), Role: role}
	require.NoError(a.t, a.db.Create(u).Error)
	token, err := utils.GenerateToken(u.ID.String(), string(role))
	require.NoError(a.t, err)
	return u, token
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	body := map[string]interface{}{
		"email":      "student@example.com",
		"password":   "secret123",
		"first_name": "Sam",
		"last_name":  "Student",
		"phone":      "555-0101",
	}

	rec := app.request(http.MethodPost, "/api/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode(t, rec)
	assert.Equal(t, true, res["success"])
	assert.NotEmpty(t, res["token"])
	assert.NotContains(t, rec.Body.String(), "secret123")

	rec = app.request(http.MethodPost, "/api/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])

	rec = app.request(http.MethodPost, "/api/register", "", map[string]interface{}{"email": "nope", "password": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "first_name")

	rec = app.request(http.MethodPost, "/api/login", "", map[string]string{"email": "student@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode(t, rec)
	token := res["token"].(string)
	assert.Equal(t, "student", res["user"].(map[string]interface{})["role"])

	rec = app.request(http.MethodPost, "/api/login", "", map[string]string{"email": "student@example.com", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student@example.com", decode(t, rec)["email"])

	assert.Eventually(t, func() bool { return len(app.mailer.SentMessages()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	app := newTestApp(t)
	rec := app.request(http.MethodPost, "/api/register", "", map[string]string{
		"email":      "  Grace@Example.com ",
		"password":   "secret123",
		"first_name": "Grace",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "grace@example.com", decode(t, rec)["user"].(map[string]interface{})["email"])

	rec = app.request(http.MethodPost, "/api/login", "", map[string]string{"email": " GRACE@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request(http.MethodPost, "/api/register", "", map[string]string{"email": "   ", "password": "secret123", "first_name": "Blank"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "email")
}

func TestAdminCreatesTeacher(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser("admin@example.com", models.RoleAdmin)
	_, studentToken := app.seedUser("s@example.com", models.RoleStudent)

	body := map[string]interface{}{"email": "t@example.com", "password": "secret123", "first_name": "Tess", "role": "teacher"}
	assert.Equal(t, http.StatusForbidden, app.request(http.MethodPost, "/api/users", studentToken, body).Code)

	rec := app.request(http.MethodPost, "/api/users", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "teacher", decode(t, rec)["role"])
}

func TestAssessmentWorkflow(t *testing.T) {
	app := newTestApp(t)
	teacher, teacherToken := app.seedUser("teacher@example.com", models.RoleTeacher)
	student, studentToken := app.seedUser("student@example.com", models.RoleStudent)

	rec := app.request(http.MethodPost, "/api/courses", teacherToken, map[string]interface{}{
		"title": "Mechanics", "subject": "physics", "level": "intro", "price": 25, "published": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	course := decode(t, rec)
	courseID := course["id"].(string)
	assert.Equal(t, "mechanics", course["slug"])
	assert.Equal(t, teacher.ID.String(), course["instructor_id"])

	assert.Equal(t, http.StatusForbidden, app.request(http.MethodPost, "/api/quizzes", studentToken, map[string]interface{}{}).Code)

	rec = app.request(http.MethodPost, "/api/quizzes", teacherToken, map[string]interface{}{
		"course_id": courseID,
		"title":     "Forces",
		"status":    "available",
		"published": true,
		"attempts":  1,
		"questions": []map[string]interface{}{
			{"type": "multiple-choice", "prompt": "Unit of force?", "options": []string{"N", "J"}, "correct_answer": "N", "points": 5},
			{"type": "multiple-choice", "prompt": "F = ?", "options": []string{"ma", "mv"}, "correct_answer": "ma", "points": 5},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	quizID := decode(t, rec)["id"].(string)
	quizPath := "/api/quizzes/" + quizID

	submit := map[string]interface{}{"answers": []string{"N", "mv"}, "timeSpent": 90}
	rec = app.request(http.MethodPost, quizPath+"/submit", studentToken, submit)
	assert.Equal(t, http.StatusForbidden, rec.Code, "not enrolled yet")

	rec = app.request(http.MethodPost, "/api/orders", studentToken, map[string]interface{}{"course_ids": []string{courseID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.request(http.MethodGet, "/api/quizzes?course="+courseID, studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = app.request(http.MethodGet, quizPath, studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"correct_answer":"N"`)

	assert.Equal(t, http.StatusNotFound, app.request(http.MethodGet, "/api/exams/"+quizID, studentToken, nil).Code)

	rec = app.request(http.MethodGet, "/api/notifications/feed", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forces")

	rec = app.request(http.MethodPost, quizPath+"/submit", studentToken, submit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode(t, rec)
	assert.EqualValues(t, 5, sub["score"])
	assert.EqualValues(t, 50, sub["percentage"])
	assert.EqualValues(t, 1, sub["attempt_number"])
	subID := sub["id"].(string)

	rec = app.request(http.MethodPost, quizPath+"/submit", studentToken, submit)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrMaxAttempts.Error(), decode(t, rec)["message"])

	grade := map[string]interface{}{
		"submissionId": subID,
		"grading": []map[string]interface{}{
			{"questionIndex": 0, "pointsAwarded": 3},
			{"questionIndex": 1, "pointsAwarded": 5, "comments": "accepted"},
		},
		"teacherComments": []string{"good reasoning"},
	}
	assert.Equal(t, http.StatusForbidden, app.request(http.MethodPut, quizPath+"/grade", studentToken, grade).Code)

	rec = app.request(http.MethodPut, quizPath+"/grade", teacherToken, grade)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	graded := decode(t, rec)
	assert.EqualValues(t, 8, graded["score"])
	assert.EqualValues(t, 80, graded["percentage"])
	assert.Equal(t, "graded", graded["status"])
	assert.Equal(t, teacher.ID.String(), graded["graded_by"])

	bad := map[string]interface{}{"submissionId": subID, "grading": []map[string]interface{}{{"questionIndex": 0, "pointsAwarded": 6}}}
	rec = app.request(http.MethodPut, quizPath+"/grade", teacherToken, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.request(http.MethodGet, quizPath+"/submissions", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = app.request(http.MethodGet, quizPath+"/my-submissions", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = app.request(http.MethodGet, quizPath+"/submissions/export", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	// enrollment + graded, both written after the responses went out
	assert.Eventually(t, func() bool {
		rec := app.request(http.MethodGet, "/api/notifications/unread-count", studentToken, nil)
		var body struct {
			UnreadCount int64 `json:"unread_count"`
		}
		return rec.Code == http.StatusOK && json.Unmarshal(rec.Body.Bytes(), &body) == nil && body.UnreadCount == 2
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		for _, m := range app.mailer.SentMessages() {
			if m.ToEmail == student.Email {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestSubmitConflictIsReported(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.seedUser("teacher@example.com", models.RoleTeacher)
	student, studentToken := app.seedUser("student@example.com", models.RoleStudent)

	course := &models.Course{Title: "Chem", Slug: "chem", Published: true, InstructorID: teacher.ID}
	require.NoError(t, app.db.Create(course).Error)
	require.NoError(t, app.db.Create(&models.CourseEnrollment{CourseID: course.ID, UserID: student.ID}).Error)
	quiz := &models.Assessment{
		CourseID: course.ID, Kind: models.KindQuiz, Title: "Bonds",
		Status: models.StatusAvailable, Published: true, Attempts: 3, CreatedBy: teacher.ID,
		Questions: []models.Question{{Type: models.QuestionMultipleChoice, Prompt: "H2O?", Options: []string{"yes", "no"}, CorrectAnswer: "yes", Points: 1}},
	}
	require.NoError(t, app.db.Create(quiz).Error)
	path := "/api/quizzes/" + quiz.ID.String() + "/submit"

	rec := app.request(http.MethodPost, path, studentToken, map[string]interface{}{"answers": []string{"yes"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Eventually(t, func() bool {
		var n int64
		return app.db.Model(&models.Notification{}).Where("user_id = ?", teacher.ID).Count(&n).Error == nil && n == 1
	}, time.Second, 10*time.Millisecond)

	// every later count misses the committed attempt, so each insert collides
	require.NoError(t, app.db.Callback().Query().After("gorm:query").Register("test:stale_count", func(tx *gorm.DB) {
		if count, ok := tx.Statement.Dest.(*int64); ok && tx.Statement.Table == "submissions" {
			*count = 0
		}
	}))

	rec = app.request(http.MethodPost, path, studentToken, map[string]interface{}{"answers": []string{"no"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, services.ErrAttemptConflict.Error(), decode(t, rec)["message"])
}

func TestAttachmentUpload(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.seedUser("teacher@example.com", models.RoleTeacher)
	student, studentToken := app.seedUser("student@example.com", models.RoleStudent)

	course := &models.Course{Title: "Art", Slug: "art", Published: true, InstructorID: teacher.ID}
	require.NoError(t, app.db.Create(course).Error)
	require.NoError(t, app.db.Create(&models.CourseEnrollment{CourseID: course.ID, UserID: student.ID}).Error)
	hw := &models.Assessment{
		CourseID: course.ID, Kind: models.KindAssignment, Title: "Sketch",
		Status: models.StatusAvailable, Published: true, CreatedBy: teacher.ID,
		Questions: []models.Question{{Type: models.QuestionFile, Prompt: "Upload a sketch", Points: 10}},
	}
	require.NoError(t, app.db.Create(hw).Error)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "sketch.PNG")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/assignments/%s/attachments", hw.ID), &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	url := decode(t, rec)["url"].(string)
	assert.Contains(t, url, "https://files.test/assignments/"+hw.ID.String())
	assert.Contains(t, url, ".png")
	assert.Len(t, app.store.files, 1)
}

func TestTodoRoutes(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedUser("me@example.com", models.RoleStudent)
	_, otherToken := app.seedUser("other@example.com", models.RoleStudent)

	rec := app.request(http.MethodPost, "/api/todos", token, map[string]string{"title": "Exam prep"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listID := decode(t, rec)["id"].(string)

	rec = app.request(http.MethodPost, "/api/todos/"+listID+"/tasks", token, map[string]interface{}{"title": "Past papers", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.request(http.MethodPost, "/api/todos/"+listID+"/tasks", token, map[string]interface{}{"title": "Past papers", "priority": "high"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	taskID := decode(t, rec)["id"].(string)

	rec = app.request(http.MethodPut, "/api/todos/"+listID+"/tasks/"+taskID, token, map[string]interface{}{"title": "Past papers", "completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["completed"])

	assert.Equal(t, http.StatusForbidden, app.request(http.MethodGet, "/api/todos/"+listID, otherToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.request(http.MethodGet, "/api/todos/not-a-uuid", token, nil).Code)

	rec = app.request(http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	assert.Equal(t, http.StatusOK, app.request(http.MethodDelete, "/api/todos/"+listID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.request(http.MethodGet, "/api/todos/"+listID, token, nil).Code)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.request(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.request(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "ok", res["status"])
	db := res["checks"].(map[string]interface{})["database"].(map[string]interface{})
	assert.Equal(t, "up", db["status"])
	assert.Contains(t, res["realtime"], "connections")

	sqlDB, err := app.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec = app.request(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	res = decode(t, rec)
	assert.Equal(t, "degraded", res["status"])
	db = res["checks"].(map[string]interface{})["database"].(map[string]interface{})
	assert.Equal(t, "down", db["status"])
}
