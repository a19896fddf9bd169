package controllers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignation/worldcourse-backend/models"
	"github.com/ignation/worldcourse-backend/services"
	"github.com/ignation/worldcourse-backend/utils"
)

const maxAttachmentSize = 20 << 20

type SubmitInput struct {
	Answers   []string `json:"answers" binding:"required"`
	TimeSpent int      `json:"timeSpent" binding:"gte=0"`
}

// AssessmentController serves one assessment kind; the same handlers are
// mounted for assignments, quizzes and exams.
type AssessmentController struct {
	Kind models.AssessmentKind
}

func NewAssessmentController(kind models.AssessmentKind) *AssessmentController {
	return &AssessmentController{Kind: kind}
}

func (ac *AssessmentController) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pageFromQuery(c)
	filter := services.AssessmentFilter{Status: c.Query("status"), Page: p}
	if course := c.Query("course"); course != "" {
		id, err := uuid.Parse(course)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid course"})
			return
		}
		filter.CourseID = &id
	}
	list, total, err := services.ListAssessments(c.Request.Context(), getDB(c), actor, ac.Kind, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(list, total, p))
}

func (ac *AssessmentController) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	a, err := services.GetAssessment(c.Request.Context(), getDB(c), actor, ac.Kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (ac *AssessmentController) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input services.AssessmentParams
	if !bindJSON(c, &input) {
		return
	}
	a, err := services.CreateAssessment(c.Request.Context(), getDB(c), actor, ac.Kind, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (ac *AssessmentController) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input services.AssessmentParams
	if !bindJSON(c, &input) {
		return
	}
	a, err := services.UpdateAssessment(c.Request.Context(), getDB(c), actor, ac.Kind, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (ac *AssessmentController) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteAssessment(c.Request.Context(), getDB(c), actor, ac.Kind, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s deleted", ac.Kind)})
}

func (ac *AssessmentController) Submit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input SubmitInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, db := c.Request.Context(), getDB(c)
	sub, a, err := services.SubmitAssessment(ctx, db, services.SubmitInput{
		StudentID:    actor.ID,
		AssessmentID: id,
		Kind:         ac.Kind,
		Answers:      input.Answers,
		TimeSpent:    input.TimeSpent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	services.Background("submission_received", func(ctx context.Context) {
		services.NotifySubmissionReceived(ctx, db, sub, a)
	})
	c.JSON(http.StatusCreated, sub)
}

func (ac *AssessmentController) Grade(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input services.GradeInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, db := c.Request.Context(), getDB(c)
	sub, a, err := services.GradeSubmission(ctx, db, actor, ac.Kind, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	mailer := getMailer(c)
	services.Background("submission_graded", func(ctx context.Context) {
		services.NotifyGraded(ctx, db, mailer, sub, a)
	})
	c.JSON(http.StatusOK, sub)
}

func (ac *AssessmentController) Submissions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	_, subs, err := services.ListSubmissions(c.Request.Context(), getDB(c), actor, ac.Kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subs, "total": len(subs)})
}

func (ac *AssessmentController) ExportSubmissions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	a, subs, err := services.ListSubmissions(c.Request.Context(), getDB(c), actor, ac.Kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	buf, err := services.ExportGradebook(a, subs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.GradebookFilename(a)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (ac *AssessmentController) MySubmissions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	subs, err := services.MySubmissions(c.Request.Context(), getDB(c), actor.ID, ac.Kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subs, "total": len(subs)})
}

// UploadAttachment stores a file answer and returns its URL, to be sent as the
// answer of a file question.
func (ac *AssessmentController) UploadAttachment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	value, exists := c.Get("store")
	if !exists {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": utils.ErrStorageDisabled.Error()})
		return
	}
	store := value.(utils.FileStore)

	ctx := c.Request.Context()
	if _, err := services.GetAssessment(ctx, getDB(c), actor, ac.Kind, id); err != nil {
		respondError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing file"})
		return
	}
	if file.Size > maxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "file exceeds 20MB"})
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	objectPath := fmt.Sprintf("%ss/%s/%s/%s%s", ac.Kind, id, actor.ID, uuid.NewString(), ext)

	url, err := store.Upload(ctx, objectPath, f, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "filename": file.Filename, "size": file.Size})
}
