package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
	"github.com/ignation/worldcourse-backend/services"
	"github.com/ignation/worldcourse-backend/utils"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func getDB(c *gin.Context) *gorm.DB {
	return c.MustGet("db").(*gorm.DB)
}

func getMailer(c *gin.Context) services.Mailer {
	if m, ok := c.Get("mailer"); ok {
		if mailer, ok := m.(services.Mailer); ok {
			return mailer
		}
	}
	return nil
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		return services.Actor{}, false
	}
	return services.Actor{ID: id, Role: models.UserRole(c.GetString("role"))}, true
}

// mustActor writes a 401 and returns false when the caller is unknown.
func mustActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
	}
	return actor, ok
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func pageFromQuery(c *gin.Context) services.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return services.Page{Page: page, Limit: limit}
}

func paginated(data interface{}, total int64, p services.Page) gin.H {
	return gin.H{"data": data, "total": total, "page": p.Page, "limit": p.Limit}
}

// normalizer is implemented by inputs that clean their fields before validation.
type normalizer interface {
	Normalize()
}

// bindJSON decodes the body into dst, normalizes it and validates it, answering
// 400 with field errors on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || json.NewDecoder(c.Request.Body).Decode(dst) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "malformed request body"})
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "validation failed",
				"errors":  utils.TranslateValidation(verrs),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "malformed request body"})
		return false
	}
	return true
}

// respondError maps a service error onto the HTTP error envelope.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Error
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": verr.Error(), "errors": fields})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotEnrolled),
		errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, services.ErrAttemptConflict):
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, services.ErrNotActive),
		errors.Is(err, services.ErrMaxAttempts),
		errors.Is(err, services.ErrPastDue),
		errors.Is(err, services.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	default:
		utils.ReportError(err, map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"user_id": c.GetString("user_id"),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
	}
}
