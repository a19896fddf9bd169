package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignation/worldcourse-backend/services"
)

type ProgressInput struct {
	Progress *float64 `json:"progress" binding:"required"`
}

func GetCourses(c *gin.Context) {
	actor, _ := currentActor(c)
	p := pageFromQuery(c)
	filter := services.CourseFilter{
		Subject:       c.Query("subject"),
		Level:         c.Query("level"),
		Search:        c.Query("search"),
		PublishedOnly: !actor.IsStaff(),
		Page:          p,
	}
	courses, total, err := services.ListCourses(c.Request.Context(), getDB(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(courses, total, p))
}

func GetCourse(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	course, err := services.GetCourse(c.Request.Context(), getDB(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if actor, _ := currentActor(c); !course.Published && !actor.CanManage(course) {
		respondError(c, services.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, course)
}

func CreateCourse(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input services.CourseParams
	if !bindJSON(c, &input) {
		return
	}
	course, err := services.CreateCourse(c.Request.Context(), getDB(c), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func UpdateCourse(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input services.CourseParams
	if !bindJSON(c, &input) {
		return
	}
	course, err := services.UpdateCourse(c.Request.Context(), getDB(c), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func DeleteCourse(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteCourse(c.Request.Context(), getDB(c), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "course deleted"})
}

func GetCourseStudents(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	list, err := services.CourseStudents(c.Request.Context(), getDB(c), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

func UpdateCourseProgress(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input ProgressInput
	if !bindJSON(c, &input) {
		return
	}
	enrollment, err := services.UpdateProgress(c.Request.Context(), getDB(c), actor.ID, id, *input.Progress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}
