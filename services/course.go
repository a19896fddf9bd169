package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
)

type CourseParams struct {
	Title        string     `json:"title" binding:"required,max=255"`
	Description  string     `json:"description"`
	Subject      string     `json:"subject" binding:"max=100"`
	Level        string     `json:"level" binding:"max=50"`
	Price        float64    `json:"price" binding:"gte=0"`
	Published    bool       `json:"published"`
	InstructorID *uuid.UUID `json:"instructor_id"` // admins may assign another teacher
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type CourseFilter struct {
	Subject       string
	Level         string
	Search        string
	PublishedOnly bool
	Page
}

func CreateCourse(ctx context.Context, db *gorm.DB, actor Actor, p CourseParams) (*models.Course, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	instructor := actor.ID
	if p.InstructorID != nil && actor.IsAdmin() {
		instructor = *p.InstructorID
	}

	db = db.WithContext(ctx)
	s, err := uniqueSlug(db, p.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}
	course := &models.Course{
		Title:        strings.TrimSpace(p.Title),
		Slug:         s,
		Description:  p.Description,
		Subject:      p.Subject,
		Level:        p.Level,
		Price:        p.Price,
		Published:    p.Published,
		InstructorID: instructor,
	}
	if err := db.Create(course).Error; err != nil {
		return nil, errors.Wrap(err, "creating course")
	}
	return course, nil
}

// uniqueSlug derives a slug from title, suffixing -2, -3... when taken.
func uniqueSlug(db *gorm.DB, title string, exclude uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "course"
	}
	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := db.Model(&models.Course{}).
			Where("slug = ? AND id <> ?", candidate, exclude).
			Count(&count).Error; err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func ListCourses(ctx context.Context, db *gorm.DB, f CourseFilter) ([]models.Course, int64, error) {
	q := db.WithContext(ctx).Model(&models.Course{})
	if f.PublishedOnly {
		q = q.Where("published = ?", true)
	}
	if f.Subject != "" {
		q = q.Where("subject = ?", f.Subject)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "counting courses")
	}
	var courses []models.Course
	if err := q.Preload("Instructor").
		Order("created_at DESC").
		Offset(f.Offset()).Limit(f.Limit).
		Find(&courses).Error; err != nil {
		return nil, 0, errors.Wrap(err, "listing courses")
	}
	return courses, total, nil
}

func GetCourse(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := db.WithContext(ctx).Preload("Instructor").First(&course, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "loading course")
	}
	return &course, nil
}

func UpdateCourse(ctx context.Context, db *gorm.DB, actor Actor, id uuid.UUID, p CourseParams) (*models.Course, error) {
	course, err := GetCourse(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(course) {
		return nil, ErrForbidden
	}

	db = db.WithContext(ctx)
	updates := map[string]interface{}{
		"title":       strings.TrimSpace(p.Title),
		"description": p.Description,
		"subject":     p.Subject,
		"level":       p.Level,
		"price":       p.Price,
		"published":   p.Published,
	}
	if updates["title"] != course.Title {
		s, err := uniqueSlug(db, p.Title, course.ID)
		if err != nil {
			return nil, err
		}
		updates["slug"] = s
	}
	if p.InstructorID != nil && actor.IsAdmin() {
		updates["instructor_id"] = *p.InstructorID
	}
	if err := db.Model(&models.Course{}).Where("id = ?", course.ID).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "updating course")
	}
	return GetCourse(ctx, db, id)
}

func DeleteCourse(ctx context.Context, db *gorm.DB, actor Actor, id uuid.UUID) error {
	course, err := GetCourse(ctx, db, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(course) {
		return ErrForbidden
	}
	var sold int64
	if err := db.WithContext(ctx).Model(&models.OrderItem{}).Where("course_id = ?", id).Count(&sold).Error; err != nil {
		return errors.Wrap(err, "checking orders")
	}
	if sold > 0 {
		verr := NewValidationError("course has been purchased and cannot be deleted")
		verr.Add("id", "unpublish the course instead")
		return verr
	}
	if err := db.WithContext(ctx).Select("Assessments", "Enrollments").Delete(course).Error; err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

// CourseStudents lists the enrollments of a course with their users.
func CourseStudents(ctx context.Context, db *gorm.DB, actor Actor, id uuid.UUID) ([]models.CourseEnrollment, error) {
	course, err := GetCourse(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(course) {
		return nil, ErrForbidden
	}
	var list []models.CourseEnrollment
	if err := db.WithContext(ctx).Preload("User").
		Where("course_id = ?", id).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	return list, nil
}

func UpdateProgress(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID, progress float64) (*models.CourseEnrollment, error) {
	if progress < 0 || progress > 100 {
		verr := NewValidationError("invalid progress")
		verr.Add("progress", "must be between 0 and 100")
		return nil, verr
	}
	db = db.WithContext(ctx)
	var enrollment models.CourseEnrollment
	if err := db.First(&enrollment, "course_id = ? AND user_id = ?", courseID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, errors.Wrap(err, "loading enrollment")
	}
	if err := db.Model(&enrollment).Update("progress", progress).Error; err != nil {
		return nil, errors.Wrap(err, "updating progress")
	}
	return &enrollment, nil
}

func IsEnrolled(ctx context.Context, db *gorm.DB, courseID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.CourseEnrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return count > 0, nil
}
