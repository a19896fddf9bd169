package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
	"github.com/ignation/worldcourse-backend/ws"
)

// CreateNotification persists n and pushes the new unread count to the recipient.
func CreateNotification(ctx context.Context, db *gorm.DB, n *models.Notification) error {
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return errors.Wrap(err, "creating notification")
	}
	pushBadge(ctx, db, n.UserID)
	return nil
}

func ListNotifications(ctx context.Context, db *gorm.DB, userID uuid.UUID, p Page) ([]models.Notification, int64, error) {
	q := db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "counting notifications")
	}
	var list []models.Notification
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&list).Error; err != nil {
		return nil, 0, errors.Wrap(err, "listing notifications")
	}
	return list, total, nil
}

func UnreadCount(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}

func MarkNotificationRead(ctx context.Context, db *gorm.DB, userID, id uuid.UUID) error {
	var n models.Notification
	if err := db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return notFound(err, "loading notification")
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	now := NowFunc()
	if err := db.WithContext(ctx).Model(&n).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error; err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	pushBadge(ctx, db, userID)
	return nil
}

func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, userID uuid.UUID) error {
	now := NowFunc()
	if err := db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error; err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	ws.SendBadgeUpdate(userID.String(), 0)
	return nil
}

func DeleteNotification(ctx context.Context, db *gorm.DB, userID, id uuid.UUID) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting notification")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	pushBadge(ctx, db, userID)
	return nil
}

func pushBadge(ctx context.Context, db *gorm.DB, userID uuid.UUID) {
	count, err := UnreadCount(ctx, db, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("badge update skipped")
		return
	}
	ws.SendBadgeUpdate(userID.String(), count)
}

// NotifySubmissionReceived tells the course instructor about a new submission.
// Failures are logged; the submission is already stored.
func NotifySubmissionReceived(ctx context.Context, db *gorm.DB, sub *models.Submission, a *models.Assessment) {
	if a.Course == nil {
		return
	}
	assessmentID, submissionID := a.ID, sub.ID
	url := fmt.Sprintf("/%ss/%s/submissions", a.Kind, a.ID)
	n := &models.Notification{
		UserID:       a.Course.InstructorID,
		Title:        "New submission",
		Message:      fmt.Sprintf("A new submission (attempt %d) was received for %q", sub.AttemptNumber, a.Title),
		Type:         models.NotifySubmissionReceived,
		AssessmentID: &assessmentID,
		SubmissionID: &submissionID,
		RelatedURL:   &url,
	}
	if err := CreateNotification(ctx, db, n); err != nil {
		log.Warn().Err(err).Str("submission_id", sub.ID.String()).Msg("submission notification failed")
	}
}

// NotifyGraded tells the student their submission was graded: a stored
// notification, a websocket event and an email.
func NotifyGraded(ctx context.Context, db *gorm.DB, mailer Mailer, sub *models.Submission, a *models.Assessment) {
	assessmentID, submissionID := a.ID, sub.ID
	url := fmt.Sprintf("/%ss/%s", a.Kind, a.ID)
	n := &models.Notification{
		UserID:       sub.StudentID,
		Title:        "Submission graded",
		Message:      fmt.Sprintf("Your submission for %q was graded: %d%%", a.Title, sub.Percentage),
		Type:         models.NotifySubmissionGraded,
		AssessmentID: &assessmentID,
		SubmissionID: &submissionID,
		RelatedURL:   &url,
	}
	if err := CreateNotification(ctx, db, n); err != nil {
		log.Warn().Err(err).Str("submission_id", sub.ID.String()).Msg("grading notification failed")
	}

	ws.SendEvent(sub.StudentID.String(), "submission_graded", map[string]interface{}{
		"submission_id": sub.ID,
		"assessment_id": a.ID,
		"kind":          a.Kind,
		"score":         sub.Score,
		"percentage":    sub.Percentage,
	})

	student, err := GetUser(ctx, db, sub.StudentID)
	if err != nil {
		log.Warn().Err(err).Str("student_id", sub.StudentID.String()).Msg("grading mail skipped")
		return
	}
	Dispatch(mailer, Message{
		ToName:  student.FullName(),
		ToEmail: student.Email,
		Subject: fmt.Sprintf("%s graded", a.Title),
		Text: fmt.Sprintf("Hi %s, your submission for %q was graded. Score: %g/%g (%d%%).",
			student.FirstName, a.Title, sub.Score, sub.TotalPoints, sub.Percentage),
	})
}

// NotifyEnrolled confirms new enrollments to the buyer.
func NotifyEnrolled(ctx context.Context, db *gorm.DB, userID uuid.UUID, enrollments []models.CourseEnrollment) {
	for _, e := range enrollments {
		course, err := GetCourse(ctx, db, e.CourseID)
		if err != nil {
			continue
		}
		url := "/courses/" + course.Slug
		n := &models.Notification{
			UserID:     userID,
			Title:      "Enrollment confirmed",
			Message:    fmt.Sprintf("You are now enrolled in %q", course.Title),
			Type:       models.NotifyEnrollment,
			RelatedURL: &url,
		}
		if err := CreateNotification(ctx, db, n); err != nil {
			log.Warn().Err(err).Str("course_id", e.CourseID.String()).Msg("enrollment notification failed")
		}
	}
}
