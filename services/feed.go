package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
)

const (
	FeedQuiz        = "quiz"
	FeedAssignment  = "assignment"
	FeedExam        = "exam"
	FeedLiveSession = "live-session"
	FeedLeaderboard = "leaderboard"
)

type FeedItem struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Icon         string     `json:"icon"`
	Color        string     `json:"color"`
	Time         string     `json:"time"`
	AssessmentID *uuid.UUID `json:"assessment_id,omitempty"`
	CourseID     *uuid.UUID `json:"course_id,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`

	at time.Time
}

type FeedInput struct {
	Assessments      []models.Assessment
	Completed        map[uuid.UUID]bool // assessments the student already submitted
	IncludeReminders bool
}

var feedStyle = map[string]struct{ icon, color string }{
	FeedQuiz:        {"fa-question-circle", "#4f46e5"},
	FeedAssignment:  {"fa-tasks", "#f59e0b"},
	FeedExam:        {"fa-file-alt", "#dc2626"},
	FeedLiveSession: {"fa-video", "#10b981"},
	FeedLeaderboard: {"fa-trophy", "#eab308"},
}

// BuildFeed turns a student's visible assessments into feed items.
// Quizzes come first, then assignments, then exams, each newest first,
// followed by the reminders.
func BuildFeed(in FeedInput, now time.Time) []FeedItem {
	groups := map[models.AssessmentKind][]FeedItem{}
	for i := range in.Assessments {
		a := &in.Assessments[i]
		if !a.IsActive() {
			continue
		}
		if a.Kind == models.KindAssignment && in.Completed[a.ID] {
			continue
		}
		item := feedItemFor(a, now)
		if item.Type == "" {
			continue
		}
		groups[a.Kind] = append(groups[a.Kind], item)
	}

	feed := make([]FeedItem, 0, len(in.Assessments)+2)
	for _, kind := range []models.AssessmentKind{models.KindQuiz, models.KindAssignment, models.KindExam} {
		items := groups[kind]
		sort.SliceStable(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
		feed = append(feed, items...)
	}

	if in.IncludeReminders {
		feed = append(feed,
			styled(FeedItem{
				ID:      "reminder-live-session",
				Type:    FeedLiveSession,
				Title:   "Live session",
				Message: "Join the upcoming live session with your instructor",
			}),
			styled(FeedItem{
				ID:      "reminder-leaderboard",
				Type:    FeedLeaderboard,
				Title:   "Leaderboard",
				Message: "Check your ranking on the leaderboard",
			}),
		)
	}
	return feed
}

func feedItemFor(a *models.Assessment, now time.Time) FeedItem {
	id, courseID := a.ID, a.CourseID
	item := FeedItem{
		ID:           a.ID.String(),
		Title:        a.Title,
		AssessmentID: &id,
		CourseID:     &courseID,
		DueDate:      a.DueDate,
		Time:         TimeAgo(a.UpdatedAt, now),
		at:           a.UpdatedAt,
	}
	switch a.Kind {
	case models.KindQuiz:
		item.Type = FeedQuiz
		item.Message = fmt.Sprintf("New quiz available: %s", a.Title)
	case models.KindAssignment:
		item.Type = FeedAssignment
		if a.DueDate != nil {
			item.Message = fmt.Sprintf("Assignment due %s: %s", a.DueDate.Format("Jan 2"), a.Title)
		} else {
			item.Message = fmt.Sprintf("New assignment: %s", a.Title)
		}
	case models.KindExam:
		item.Type = FeedExam
		item.Message = fmt.Sprintf("Upcoming exam: %s", a.Title)
	default:
		return FeedItem{}
	}
	return styled(item)
}

func styled(item FeedItem) FeedItem {
	s := feedStyle[item.Type]
	item.Icon, item.Color = s.icon, s.color
	return item
}

// TimeAgo renders the distance between t and now for humans.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	}
	return plural(int(d/(365*24*time.Hour)), "year")
}

// LoadFeed reads the student's enrolled-course assessments and submissions and builds the feed.
func LoadFeed(ctx context.Context, db *gorm.DB, studentID uuid.UUID, includeReminders bool) ([]FeedItem, error) {
	db = db.WithContext(ctx)

	var assessments []models.Assessment
	if err := db.
		Where("course_id IN (?)", db.Model(&models.CourseEnrollment{}).Select("course_id").Where("user_id = ?", studentID)).
		Where("published = ? AND status = ?", true, models.StatusAvailable).
		Find(&assessments).Error; err != nil {
		return nil, errors.Wrap(err, "loading feed assessments")
	}

	var done []uuid.UUID
	if err := db.Model(&models.Submission{}).
		Where("student_id = ?", studentID).
		Distinct("assessment_id").
		Pluck("assessment_id", &done).Error; err != nil {
		return nil, errors.Wrap(err, "loading completed assessments")
	}
	completed := make(map[uuid.UUID]bool, len(done))
	for _, id := range done {
		completed[id] = true
	}

	return BuildFeed(FeedInput{
		Assessments:      assessments,
		Completed:        completed,
		IncludeReminders: includeReminders,
	}, NowFunc()), nil
}
