package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/ignation/worldcourse-backend/models"
)

type GradeResult struct {
	Score       float64
	TotalPoints float64
	Percentage  int
	Entries     []models.GradingEntry
	Pending     int // questions left for manual grading
}

// OrderedQuestions returns a copy of qs sorted by position.
func OrderedQuestions(qs []models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	copy(out, qs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// AutoGrade scores the objective questions of an answer set. answers[i] answers
// the i-th question in position order; missing answers score zero.
func AutoGrade(questions []models.Question, answers []string) GradeResult {
	qs := OrderedQuestions(questions)
	res := GradeResult{Entries: make([]models.GradingEntry, 0, len(qs))}

	for i, q := range qs {
		res.TotalPoints += q.Points
		entry := models.GradingEntry{QuestionIndex: i, MaxPoints: q.Points}

		switch q.Type {
		case models.QuestionMultipleChoice:
			answer := ""
			if i < len(answers) {
				answer = answers[i]
			}
			correct := answer != "" && answer == q.CorrectAnswer
			if correct {
				entry.PointsAwarded = q.Points
			}
			entry.IsCorrect = &correct
			entry.Status = models.GradeAuto
		default:
			entry.Status = models.GradePending
			res.Pending++
		}

		res.Score += entry.PointsAwarded
		res.Entries = append(res.Entries, entry)
	}

	res.Percentage = Percentage(res.Score, res.TotalPoints)
	return res
}

func Percentage(score, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(score / total * 100))
}

// GradeOverride is one instructor decision for one question.
type GradeOverride struct {
	QuestionIndex int     `json:"questionIndex"`
	PointsAwarded float64 `json:"pointsAwarded"`
	Comments      string  `json:"comments"`
}

// ApplyOverrides validates overrides against the question list and builds the
// replacement grading. Questions without an override are not carried over.
func ApplyOverrides(questions []models.Question, overrides []GradeOverride) ([]models.GradingEntry, float64, error) {
	qs := OrderedQuestions(questions)
	verr := NewValidationError("invalid grading")
	seen := make(map[int]bool, len(overrides))

	entries := make([]models.GradingEntry, 0, len(overrides))
	var score float64
	for i, o := range overrides {
		field := fmt.Sprintf("grading[%d]", i)
		if o.QuestionIndex < 0 || o.QuestionIndex >= len(qs) {
			verr.Add(field+".questionIndex", "question index out of range")
			continue
		}
		if seen[o.QuestionIndex] {
			verr.Add(field+".questionIndex", "question graded twice")
			continue
		}
		seen[o.QuestionIndex] = true

		q := qs[o.QuestionIndex]
		if o.PointsAwarded < 0 || o.PointsAwarded > q.Points {
			verr.Add(field+".pointsAwarded", fmt.Sprintf("must be between 0 and %g", q.Points))
			continue
		}
		entries = append(entries, models.GradingEntry{
			QuestionIndex: o.QuestionIndex,
			MaxPoints:     q.Points,
			PointsAwarded: o.PointsAwarded,
			Status:        models.GradeManual,
			Comments:      o.Comments,
		})
		score += o.PointsAwarded
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].QuestionIndex < entries[j].QuestionIndex })
	return entries, score, nil
}
