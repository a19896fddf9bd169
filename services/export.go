package services

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ignation/worldcourse-backend/models"
)

const gradebookSheet = "Gradebook"

// ExportGradebook writes one row per submission into an .xlsx workbook.
func ExportGradebook(a *models.Assessment, subs []models.Submission) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", gradebookSheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	header := []interface{}{"Student", "Email", "Attempt", "Status", "Score", "Total", "Percentage", "Penalty", "Time spent (s)", "Submitted at", "Graded at"}
	if err := f.SetSheetRow(gradebookSheet, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	if err := f.SetRowStyle(gradebookSheet, 1, 1, bold); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	for i, s := range subs {
		name, email := "", ""
		if s.Student != nil {
			name, email = s.Student.FullName(), s.Student.Email
		}
		graded := ""
		if s.GradedAt != nil {
			graded = s.GradedAt.UTC().Format("2006-01-02 15:04")
		}
		row := []interface{}{
			name, email, s.AttemptNumber, string(s.Status),
			s.Score, s.TotalPoints, s.Percentage, s.PenaltyApplied, s.TimeSpent,
			s.SubmittedAt.UTC().Format("2006-01-02 15:04"), graded,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrapf(err, "addressing row %d", i+2)
		}
		if err := f.SetSheetRow(gradebookSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	if err := f.SetColWidth(gradebookSheet, "A", "B", 28); err != nil {
		return nil, errors.Wrap(err, "sizing name columns")
	}
	if err := f.SetColWidth(gradebookSheet, "J", "K", 18); err != nil {
		return nil, errors.Wrap(err, "sizing date columns")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encoding workbook")
	}
	return buf, nil
}

func GradebookFilename(a *models.Assessment) string {
	return fmt.Sprintf("%s-%s-gradebook.xlsx", a.Kind, a.ID.String()[:8])
}
