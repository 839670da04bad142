package dataset

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"hrvoice-go/internal/types"
)

const resultsSheet = "Results"

var resultsHeader = []any{
	"Employee Email", "Employee Name", "Status", "Started At", "Completed At",
	"Duration (s)", "Sentiment Score", "Sentiment", "Urgent", "Key Themes",
	"Summary", "Recommended Actions",
}

// ExportResults writes one row per session of c into an xlsx workbook.
// Employee names are omitted for anonymous campaigns.
func ExportResults(c types.Campaign, sessions []types.Session, label func(float64) string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &resultsHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(resultsSheet, 1, 1, style)
	}

	for i, s := range sessions {
		name := s.EmployeeName
		if c.IsAnonymous {
			name = ""
		}
		score, sentiment := "", ""
		if s.SentimentScore != nil {
			score = fmt.Sprintf("%.2f", *s.SentimentScore)
			if label != nil {
				sentiment = label(*s.SentimentScore)
			}
		}
		urgent := "No"
		if s.UrgencyFlag {
			urgent = "Yes"
		}
		row := []any{
			s.EmployeeEmail, name, string(s.Status), stamp(s.StartedAt), stamp(s.CompletedAt),
			s.DurationSeconds, score, sentiment, urgent, strings.Join(s.KeyThemes, ", "),
			s.Summary, strings.Join(s.RecommendedActions, "; "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename is the download name for a campaign export.
func ExportFilename(c types.Campaign) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, c.Title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = c.ID
	}
	return slug + "-results.xlsx"
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
