package dataset

import (
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Roster struct {
	Emails  []string `json:"emails"`
	Skipped []string `json:"skipped"`
}

// LoadRoster reads employee emails from the first sheet of an xlsx workbook.
// The email column is found by header heuristics; without a recognizable
// header the first column holding an address is used and row 1 is data.
func LoadRoster(r io.Reader) (Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Roster{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Roster{}, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Roster{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return Roster{}, fmt.Errorf("no data rows")
	}

	emailIdx := -1
	start := 1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		if looksLikeEmail(h) {
			break
		}
		if strings.Contains(l, "email") || strings.Contains(l, "e-mail") || strings.Contains(l, "mail") {
			emailIdx = i
			break
		}
	}
	// fallback: first cell that parses as an address
	if emailIdx == -1 {
		start = 0
		for _, row := range rows {
			for i, cell := range row {
				if looksLikeEmail(cell) {
					emailIdx = i
					break
				}
			}
			if emailIdx != -1 {
				break
			}
		}
	}
	if emailIdx == -1 {
		return Roster{}, fmt.Errorf("no email column")
	}

	out := Roster{Emails: []string{}, Skipped: []string{}}
	seen := map[string]bool{}
	for _, row := range rows[start:] {
		if emailIdx >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[emailIdx])
		if raw == "" {
			continue
		}
		email := strings.ToLower(raw)
		if !looksLikeEmail(email) {
			out.Skipped = append(out.Skipped, raw)
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		out.Emails = append(out.Emails, email)
	}
	return out, nil
}

func looksLikeEmail(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "@") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
