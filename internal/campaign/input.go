package campaign

import (
	"fmt"
	"net/mail"
	"strings"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/types"
)

const maxDurationMinutes = 5

// AgentInput carries the fields that shape a campaign's interviewer.
type AgentInput struct {
	Title           string      `json:"title"`
	Topic           types.Topic `json:"topic"`
	AITone          types.Tone  `json:"ai_tone"`
	DurationMinutes int         `json:"duration_minutes"`
	WelcomeMessage  string      `json:"welcome_message"`
}

type CampaignInput struct {
	AgentInput
	TargetEmployees []string             `json:"target_employees"`
	IsAnonymous     bool                 `json:"is_anonymous"`
	Status          types.CampaignStatus `json:"status"`
	StartDate       string               `json:"start_date"`
	CreatedBy       string               `json:"-"`
}

// Validate checks required fields in a fixed order so the first missing one
// is reported.
func (in AgentInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Missing("title")
	}
	if in.Topic == "" {
		return apperr.Missing("topic")
	}
	if !in.Topic.Valid() {
		return apperr.Validation("topic", fmt.Sprintf("unknown topic %q", in.Topic))
	}
	if in.AITone == "" {
		return apperr.Missing("ai_tone")
	}
	if !in.AITone.Valid() {
		return apperr.Validation("ai_tone", fmt.Sprintf("unknown tone %q", in.AITone))
	}
	if in.DurationMinutes == 0 {
		return apperr.Missing("duration_minutes")
	}
	if in.DurationMinutes < 0 || in.DurationMinutes > maxDurationMinutes {
		return apperr.Validation("duration_minutes", fmt.Sprintf("duration_minutes must be between 1 and %d", maxDurationMinutes))
	}
	return nil
}

// normalize validates the campaign and returns its cleaned target list.
func (in CampaignInput) normalize() ([]string, types.CampaignStatus, error) {
	if err := in.AgentInput.Validate(); err != nil {
		return nil, "", err
	}
	emails, err := NormalizeEmails(in.TargetEmployees)
	if err != nil {
		return nil, "", err
	}
	status := in.Status
	switch status {
	case "":
		status = types.CampaignDraft
	case types.CampaignDraft, types.CampaignActive:
	default:
		return nil, "", apperr.Validation("status", "status must be Draft or Active on create")
	}
	return emails, status, nil
}

// NormalizeEmails trims, lower-cases and de-duplicates addresses, keeping
// first-seen order.
func NormalizeEmails(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, raw := range in {
		e := strings.ToLower(strings.TrimSpace(raw))
		if e == "" {
			continue
		}
		if !validEmail(e) {
			return nil, apperr.Validation("target_employees", fmt.Sprintf("invalid email %q", raw))
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, apperr.Missing("target_employees")
	}
	return out, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
