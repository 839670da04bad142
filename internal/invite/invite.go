// Package invite renders employee join links and invitation messages.
package invite

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"hrvoice-go/internal/types"
)

const NotStarted = "Not Started"

type Invite struct {
	Email         string `json:"email"`
	SessionID     string `json:"session_id,omitempty"`
	SessionStatus string `json:"session_status"`
	Link          string `json:"link"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

var bodyTmpl = template.Must(template.New("invite").Parse(`Hello {{.Name}},

You've been invited to participate in a voice interview: "{{.Title}}"

Topic: {{.Topic}}
Duration: {{.Duration}}
Privacy: {{if .Anonymous}}Your responses will be anonymous{{else}}Your responses will be identified{{end}}
{{if .Welcome}}
Message from HR:
{{.Welcome}}
{{end}}
Click here to join your interview:
{{.Link}}

This conversation helps us understand how you're doing and what matters most to you. Your honest feedback drives meaningful improvements.

Best regards,
HR Team`))

// JoinLink builds the employee join page URL. sessionID may be empty.
func JoinLink(baseURL, interviewID, email, sessionID string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString("/EmployeeJoin?id=")
	b.WriteString(url.QueryEscape(interviewID))
	b.WriteString("&email=")
	b.WriteString(url.QueryEscape(email))
	if sessionID != "" {
		b.WriteString("&session=")
		b.WriteString(url.QueryEscape(sessionID))
	}
	return b.String()
}

func Subject(c types.Campaign) string {
	return "Voice Interview Invitation: " + c.Title
}

// Body renders the invitation email. The greeting uses the mailbox name.
func Body(c types.Campaign, email, link string) string {
	name, _, _ := strings.Cut(email, "@")
	duration := "1 minute"
	if c.DurationMinutes != 1 {
		duration = fmt.Sprintf("%d minutes", c.DurationMinutes)
	}
	var buf bytes.Buffer
	_ = bodyTmpl.Execute(&buf, map[string]any{
		"Name":      name,
		"Title":     c.Title,
		"Topic":     c.Topic,
		"Duration":  duration,
		"Anonymous": c.IsAnonymous,
		"Welcome":   strings.TrimSpace(c.WelcomeMessage),
		"Link":      link,
	})
	return buf.String()
}

// Build returns one invite per target employee in campaign order.
func Build(baseURL string, c types.Campaign, sessions []types.Session) []Invite {
	byEmail := make(map[string]types.Session, len(sessions))
	for _, s := range sessions {
		byEmail[s.EmployeeEmail] = s
	}
	out := make([]Invite, 0, len(c.TargetEmployees))
	for _, email := range c.TargetEmployees {
		inv := Invite{Email: email, SessionStatus: NotStarted, Subject: Subject(c)}
		if s, ok := byEmail[email]; ok {
			inv.SessionID = s.ID
			inv.SessionStatus = string(s.Status)
		}
		inv.Link = JoinLink(baseURL, c.ID, email, inv.SessionID)
		inv.Body = Body(c, email, inv.Link)
		out = append(out, inv)
	}
	return out
}
