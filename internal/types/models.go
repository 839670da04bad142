package types

import "time"

type Topic string

const (
	TopicWorkLifeBalance   Topic = "Work-Life Balance"
	TopicTeamCollaboration Topic = "Team Collaboration"
	TopicManagement        Topic = "Management Feedback"
	TopicCareerGrowth      Topic = "Career Growth"
	TopicCompanyCulture    Topic = "Company Culture"
	TopicWorkloadStress    Topic = "Workload & Stress"
	TopicRecognition       Topic = "Recognition & Rewards"
	TopicGeneralCheckIn    Topic = "General Check-In"
)

var Topics = []Topic{
	TopicWorkLifeBalance,
	TopicTeamCollaboration,
	TopicManagement,
	TopicCareerGrowth,
	TopicCompanyCulture,
	TopicWorkloadStress,
	TopicRecognition,
	TopicGeneralCheckIn,
}

func (t Topic) Valid() bool {
	for _, v := range Topics {
		if v == t {
			return true
		}
	}
	return false
}

type Tone string

const (
	ToneFriendly   Tone = "Friendly"
	ToneFormal     Tone = "Formal"
	ToneEmpathetic Tone = "Empathetic"
	ToneCasual     Tone = "Casual"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneFriendly, ToneFormal, ToneEmpathetic, ToneCasual:
		return true
	}
	return false
}

// Campaign is an HR voice check-in campaign (VoiceInterview).
type Campaign struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Topic           Topic          `json:"topic"`
	AITone          Tone           `json:"ai_tone"`
	DurationMinutes int            `json:"duration_minutes"`
	TargetEmployees []string       `json:"target_employees"`
	IsAnonymous     bool           `json:"is_anonymous"`
	WelcomeMessage  string         `json:"welcome_message,omitempty"`
	Status          CampaignStatus `json:"status"`
	AgentID         string         `json:"agent_id,omitempty"`
	StartDate       string         `json:"start_date,omitempty"`
	CreatedBy       string         `json:"created_by,omitempty"`
	CreatedAt       time.Time      `json:"created_date"`
}

// HasTarget reports whether email was invited to the campaign.
func (c Campaign) HasTarget(email string) bool {
	for _, e := range c.TargetEmployees {
		if e == email {
			return true
		}
	}
	return false
}

// PublicCampaign is the projection served to unauthenticated employees.
type PublicCampaign struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Topic           Topic          `json:"topic"`
	AITone          Tone           `json:"ai_tone"`
	DurationMinutes int            `json:"duration_minutes"`
	IsAnonymous     bool           `json:"is_anonymous"`
	WelcomeMessage  string         `json:"welcome_message"`
	Status          CampaignStatus `json:"status"`
}

func (c Campaign) Public() PublicCampaign {
	return PublicCampaign{
		ID:              c.ID,
		Title:           c.Title,
		Topic:           c.Topic,
		AITone:          c.AITone,
		DurationMinutes: c.DurationMinutes,
		IsAnonymous:     c.IsAnonymous,
		WelcomeMessage:  c.WelcomeMessage,
		Status:          c.Status,
	}
}

// Session is one employee's interview under a campaign (InterviewSession).
type Session struct {
	ID                 string        `json:"id"`
	InterviewID        string        `json:"interview_id"`
	EmployeeEmail      string        `json:"employee_email"`
	EmployeeName       string        `json:"employee_name,omitempty"`
	Status             SessionStatus `json:"session_status"`
	StartedAt          *time.Time    `json:"started_at,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	JoinToken          string        `json:"join_token,omitempty"`
	Transcript         Transcript    `json:"transcript"`
	DurationSeconds    int           `json:"duration_seconds"`
	SentimentScore     *float64      `json:"sentiment_score,omitempty"`
	KeyThemes          []string      `json:"key_themes"`
	Summary            string        `json:"summary,omitempty"`
	UrgencyFlag        bool          `json:"urgency_flag"`
	RecommendedActions []string      `json:"recommended_actions"`
	CreatedAt          time.Time     `json:"created_date"`
	UpdatedAt          time.Time     `json:"updated_date"`
}

// Analysis is the output of the insight extractor.
type Analysis struct {
	SentimentScore     float64  `json:"sentiment_score"`
	KeyThemes          []string `json:"key_themes"`
	Summary            string   `json:"summary"`
	UrgencyFlag        bool     `json:"urgency_flag"`
	RecommendedActions []string `json:"recommended_actions"`
}

// Analysis returns the persisted analysis of a completed session.
func (s Session) Analysis() Analysis {
	a := Analysis{
		KeyThemes:          s.KeyThemes,
		Summary:            s.Summary,
		UrgencyFlag:        s.UrgencyFlag,
		RecommendedActions: s.RecommendedActions,
	}
	if s.SentimentScore != nil {
		a.SentimentScore = *s.SentimentScore
	}
	if a.KeyThemes == nil {
		a.KeyThemes = []string{}
	}
	if a.RecommendedActions == nil {
		a.RecommendedActions = []string{}
	}
	return a
}

// Apply stamps a completed analysis onto the session. Callers hold the store's
// write for the session so the fields land together with the status change.
func (s *Session) Apply(a Analysis, transcript Transcript, durationSeconds int, at time.Time) {
	score := a.SentimentScore
	s.Status = SessionCompleted
	if s.CompletedAt == nil {
		s.CompletedAt = &at
	}
	if s.StartedAt == nil {
		started := at.Add(-time.Duration(durationSeconds) * time.Second)
		s.StartedAt = &started
	}
	s.Transcript = transcript
	s.DurationSeconds = durationSeconds
	s.SentimentScore = &score
	s.KeyThemes = a.KeyThemes
	s.Summary = a.Summary
	s.UrgencyFlag = a.UrgencyFlag
	s.RecommendedActions = a.RecommendedActions
}
