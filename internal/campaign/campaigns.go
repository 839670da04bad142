package campaign

import (
	"context"
	"strings"
	"time"

	"hrvoice-go/internal/actionable"
	"hrvoice-go/internal/aggregator"
	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/invite"
	"hrvoice-go/internal/store"
	"hrvoice-go/internal/types"
	"hrvoice-go/internal/voice"
)

func agentSpec(in AgentInput) voice.AgentSpec {
	p := voice.PromptInput{
		Title:           in.Title,
		Topic:           string(in.Topic),
		Tone:            string(in.AITone),
		DurationMinutes: in.DurationMinutes,
		WelcomeMessage:  in.WelcomeMessage,
	}
	return voice.AgentSpec{
		Name:         voice.AgentName(p),
		Prompt:       voice.BuildSystemPrompt(p),
		FirstMessage: strings.TrimSpace(in.WelcomeMessage),
	}
}

// CreateAgent provisions a voice agent without creating a campaign.
func (s *Service) CreateAgent(ctx context.Context, in AgentInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	agentID, err := s.voice.CreateAgent(ctx, agentSpec(in))
	if err != nil {
		s.log.WithError(err).WithField("topic", in.Topic).Warn("agent creation failed")
		return "", err
	}
	s.log.WithField("agent_id", agentID).Info("agent created")
	return agentID, nil
}

// CreateCampaign creates the campaign agent first and then persists the
// campaign with one Pending session per target in a single store write. A
// provider failure leaves nothing behind.
func (s *Service) CreateCampaign(ctx context.Context, in CampaignInput) (*types.Campaign, []types.Session, error) {
	emails, status, err := in.normalize()
	if err != nil {
		return nil, nil, err
	}

	agentID, err := s.voice.CreateAgent(ctx, agentSpec(in.AgentInput))
	if err != nil {
		s.log.WithError(err).WithField("title", in.Title).Warn("campaign agent creation failed")
		return nil, nil, err
	}

	now := s.now()
	c := &types.Campaign{
		ID:              s.opts.NewID(),
		Title:           strings.TrimSpace(in.Title),
		Topic:           in.Topic,
		AITone:          in.AITone,
		DurationMinutes: in.DurationMinutes,
		TargetEmployees: emails,
		IsAnonymous:     in.IsAnonymous,
		WelcomeMessage:  strings.TrimSpace(in.WelcomeMessage),
		Status:          status,
		AgentID:         agentID,
		StartDate:       in.StartDate,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
	}
	sessions := make([]*types.Session, 0, len(emails))
	for _, e := range emails {
		sessions = append(sessions, s.newSession(c.ID, e, now))
	}
	if err := s.store.CreateCampaign(ctx, c, sessions); err != nil {
		s.log.WithError(err).WithField("agent_id", agentID).Error("persist campaign failed")
		return nil, nil, err
	}

	out := make([]types.Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, *sess)
		s.publish(sess)
	}
	s.log.WithFields(map[string]interface{}{
		"interview_id": c.ID,
		"agent_id":     agentID,
		"sessions":     len(out),
	}).Info("campaign created")
	return c, out, nil
}

func (s *Service) newSession(campaignID, email string, now time.Time) *types.Session {
	return &types.Session{
		ID:                 s.opts.NewID(),
		InterviewID:        campaignID,
		EmployeeEmail:      email,
		Status:             types.SessionPending,
		KeyThemes:          []string{},
		RecommendedActions: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *Service) ListCampaigns(ctx context.Context, limit int) ([]types.Campaign, error) {
	return s.store.ListCampaigns(ctx, limit)
}

func (s *Service) GetCampaign(ctx context.Context, id string) (*types.Campaign, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Missing("id")
	}
	return s.store.GetCampaign(ctx, id)
}

type Detail struct {
	Campaign types.Campaign           `json:"campaign"`
	Sessions []types.Session          `json:"sessions"`
	Stats    aggregator.CampaignStats `json:"stats"`
	Insights []actionable.ActionCard  `json:"insights"`
}

func (s *Service) CampaignDetail(ctx context.Context, id string) (*Detail, error) {
	c, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, store.SessionFilter{CampaignID: id})
	if err != nil {
		return nil, err
	}
	stats := aggregator.ForCampaign(sessions)
	return &Detail{
		Campaign: *c,
		Sessions: sessions,
		Stats:    stats,
		Insights: actionable.ForCampaign(stats),
	}, nil
}

// UpdateCampaignStatus applies a campaign lifecycle transition.
// Setting the current status again is a no-op.
func (s *Service) UpdateCampaignStatus(ctx context.Context, id string, next types.CampaignStatus) (*types.Campaign, error) {
	if next == "" {
		return nil, apperr.Missing("status")
	}
	if !next.Valid() {
		return nil, apperr.Validation("status", "unknown status "+string(next))
	}
	c, err := s.store.UpdateCampaign(ctx, id, func(c *types.Campaign) error {
		if c.Status == next {
			return nil
		}
		if !c.Status.CanTransitionTo(next) {
			return apperr.Conflict("cannot move campaign from " + string(c.Status) + " to " + string(next))
		}
		if c.AgentID == "" {
			return apperr.Conflict("campaign has no voice agent")
		}
		c.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("interview_id", id).WithField("status", next).Info("campaign status updated")
	return c, nil
}

// PublicCampaign is the unauthenticated projection of a campaign.
func (s *Service) PublicCampaign(ctx context.Context, id string) (*types.PublicCampaign, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Missing("interviewId")
	}
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	p := c.Public()
	return &p, nil
}

func (s *Service) Invites(ctx context.Context, id string) ([]invite.Invite, error) {
	c, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, store.SessionFilter{CampaignID: id})
	if err != nil {
		return nil, err
	}
	return invite.Build(s.opts.PublicBaseURL, *c, sessions), nil
}
