package store

import (
	"context"
	"sort"
	"sync"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/types"
)

// Memory is a process-local Store used for development and tests.
type Memory struct {
	mu        sync.RWMutex
	campaigns map[string]types.Campaign
	sessions  map[string]types.Session
}

func NewMemory() *Memory {
	return &Memory{
		campaigns: map[string]types.Campaign{},
		sessions:  map[string]types.Session{},
	}
}

func (m *Memory) CreateCampaign(_ context.Context, c *types.Campaign, sessions []*types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.campaigns[c.ID]; ok {
		return apperr.Conflict("campaign already exists")
	}
	seen := map[string]bool{}
	for _, s := range sessions {
		if _, ok := m.sessions[s.ID]; ok || seen[s.EmployeeEmail] {
			return apperr.Conflict("session already exists")
		}
		seen[s.EmployeeEmail] = true
	}
	m.campaigns[c.ID] = cloneCampaign(*c)
	for _, s := range sessions {
		m.sessions[s.ID] = cloneSession(*s)
	}
	return nil
}

func (m *Memory) GetCampaign(_ context.Context, id string) (*types.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, apperr.NotFound("campaign", id)
	}
	out := cloneCampaign(c)
	return &out, nil
}

func (m *Memory) FindCampaignByAgent(_ context.Context, agentID string) (*types.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if agentID != "" {
		for _, c := range m.campaigns {
			if c.AgentID == agentID {
				out := cloneCampaign(c)
				return &out, nil
			}
		}
	}
	return nil, apperr.NotFound("campaign", agentID)
}

func (m *Memory) ListCampaigns(_ context.Context, limit int) ([]types.Campaign, error) {
	m.mu.RLock()
	out := make([]types.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, cloneCampaign(c))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := limitOrDefault(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *Memory) UpdateCampaign(_ context.Context, id string, fn func(*types.Campaign) error) (*types.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, apperr.NotFound("campaign", id)
	}
	next := cloneCampaign(c)
	if err := fn(&next); err != nil {
		return nil, err
	}
	m.campaigns[id] = cloneCampaign(next)
	return &next, nil
}

func (m *Memory) CreateSession(_ context.Context, s *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[s.InterviewID]; !ok {
		return apperr.NotFound("campaign", s.InterviewID)
	}
	if _, ok := m.sessions[s.ID]; ok {
		return apperr.Conflict("session already exists")
	}
	for _, existing := range m.sessions {
		if existing.InterviewID == s.InterviewID && existing.EmployeeEmail == s.EmployeeEmail {
			return apperr.Conflict("session already exists")
		}
	}
	m.sessions[s.ID] = cloneSession(*s)
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session", id)
	}
	out := cloneSession(s)
	return &out, nil
}

func (m *Memory) FindSession(_ context.Context, campaignID, email string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.InterviewID == campaignID && s.EmployeeEmail == email {
			out := cloneSession(s)
			return &out, nil
		}
	}
	return nil, apperr.NotFound("session", email)
}

func (m *Memory) ListSessions(_ context.Context, f SessionFilter) ([]types.Session, error) {
	m.mu.RLock()
	out := []types.Session{}
	for _, s := range m.sessions {
		if f.CampaignID != "" && s.InterviewID != f.CampaignID {
			continue
		}
		out = append(out, cloneSession(s))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) UpdateSession(_ context.Context, id string, fn func(*types.Session) error) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session", id)
	}
	next := cloneSession(s)
	if err := fn(&next); err != nil {
		return nil, err
	}
	m.sessions[id] = cloneSession(next)
	return &next, nil
}

func (m *Memory) Close() error { return nil }

func cloneCampaign(c types.Campaign) types.Campaign {
	c.TargetEmployees = cloneStrings(c.TargetEmployees)
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneSession(s types.Session) types.Session {
	if s.StartedAt != nil {
		t := *s.StartedAt
		s.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	if s.SentimentScore != nil {
		v := *s.SentimentScore
		s.SentimentScore = &v
	}
	if s.Transcript.Utterances != nil {
		s.Transcript.Utterances = append(make([]types.Utterance, 0, len(s.Transcript.Utterances)), s.Transcript.Utterances...)
	}
	s.KeyThemes = cloneStrings(s.KeyThemes)
	s.RecommendedActions = cloneStrings(s.RecommendedActions)
	return s
}
