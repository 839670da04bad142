// Package store persists campaigns and their interview sessions.
package store

import (
	"context"

	"hrvoice-go/internal/types"
)

const DefaultListLimit = 50

type SessionFilter struct {
	CampaignID string
	Limit      int
}

// Store is the Campaign/Session entity store. Update callbacks run while the
// record is held exclusively, so everything they change lands in one write.
// Returning an error from a callback aborts the write.
type Store interface {
	// CreateCampaign saves the campaign and its initial sessions atomically.
	CreateCampaign(ctx context.Context, c *types.Campaign, sessions []*types.Session) error
	GetCampaign(ctx context.Context, id string) (*types.Campaign, error)
	FindCampaignByAgent(ctx context.Context, agentID string) (*types.Campaign, error)
	// ListCampaigns returns campaigns newest first.
	ListCampaigns(ctx context.Context, limit int) ([]types.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, fn func(*types.Campaign) error) (*types.Campaign, error)

	CreateSession(ctx context.Context, s *types.Session) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
	FindSession(ctx context.Context, campaignID, email string) (*types.Session, error)
	// ListSessions returns sessions newest first.
	ListSessions(ctx context.Context, f SessionFilter) ([]types.Session, error)
	UpdateSession(ctx context.Context, id string, fn func(*types.Session) error) (*types.Session, error)

	Close() error
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}
