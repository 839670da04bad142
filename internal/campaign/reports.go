package campaign

import (
	"context"
	"io"

	"hrvoice-go/internal/actionable"
	"hrvoice-go/internal/aggregator"
	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/dataset"
	"hrvoice-go/internal/extractor"
	"hrvoice-go/internal/store"
	"hrvoice-go/internal/types"
)

const (
	dashboardCampaigns = 50
	dashboardSessions  = 200
)

type Dashboard struct {
	Stats     aggregator.Overview     `json:"stats"`
	Insights  []actionable.ActionCard `json:"insights"`
	Campaigns []types.Campaign        `json:"campaigns"`
}

// Dashboard rolls up the most recent campaigns and sessions.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	campaigns, err := s.store.ListCampaigns(ctx, dashboardCampaigns)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, store.SessionFilter{Limit: dashboardSessions})
	if err != nil {
		return nil, err
	}
	ov := aggregator.Aggregate(campaigns, sessions)
	return &Dashboard{
		Stats:     ov,
		Insights:  actionable.Generate(ov),
		Campaigns: campaigns,
	}, nil
}

type Export struct {
	Filename string
	Data     []byte
}

func (s *Service) ExportResults(ctx context.Context, id string) (*Export, error) {
	c, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, store.SessionFilter{CampaignID: id})
	if err != nil {
		return nil, err
	}
	data, err := dataset.ExportResults(*c, sessions, extractor.SentimentLabel)
	if err != nil {
		return nil, apperr.Internal("export results", err)
	}
	return &Export{Filename: dataset.ExportFilename(*c), Data: data}, nil
}

// ParseRoster extracts target employee emails from an uploaded workbook.
func (s *Service) ParseRoster(r io.Reader) (*dataset.Roster, error) {
	roster, err := dataset.LoadRoster(r)
	if err != nil {
		return nil, apperr.Validation("file", err.Error())
	}
	return &roster, nil
}
