package types

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignActive    CampaignStatus = "Active"
	CampaignPaused    CampaignStatus = "Paused"
	CampaignCompleted CampaignStatus = "Completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:  {CampaignActive},
	CampaignActive: {CampaignPaused, CampaignCompleted},
	CampaignPaused: {CampaignActive, CampaignCompleted},
}

func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	for _, n := range campaignTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type SessionStatus string

const (
	SessionPending    SessionStatus = "Pending"
	SessionInProgress SessionStatus = "In Progress"
	SessionCompleted  SessionStatus = "Completed"
)

func (s SessionStatus) rank() int {
	switch s {
	case SessionPending:
		return 0
	case SessionInProgress:
		return 1
	case SessionCompleted:
		return 2
	}
	return -1
}

func (s SessionStatus) Valid() bool { return s.rank() >= 0 }

// CanTransitionTo enforces the forward-only session lifecycle. Skipping
// In Progress is allowed: a call can end before its start was recorded.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() > s.rank()
}
