package aggregator

import (
	"sort"

	"hrvoice-go/internal/types"
)

type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// Overview is the HR dashboard rollup across recent campaigns and sessions.
type Overview struct {
	ActiveCampaigns   int            `json:"active_campaigns"`
	TotalCampaigns    int            `json:"total_campaigns"`
	CompletedSessions int            `json:"completed_sessions"`
	AverageSentiment  float64        `json:"average_sentiment"`
	ScoredSessions    int            `json:"scored_sessions"`
	UrgentSessions    int            `json:"urgent_sessions"`
	ThemeCounts       map[string]int `json:"theme_counts"`
}

// CampaignStats summarizes the sessions of a single campaign.
type CampaignStats struct {
	TotalSessions    int          `json:"total_sessions"`
	Pending          int          `json:"pending"`
	InProgress       int          `json:"in_progress"`
	Completed        int          `json:"completed"`
	CompletionRate   float64      `json:"completion_rate"`
	AverageSentiment float64      `json:"average_sentiment"`
	PositiveSessions int          `json:"positive_sessions"`
	UrgentSessions   int          `json:"urgent_sessions"`
	TopThemes        []ThemeCount `json:"top_themes"`
}

const topThemeLimit = 8

func Aggregate(campaigns []types.Campaign, sessions []types.Session) Overview {
	out := Overview{TotalCampaigns: len(campaigns), ThemeCounts: map[string]int{}}
	for _, c := range campaigns {
		if c.Status == types.CampaignActive {
			out.ActiveCampaigns++
		}
	}
	sum := 0.0
	for _, s := range sessions {
		if s.Status == types.SessionCompleted {
			out.CompletedSessions++
		}
		if s.SentimentScore != nil {
			sum += *s.SentimentScore
			out.ScoredSessions++
		}
		if s.UrgencyFlag {
			out.UrgentSessions++
		}
		for _, th := range s.KeyThemes {
			out.ThemeCounts[th]++
		}
	}
	if out.ScoredSessions > 0 {
		out.AverageSentiment = sum / float64(out.ScoredSessions)
	}
	return out
}

// ForCampaign averages sentiment over completed sessions only.
func ForCampaign(sessions []types.Session) CampaignStats {
	out := CampaignStats{TotalSessions: len(sessions), TopThemes: []ThemeCount{}}
	counts := map[string]int{}
	sum := 0.0
	for _, s := range sessions {
		switch s.Status {
		case types.SessionPending:
			out.Pending++
		case types.SessionInProgress:
			out.InProgress++
		case types.SessionCompleted:
			out.Completed++
			if s.SentimentScore != nil {
				sum += *s.SentimentScore
				if *s.SentimentScore >= 0.5 {
					out.PositiveSessions++
				}
			}
		}
		if s.UrgencyFlag {
			out.UrgentSessions++
		}
		for _, th := range s.KeyThemes {
			counts[th]++
		}
	}
	if out.Completed > 0 {
		out.AverageSentiment = sum / float64(out.Completed)
	}
	if out.TotalSessions > 0 {
		out.CompletionRate = float64(out.Completed) / float64(out.TotalSessions)
	}
	out.TopThemes = RankThemes(counts, topThemeLimit)
	return out
}

// RankThemes orders themes by count, then name, keeping at most limit.
func RankThemes(counts map[string]int, limit int) []ThemeCount {
	ranked := make([]ThemeCount, 0, len(counts))
	for th, n := range counts {
		ranked = append(ranked, ThemeCount{Theme: th, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Theme < ranked[j].Theme
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
