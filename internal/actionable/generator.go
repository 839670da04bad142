package actionable

import (
	"fmt"

	"hrvoice-go/internal/aggregator"
)

type CardType string

const (
	CardUrgent   CardType = "urgent"
	CardPositive CardType = "positive"
	CardInfo     CardType = "info"
)

type ActionCard struct {
	Type        CardType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
}

const strongMorale = 0.5

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Generate turns a dashboard overview into insight cards: urgent issues,
// strong morale, then the trending theme.
func Generate(ov aggregator.Overview) []ActionCard {
	cards := []ActionCard{}
	if ov.UrgentSessions > 0 {
		cards = append(cards, ActionCard{
			Type:        CardUrgent,
			Title:       fmt.Sprintf("%d Urgent Issue%s Detected", ov.UrgentSessions, plural(ov.UrgentSessions)),
			Description: "Several employees flagged critical concerns requiring immediate attention.",
			Action:      "Schedule 1-on-1 follow-ups with affected team members",
		})
	}
	if ov.ScoredSessions > 0 && ov.AverageSentiment >= strongMorale {
		cards = append(cards, ActionCard{
			Type:        CardPositive,
			Title:       "Team Morale is Strong",
			Description: "Overall sentiment is positive across recent check-ins.",
			Action:      "Continue current engagement practices",
		})
	}
	if top := aggregator.RankThemes(ov.ThemeCounts, 1); len(top) == 1 {
		cards = append(cards, ActionCard{
			Type:        CardInfo,
			Title:       fmt.Sprintf("%q is Trending", top[0].Theme),
			Description: fmt.Sprintf("This topic came up in %d conversation%s.", top[0].Count, plural(top[0].Count)),
			Action:      "Consider a team-wide discussion or workshop on this topic",
		})
	}
	return cards
}

// ForCampaign builds the insight cards on a campaign detail page.
func ForCampaign(st aggregator.CampaignStats) []ActionCard {
	cards := []ActionCard{}
	if st.UrgentSessions > 0 {
		cards = append(cards, ActionCard{
			Type:        CardUrgent,
			Title:       fmt.Sprintf("%d Critical Issue%s", st.UrgentSessions, plural(st.UrgentSessions)),
			Description: "Several responses flagged concerns requiring immediate follow-up.",
			Action:      "Review urgent transcripts and schedule 1-on-1s",
		})
	}
	if st.Completed > 0 && st.AverageSentiment >= strongMorale {
		cards = append(cards, ActionCard{
			Type:        CardPositive,
			Title:       "Overall Positive Sentiment",
			Description: fmt.Sprintf("%d employee%s expressed satisfaction.", st.PositiveSessions, plural(st.PositiveSessions)),
			Action:      "Maintain current initiatives",
		})
	}
	if len(st.TopThemes) > 0 {
		top := st.TopThemes[0]
		cards = append(cards, ActionCard{
			Type:        CardInfo,
			Title:       fmt.Sprintf("Top Theme: %q", top.Theme),
			Description: fmt.Sprintf("Mentioned in %d conversation%s.", top.Count, plural(top.Count)),
			Action:      "Consider team-wide discussion on this topic",
		})
	}
	return cards
}
