package actionable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrvoice-go/internal/aggregator"
)

func TestGenerateAllCards(t *testing.T) {
	cards := Generate(aggregator.Overview{
		UrgentSessions:   2,
		ScoredSessions:   3,
		AverageSentiment: 0.6,
		ThemeCounts:      map[string]int{"Workload": 3, "Management": 3, "Growth": 1},
	})
	require.Len(t, cards, 3)
	assert.Equal(t, CardUrgent, cards[0].Type)
	assert.Equal(t, "2 Urgent Issues Detected", cards[0].Title)
	assert.Equal(t, CardPositive, cards[1].Type)
	assert.Equal(t, `"Management" is Trending`, cards[2].Title)
	assert.Equal(t, "This topic came up in 3 conversations.", cards[2].Description)
}

func TestGenerateQuietDashboard(t *testing.T) {
	cards := Generate(aggregator.Overview{ThemeCounts: map[string]int{}})
	assert.Empty(t, cards)
	assert.NotNil(t, cards)
}

func TestGenerateSingularWording(t *testing.T) {
	cards := Generate(aggregator.Overview{UrgentSessions: 1, ScoredSessions: 1, AverageSentiment: 0.1})
	require.Len(t, cards, 1)
	assert.Equal(t, "1 Urgent Issue Detected", cards[0].Title)
}

func TestForCampaign(t *testing.T) {
	cards := ForCampaign(aggregator.CampaignStats{
		Completed:        2,
		AverageSentiment: 0.7,
		PositiveSessions: 1,
		TopThemes:        []aggregator.ThemeCount{{Theme: "Recognition", Count: 1}},
	})
	require.Len(t, cards, 2)
	assert.Equal(t, "1 employee expressed satisfaction.", cards[0].Description)
	assert.Equal(t, `Top Theme: "Recognition"`, cards[1].Title)
	assert.Equal(t, "Mentioned in 1 conversation.", cards[1].Description)
}
