package extractor

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"hrvoice-go/internal/types"
)

var (
	positiveWords = []string{"good", "great", "happy", "satisfied", "excellent", "love", "enjoy", "appreciate"}
	negativeWords = []string{"bad", "poor", "unhappy", "frustrated", "terrible", "hate", "difficult", "stressed", "overwhelmed"}
)

const (
	ThemeWorkLifeBalance   = "Work-Life Balance"
	ThemeManagement        = "Management"
	ThemeTeamCollaboration = "Team Collaboration"
	ThemeWorkload          = "Workload"
	ThemeCareerGrowth      = "Career Growth"
	ThemeRecognition       = "Recognition & Rewards"
)

type theme struct {
	label    string
	triggers []string
}

// themes are reported in declaration order.
var themes = []theme{
	{ThemeWorkLifeBalance, []string{"balance", "overtime", "hours", "personal time", "flexible"}},
	{ThemeManagement, []string{"manager", "leadership", "supervisor", "boss", "support"}},
	{ThemeTeamCollaboration, []string{"team", "colleague", "collaboration", "together"}},
	{ThemeWorkload, []string{"workload", "busy", "overwhelmed", "stressed", "pressure"}},
	{ThemeCareerGrowth, []string{"growth", "development", "learning", "career", "opportunity"}},
	{ThemeRecognition, []string{"recognition", "appreciated", "valued", "reward"}},
}

const (
	ActionFollowUp         = "Schedule immediate 1-on-1 follow-up"
	ActionReviewWorkload   = "Review workload distribution"
	ActionManagementFeed   = "Provide feedback to management team"
	ActionAcknowledgeTeam  = "Acknowledge positive feedback with team"
	urgentScore            = -0.3
	urgentNegativeCount    = 5
	positiveLabelThreshold = 0.2
	acknowledgeThreshold   = 0.3
)

// Counts is the raw keyword tally behind a score.
type Counts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Extract analyses a finished transcript. It is pure and never fails: empty or
// malformed transcripts produce a neutral analysis.
func Extract(tr types.Transcript, durationSeconds int) types.Analysis {
	a, _ := ExtractWithCounts(tr, durationSeconds)
	return a
}

// ExtractText is Extract for a flat dialogue string.
func ExtractText(text string, durationSeconds int) types.Analysis {
	return Extract(types.TextTranscript(text), durationSeconds)
}

func ExtractWithCounts(tr types.Transcript, durationSeconds int) (types.Analysis, Counts) {
	lower := strings.ToLower(tr.Text())

	c := Counts{
		Positive: countAll(lower, positiveWords),
		Negative: countAll(lower, negativeWords),
	}
	score := Score(c)
	found := Themes(lower)
	urgent := score < urgentScore || c.Negative > urgentNegativeCount

	return types.Analysis{
		SentimentScore:     score,
		KeyThemes:          found,
		Summary:            Summarize(found, score, durationSeconds),
		UrgencyFlag:        urgent,
		RecommendedActions: Recommend(found, score, urgent),
	}, c
}

// Score maps keyword counts onto [-1, 1]; no hits is neutral.
func Score(c Counts) float64 {
	total := c.Positive + c.Negative
	if total == 0 {
		return 0
	}
	return float64(c.Positive-c.Negative) / float64(total)
}

// Themes returns every theme with at least one trigger in the lower-cased text.
func Themes(lower string) []string {
	out := []string{}
	for _, th := range themes {
		for _, trig := range th.triggers {
			if strings.Contains(lower, trig) {
				out = append(out, th.label)
				break
			}
		}
	}
	return out
}

func SentimentLabel(score float64) string {
	switch {
	case score > positiveLabelThreshold:
		return "Positive"
	case score < -positiveLabelThreshold:
		return "Negative"
	default:
		return "Neutral"
	}
}

func Summarize(found []string, score float64, durationSeconds int) string {
	topics := "various topics"
	if len(found) > 0 {
		topics = strings.Join(found, ", ")
	}
	minutes := 0
	if durationSeconds > 0 {
		minutes = durationSeconds / 60
	}
	if minutes > 0 {
		return fmt.Sprintf("Employee completed a %d-minute interview discussing %s. Overall sentiment: %s.", minutes, topics, SentimentLabel(score))
	}
	return fmt.Sprintf("Employee discussed %s. Overall sentiment: %s.", topics, SentimentLabel(score))
}

// Recommend applies each action rule independently, in fixed order.
func Recommend(found []string, score float64, urgent bool) []string {
	out := []string{}
	if urgent {
		out = append(out, ActionFollowUp)
	}
	if contains(found, ThemeWorkload) {
		out = append(out, ActionReviewWorkload)
	}
	if contains(found, ThemeManagement) {
		out = append(out, ActionManagementFeed)
	}
	if score > acknowledgeThreshold {
		out = append(out, ActionAcknowledgeTeam)
	}
	return out
}

func countAll(lower string, words []string) int {
	n := 0
	for _, w := range words {
		n += countWord(lower, w)
	}
	return n
}

// countWord counts occurrences of w that start a word, so "unhappy" does not
// count as "happy".
func countWord(s, w string) int {
	n := 0
	for i := 0; i+len(w) <= len(s); {
		j := strings.Index(s[i:], w)
		if j < 0 {
			break
		}
		at := i + j
		if at == 0 || !isWordRune(lastRune(s[:at])) {
			n++
		}
		i = at + len(w)
	}
	return n
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
