package voice

import (
	"fmt"
	"strings"
)

type PromptInput struct {
	Title           string
	Topic           string
	Tone            string
	DurationMinutes int
	WelcomeMessage  string
}

// AgentName is the display name the provider shows for a campaign agent.
func AgentName(in PromptInput) string {
	return in.Title + " - " + in.Topic
}

func minutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

// BuildSystemPrompt renders the interviewer instructions for a campaign agent.
func BuildSystemPrompt(in PromptInput) string {
	tone := strings.ToLower(in.Tone)
	topic := strings.ToLower(in.Topic)
	limit := minutes(in.DurationMinutes)

	opening := fmt.Sprintf("Start by warmly greeting them and explaining you'll be discussing %s.", topic)
	if strings.TrimSpace(in.WelcomeMessage) != "" {
		opening = fmt.Sprintf("Start with: %q", in.WelcomeMessage)
	}

	prompt := `You are %s %s HR interviewer conducting a voice interview about %q.

Your goal is to:
1. Make the employee feel comfortable and heard
2. Ask open-ended questions about their experience with %s
3. Listen actively and ask follow-up questions based on their responses
4. Keep the conversation natural and conversational
5. Cover key areas: satisfaction, challenges, suggestions for improvement
6. Keep the interview under %s

%s

Be %s, professional, and genuinely interested in their feedback. End the interview gracefully after %s or when they've shared their thoughts.`

	return fmt.Sprintf(prompt, article(tone), tone, in.Topic, topic, limit, opening, tone, limit)
}
