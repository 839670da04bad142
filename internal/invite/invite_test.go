package invite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrvoice-go/internal/types"
)

func TestJoinLink(t *testing.T) {
	assert.Equal(t,
		"https://hr.example.com/EmployeeJoin?id=c1&email=dana%2Bqa%40x.com&session=s1",
		JoinLink("https://hr.example.com/", "c1", "dana+qa@x.com", "s1"))
	assert.Equal(t,
		"http://localhost:8080/EmployeeJoin?id=c1&email=a%40x.com",
		JoinLink("http://localhost:8080", "c1", "a@x.com", ""))
}

func TestBodyMentionsCampaign(t *testing.T) {
	c := types.Campaign{Title: "Q3 pulse", Topic: types.TopicCareerGrowth, DurationMinutes: 1, IsAnonymous: true, WelcomeMessage: "Thanks!"}
	body := Body(c, "dana@x.com", "https://link")

	assert.Contains(t, body, "Hello dana,")
	assert.Contains(t, body, `voice interview: "Q3 pulse"`)
	assert.Contains(t, body, "Duration: 1 minute\n")
	assert.Contains(t, body, "Your responses will be anonymous")
	assert.Contains(t, body, "Message from HR:\nThanks!\n")
	assert.Contains(t, body, "join your interview:\nhttps://link\n")
}

func TestBodyWithoutWelcome(t *testing.T) {
	body := Body(types.Campaign{Title: "T", DurationMinutes: 5}, "a@x.com", "L")
	assert.Contains(t, body, "Duration: 5 minutes")
	assert.Contains(t, body, "Your responses will be identified\n\nClick here")
	assert.NotContains(t, body, "Message from HR")
}

func TestBuild(t *testing.T) {
	c := types.Campaign{ID: "c1", Title: "Pulse", TargetEmployees: []string{"a@x.com", "b@x.com"}}
	invites := Build("http://hr", c, []types.Session{{ID: "s1", EmployeeEmail: "a@x.com", Status: types.SessionCompleted}})

	require.Len(t, invites, 2)
	assert.Equal(t, "Completed", invites[0].SessionStatus)
	assert.Equal(t, "http://hr/EmployeeJoin?id=c1&email=a%40x.com&session=s1", invites[0].Link)
	assert.Equal(t, NotStarted, invites[1].SessionStatus)
	assert.Equal(t, "Voice Interview Invitation: Pulse", invites[1].Subject)
}
