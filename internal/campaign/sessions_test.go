package campaign

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/extractor"
	"hrvoice-go/internal/types"
)

const mixedTranscript = "I love my team, we collaborate really well, though the workload has been stressful lately."

func TestInterviewBundleValidatesPair(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	other, otherSessions := h.activeCampaign(t, "b@x.com")

	b, err := h.svc.InterviewBundle(ctx, c.ID, sessions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, c.AgentID, b.Interview.AgentID)
	assert.Equal(t, types.ViewWelcome, b.View)

	_, err = h.svc.InterviewBundle(ctx, other.ID, sessions[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = h.svc.InterviewBundle(ctx, c.ID, otherSessions[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = h.svc.InterviewBundle(ctx, c.ID, "")
	assert.Equal(t, "sessionId", apperr.Payload(err)["details"])
}

func TestJoinSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")

	b, err := h.svc.JoinSession(ctx, c.ID, " A@x.com ", "Dana")
	require.NoError(t, err)
	assert.Equal(t, sessions[0].ID, b.Session.ID)
	assert.Equal(t, "Dana", b.Session.EmployeeName)

	_, err = h.svc.JoinSession(ctx, c.ID, "stranger@x.com", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestJoinSessionCreatesMissingSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := validInput("a@x.com")
	in.IsAnonymous = true
	c, sessions, err := h.svc.CreateCampaign(ctx, in)
	require.NoError(t, err)

	// simulate a roster entry whose session was never created
	c2, err := h.store.UpdateCampaign(ctx, c.ID, func(c *types.Campaign) error {
		c.TargetEmployees = append(c.TargetEmployees, "late@x.com")
		return nil
	})
	require.NoError(t, err)

	b, err := h.svc.JoinSession(ctx, c2.ID, "late@x.com", "Lee")
	require.NoError(t, err)
	assert.NotEqual(t, sessions[0].ID, b.Session.ID)
	assert.Equal(t, types.SessionPending, b.Session.Status)
	assert.Empty(t, b.Session.EmployeeName, "anonymous campaigns never store names")

	again, err := h.svc.JoinSession(ctx, c2.ID, "late@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, b.Session.ID, again.Session.ID)
}

func TestStartConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	startedAt := h.clock.t

	got, err := h.svc.StartConversation(ctx, c.ID, sid)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, c.AgentID, got.AgentID)
	assert.Equal(t, sid, h.voice.conversations[0]["session_id"])
	assert.Equal(t, c.AgentID, h.voice.conversations[0]["agent_id"])

	s, _ := h.store.GetSession(ctx, sid)
	assert.Equal(t, types.SessionInProgress, s.Status)
	assert.Equal(t, "conv-1", s.JoinToken)
	require.NotNil(t, s.StartedAt)
	assert.Equal(t, startedAt, *s.StartedAt)

	h.clock.advance(time.Minute)
	_, err = h.svc.StartConversation(ctx, c.ID, sid)
	require.NoError(t, err)
	s, _ = h.store.GetSession(ctx, sid)
	assert.Equal(t, startedAt, *s.StartedAt, "restart keeps the first start time")
}

func TestStartConversationRequiresActiveCampaign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions, err := h.svc.CreateCampaign(ctx, validInput("a@x.com"))
	require.NoError(t, err)

	_, err = h.svc.StartConversation(ctx, c.ID, sessions[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Empty(t, h.voice.conversations)
}

func TestStartConversationProviderFailureLeavesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	h.voice.convErr = apperr.Upstream("elevenlabs", 503, "overloaded")

	_, err := h.svc.StartConversation(ctx, c.ID, sessions[0].ID)
	assert.Equal(t, 503, apperr.HTTPStatus(err))

	s, _ := h.store.GetSession(ctx, sessions[0].ID)
	assert.Equal(t, types.SessionPending, s.Status)
	assert.Nil(t, s.StartedAt)
	assert.Empty(t, s.JoinToken)
}

func TestStartRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	ms := h.clock.t.UnixMilli()

	room, err := h.svc.StartRoom(ctx, RoomRequest{InterviewID: c.ID, SessionID: sid, ParticipantName: "Dana", TTL: "600"})
	require.NoError(t, err)
	assert.Equal(t, "wss://media.test", room.ServerURL)
	assert.Equal(t, "interview-"+c.ID+"-"+sid, room.RoomName)
	assert.Equal(t, "employee-"+sid+"-"+strconv.FormatInt(ms, 10), room.Participant.Identity)
	assert.Equal(t, "ai-agent-"+strconv.FormatInt(ms, 10), room.AIInterviewer.Identity)
	assert.Equal(t, "jwt-"+room.Participant.Identity, room.Participant.Token)
	assert.Equal(t, []time.Duration{10 * time.Minute, 10 * time.Minute}, h.minter.ttls)
	for _, p := range h.minter.minted {
		assert.Equal(t, room.RoomName, p.Room)
	}

	s, _ := h.store.GetSession(ctx, sid)
	assert.Equal(t, types.SessionInProgress, s.Status)
}

func TestStartRoomFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID

	_, err := h.svc.StartRoom(ctx, RoomRequest{InterviewID: c.ID, SessionID: sid})
	assert.Equal(t, "participantName", apperr.Payload(err)["details"])

	_, err = h.svc.StartRoom(ctx, RoomRequest{InterviewID: c.ID, SessionID: sid, ParticipantName: "Dana", TTL: "whenever"})
	assert.Equal(t, "ttl", apperr.Payload(err)["details"])

	h.minter.err = apperr.Config("LIVEKIT_API_KEY")
	_, err = h.svc.StartRoom(ctx, RoomRequest{InterviewID: c.ID, SessionID: sid, ParticipantName: "Dana"})
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))

	s, _ := h.store.GetSession(ctx, sid)
	assert.Equal(t, types.SessionPending, s.Status)
}

func TestCompleteSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	_, err := h.svc.StartConversation(ctx, c.ID, sid)
	require.NoError(t, err)
	h.voice.setTranscript("conv-1", mixedTranscript, 125)
	h.clock.advance(3 * time.Minute)

	res, err := h.svc.CompleteSession(ctx, sid, "conv-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1.0, res.SentimentScore)
	assert.Equal(t, []string{extractor.ThemeTeamCollaboration, extractor.ThemeWorkload}, res.KeyThemes)
	assert.False(t, res.UrgencyFlag)
	assert.Equal(t, []string{extractor.ActionReviewWorkload, extractor.ActionAcknowledgeTeam}, res.RecommendedActions)
	assert.Equal(t, 125, res.DurationSeconds)

	s, _ := h.store.GetSession(ctx, sid)
	assert.Equal(t, types.SessionCompleted, s.Status)
	require.NotNil(t, s.SentimentScore)
	assert.Equal(t, 1.0, *s.SentimentScore)
	assert.Equal(t, mixedTranscript, s.Transcript.Text())
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, h.clock.t, *s.CompletedAt)
}

func TestCompleteSessionIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	_, err := h.svc.StartConversation(ctx, c.ID, sid)
	require.NoError(t, err)
	h.voice.setTranscript("conv-1", "terrible, awful, bad, poor, hate, difficult, frustrated", 60)

	first, err := h.svc.CompleteSession(ctx, sid, "conv-1")
	require.NoError(t, err)
	before, _ := h.store.GetSession(ctx, sid)

	h.clock.advance(time.Hour)
	h.voice.setTranscript("conv-1", "actually it is great", 90)
	second, err := h.svc.CompleteSession(ctx, sid, "conv-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.voice.gets, "completed sessions are not re-fetched")
	after, _ := h.store.GetSession(ctx, sid)
	assert.Equal(t, before, after)
	assert.True(t, after.UrgencyFlag)
	assert.Equal(t, extractor.ActionFollowUp, after.RecommendedActions[0])
}

func TestCompleteSessionProviderNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	_, err := h.svc.StartConversation(ctx, c.ID, sid)
	require.NoError(t, err)
	h.voice.getErr = apperr.Upstream("elevenlabs", 404, `{"detail":"Conversation not found"}`)

	_, err = h.svc.CompleteSession(ctx, sid, "conv-1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, 404, apperr.HTTPStatus(err))

	s, _ := h.store.GetSession(ctx, sid)
	assert.Equal(t, types.SessionInProgress, s.Status)
	assert.Nil(t, s.SentimentScore)
}

func TestCompleteSessionRejectsForeignConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	_, err := h.svc.StartConversation(ctx, c.ID, sessions[0].ID)
	require.NoError(t, err)

	_, err = h.svc.CompleteSession(ctx, sessions[0].ID, "conv-someone-else")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, h.voice.gets)
}

func TestCompleteSessionDurationFallsBackToElapsed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	_, err := h.svc.StartConversation(ctx, c.ID, sid)
	require.NoError(t, err)
	h.voice.setTranscript("conv-1", "fine", 0)
	h.clock.advance(95 * time.Second)

	res, err := h.svc.CompleteSession(ctx, sid, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 95, res.DurationSeconds)
	assert.Contains(t, res.Summary, "Employee completed a 1-minute interview")
}

func TestUpdateSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID

	completed := types.SessionCompleted
	_, err := h.svc.UpdateSession(ctx, sid, SessionPatch{Status: &completed})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	inProgress := types.SessionInProgress
	name := " Dana "
	tok := "conv-9"
	s, err := h.svc.UpdateSession(ctx, sid, SessionPatch{Status: &inProgress, EmployeeName: &name, JoinToken: &tok})
	require.NoError(t, err)
	assert.Equal(t, types.SessionInProgress, s.Status)
	assert.NotNil(t, s.StartedAt)
	assert.Equal(t, "Dana", s.EmployeeName)
	assert.Equal(t, "conv-9", s.JoinToken)

	pending := types.SessionPending
	_, err = h.svc.UpdateSession(ctx, sid, SessionPatch{Status: &pending})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	other := "conv-10"
	_, err = h.svc.UpdateSession(ctx, sid, SessionPatch{JoinToken: &other})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = h.svc.UpdateSession(ctx, sid, SessionPatch{})
	assert.Equal(t, "data", apperr.Payload(err)["details"])
}

func TestUpdateSessionAnonymousName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := validInput("a@x.com")
	in.IsAnonymous = true
	_, sessions, err := h.svc.CreateCampaign(ctx, in)
	require.NoError(t, err)

	name := "Dana"
	_, err = h.svc.UpdateSession(ctx, sessions[0].ID, SessionPatch{EmployeeName: &name})
	assert.Equal(t, "employee_name", apperr.Payload(err)["details"])
}

func TestHandleCallEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	h.voice.setTranscript("widget-conv", "I enjoy the flexible hours", 42)

	s, err := h.svc.HandleCallEvent(ctx, sid, types.CallEvent{Type: types.CallStarted, ConversationID: "widget-conv"})
	require.NoError(t, err)
	assert.Equal(t, types.SessionInProgress, s.Status)
	assert.Equal(t, "widget-conv", s.JoinToken)
	assert.Equal(t, types.ViewInProgress, types.ViewForSession(s.Status))

	s, err = h.svc.HandleCallEvent(ctx, sid, types.CallEvent{Type: types.CallEnded, ConversationID: "widget-conv"})
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, s.Status)
	assert.Equal(t, []string{extractor.ThemeWorkLifeBalance}, s.KeyThemes)
	assert.Equal(t, 42, s.DurationSeconds)

	_, err = h.svc.HandleCallEvent(ctx, sid, types.CallEvent{Type: "call_paused"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestWidgetCredentialsRequireKnownAgent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, _ := h.activeCampaign(t, "a@x.com")

	tok, err := h.svc.ConversationToken(ctx, c.AgentID)
	require.NoError(t, err)
	assert.Equal(t, "token-for-"+c.AgentID, tok)

	u, err := h.svc.SignedURL(ctx, "default-agent")
	require.NoError(t, err)
	assert.Equal(t, "wss://signed/default-agent", u)

	_, err = h.svc.ConversationToken(ctx, "rogue-agent")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = h.svc.SignedURL(ctx, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSessionChangesArePublished(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	base := h.events.count()

	_, err := h.svc.StartConversation(ctx, c.ID, sessions[0].ID)
	require.NoError(t, err)
	h.voice.getErr = errors.New("down")
	_, _ = h.svc.CompleteSession(ctx, sessions[0].ID, "conv-1")

	assert.Equal(t, base+1, h.events.count(), "failed writes publish nothing")
	last := h.events.changes[len(h.events.changes)-1]
	assert.Equal(t, types.SessionInProgress, last.Status)
	assert.Equal(t, c.ID, last.InterviewID)
}

// completedSession runs a session through the voice flow to Completed.
func (h *harness) completedSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, sessions := h.activeCampaign(t, "a@x.com")
	sid := sessions[0].ID
	if _, err := h.svc.StartConversation(ctx, c.ID, sid); err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	h.voice.setTranscript("conv-1", "I enjoy the flexible hours", 30)
	if _, err := h.svc.CompleteSession(ctx, sid, "conv-1"); err != nil {
		t.Fatalf("complete session: %v", err)
	}
	return sid
}

func TestUpdateSessionRejectsCompletedSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.completedSession(t)
	before, err := h.store.GetSession(ctx, sid)
	require.NoError(t, err)
	published := h.events.count()

	h.clock.advance(time.Minute)
	name := "Changed After Completion"
	_, err = h.svc.UpdateSession(ctx, sid, SessionPatch{EmployeeName: &name})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	completed := types.SessionCompleted
	_, err = h.svc.UpdateSession(ctx, sid, SessionPatch{Status: &completed, EmployeeName: &name})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	after, err := h.store.GetSession(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, published, h.events.count())
}

func TestCompleteSessionRejectsForeignConversationAfterCompletion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.completedSession(t)

	_, err := h.svc.CompleteSession(ctx, sid, "conv-someone-else")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	res, err := h.svc.CompleteSession(ctx, sid, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", res.ConversationID)
	assert.Equal(t, 1, h.voice.gets)
}

func TestCallStartedAfterCompletionIsIgnored(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.completedSession(t)
	before, err := h.store.GetSession(ctx, sid)
	require.NoError(t, err)
	published := h.events.count()

	h.clock.advance(time.Minute)
	s, err := h.svc.HandleCallEvent(ctx, sid, types.CallEvent{Type: types.CallStarted, ConversationID: "conv-1"})
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, s.Status)

	after, err := h.store.GetSession(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, published, h.events.count(), "no feed event for a completed session")
}
