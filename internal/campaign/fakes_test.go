package campaign

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/media"
	"hrvoice-go/internal/store"
	"hrvoice-go/internal/types"
	"hrvoice-go/internal/voice"
)

type fakeVoice struct {
	mu       sync.Mutex
	agentErr error
	convErr  error
	getErr   error

	agents        []voice.AgentSpec
	conversations []map[string]any
	transcripts   map[string]*voice.Conversation
	gets          int
	seq           int
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{transcripts: map[string]*voice.Conversation{}}
}

func (f *fakeVoice) CreateAgent(_ context.Context, spec voice.AgentSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.agentErr != nil {
		return "", f.agentErr
	}
	f.agents = append(f.agents, spec)
	return fmt.Sprintf("agent-%d", len(f.agents)), nil
}

func (f *fakeVoice) CreateConversation(_ context.Context, agentID string, metadata map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.convErr != nil {
		return "", f.convErr
	}
	f.seq++
	md := map[string]any{"agent_id": agentID}
	for k, v := range metadata {
		md[k] = v
	}
	f.conversations = append(f.conversations, md)
	return fmt.Sprintf("conv-%d", f.seq), nil
}

func (f *fakeVoice) ConversationToken(_ context.Context, agentID string) (string, error) {
	return "token-for-" + agentID, nil
}

func (f *fakeVoice) SignedURL(_ context.Context, agentID string) (string, error) {
	return "wss://signed/" + agentID, nil
}

func (f *fakeVoice) GetConversation(_ context.Context, id string) (*voice.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if c, ok := f.transcripts[id]; ok {
		return c, nil
	}
	return &voice.Conversation{ConversationID: id}, nil
}

func (f *fakeVoice) setTranscript(id, text string, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &voice.Conversation{ConversationID: id, Transcript: types.TextTranscript(text)}
	c.Metadata.CallDurationSecs = seconds
	f.transcripts[id] = c
}

type fakeMinter struct {
	err    error
	minted []media.Participant
	ttls   []time.Duration
}

func (m *fakeMinter) Mint(p media.Participant, ttl time.Duration) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.minted = append(m.minted, p)
	m.ttls = append(m.ttls, ttl)
	return "jwt-" + p.Identity, nil
}

func (m *fakeMinter) ServerURL() string { return "wss://media.test" }

func (m *fakeMinter) DefaultTTL() time.Duration { return 2 * time.Hour }

type recorder struct {
	mu      sync.Mutex
	changes []types.SessionChange
}

func (r *recorder) Publish(c types.SessionChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	svc    *Service
	store  *store.Memory
	voice  *fakeVoice
	minter *fakeMinter
	events *recorder
	clock  *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:  store.NewMemory(),
		voice:  newFakeVoice(),
		minter: &fakeMinter{},
		events: &recorder{},
		clock:  &clock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	ids := 0
	h.svc = NewService(h.store, h.voice, h.minter, h.events, Options{
		DefaultAgentID: "default-agent",
		PublicBaseURL:  "https://hr.test",
		Now:            h.clock.now,
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	}, logger.Discard())
	return h
}

func validInput(emails ...string) CampaignInput {
	return CampaignInput{
		AgentInput: AgentInput{
			Title:           "Q3 pulse",
			Topic:           types.TopicWorkloadStress,
			AITone:          types.ToneEmpathetic,
			DurationMinutes: 5,
			WelcomeMessage:  "Hi there!",
		},
		TargetEmployees: emails,
	}
}

// activeCampaign creates an Active campaign and returns it with its sessions.
func (h *harness) activeCampaign(t *testing.T, emails ...string) (*types.Campaign, []types.Session) {
	t.Helper()
	in := validInput(emails...)
	in.Status = types.CampaignActive
	c, sessions, err := h.svc.CreateCampaign(context.Background(), in)
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c, sessions
}
