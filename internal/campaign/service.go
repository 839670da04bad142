// Package campaign orchestrates HR interview campaigns and their sessions
// over the store, the voice provider and the realtime media service.
package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/media"
	"hrvoice-go/internal/store"
	"hrvoice-go/internal/types"
	"hrvoice-go/internal/voice"
)

// VoiceProvider is the conversational voice API (ElevenLabs).
type VoiceProvider interface {
	CreateAgent(ctx context.Context, spec voice.AgentSpec) (string, error)
	CreateConversation(ctx context.Context, agentID string, metadata map[string]any) (string, error)
	ConversationToken(ctx context.Context, agentID string) (string, error)
	SignedURL(ctx context.Context, agentID string) (string, error)
	GetConversation(ctx context.Context, conversationID string) (*voice.Conversation, error)
}

// TokenMinter issues realtime media room credentials (LiveKit).
type TokenMinter interface {
	Mint(p media.Participant, ttl time.Duration) (string, error)
	ServerURL() string
	DefaultTTL() time.Duration
}

// Notifier receives every committed session change.
type Notifier interface {
	Publish(change types.SessionChange)
}

type nopNotifier struct{}

func (nopNotifier) Publish(types.SessionChange) {}

type Options struct {
	// DefaultAgentID is used when a campaign has no agent of its own.
	DefaultAgentID string
	PublicBaseURL  string
	Now            func() time.Time
	NewID          func() string
}

type Service struct {
	store  store.Store
	voice  VoiceProvider
	media  TokenMinter
	notify Notifier
	opts   Options
	log    *logger.Logger
}

func NewService(st store.Store, vp VoiceProvider, tm TokenMinter, n Notifier, opts Options, log *logger.Logger) *Service {
	if n == nil {
		n = nopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if log == nil {
		log = logger.New()
	}
	return &Service{
		store:  st,
		voice:  vp,
		media:  tm,
		notify: n,
		opts:   opts,
		log:    log.Component("campaign"),
	}
}

func (s *Service) now() time.Time { return s.opts.Now().UTC() }

func (s *Service) publish(sess *types.Session) {
	s.notify.Publish(types.SessionChange{
		InterviewID: sess.InterviewID,
		SessionID:   sess.ID,
		Status:      sess.Status,
		UrgencyFlag: sess.UrgencyFlag,
	})
}
