package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/extractor"
	"hrvoice-go/internal/media"
	"hrvoice-go/internal/types"
)

// InterviewView is the public campaign projection plus the agent the
// employee's voice widget connects to.
type InterviewView struct {
	types.PublicCampaign
	AgentID string `json:"agent_id,omitempty"`
}

// Bundle is everything the employee join page needs in one fetch.
type Bundle struct {
	Interview InterviewView   `json:"interview"`
	Session   types.Session   `json:"session"`
	View      types.ViewState `json:"view_state"`
}

type ConversationStart struct {
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
}

type RoomRequest struct {
	InterviewID     string `json:"interviewId"`
	SessionID       string `json:"sessionId"`
	ParticipantName string `json:"participantName"`
	TTL             string `json:"ttl"`
}

type RoomParticipant struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

type Room struct {
	ServerURL     string          `json:"serverUrl"`
	RoomName      string          `json:"roomName"`
	Participant   RoomParticipant `json:"participant"`
	AIInterviewer RoomParticipant `json:"aiInterviewer"`
	ExpiresIn     string          `json:"expiresIn"`
	InterviewID   string          `json:"interviewId"`
	SessionID     string          `json:"sessionId"`
}

// Result is the response of a transcript analysis.
type Result struct {
	Success bool `json:"success"`
	types.Analysis
	SessionID       string `json:"session_id"`
	ConversationID  string `json:"conversation_id,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

// SessionPatch is the client-driven field patch. Only these fields may be
// changed outside the start and completion flows.
type SessionPatch struct {
	Status       *types.SessionStatus `json:"session_status,omitempty"`
	EmployeeName *string              `json:"employee_name,omitempty"`
	JoinToken    *string              `json:"join_token,omitempty"`
}

func (p SessionPatch) empty() bool {
	return p.Status == nil && p.EmployeeName == nil && p.JoinToken == nil
}

const aiInterviewerName = "AI Interviewer"

// pair loads a campaign and session and checks that they belong together.
func (s *Service) pair(ctx context.Context, interviewID, sessionID string) (*types.Campaign, *types.Session, error) {
	if strings.TrimSpace(interviewID) == "" {
		return nil, nil, apperr.Missing("interviewId")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil, apperr.Missing("sessionId")
	}
	c, err := s.store.GetCampaign(ctx, interviewID)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.InterviewID != c.ID {
		return nil, nil, apperr.NotFound("session", sessionID)
	}
	return c, sess, nil
}

func (s *Service) bundle(c *types.Campaign, sess *types.Session) *Bundle {
	return &Bundle{
		Interview: InterviewView{PublicCampaign: c.Public(), AgentID: s.agentFor(c)},
		Session:   *sess,
		View:      types.ViewForSession(sess.Status),
	}
}

func (s *Service) agentFor(c *types.Campaign) string {
	if c.AgentID != "" {
		return c.AgentID
	}
	return s.opts.DefaultAgentID
}

// InterviewBundle returns the campaign projection and session for a valid
// interview/session pair.
func (s *Service) InterviewBundle(ctx context.Context, interviewID, sessionID string) (*Bundle, error) {
	c, sess, err := s.pair(ctx, interviewID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.bundle(c, sess), nil
}

// JoinSession resolves an invited employee's session, creating it on first
// access. Names are only recorded for identified campaigns.
func (s *Service) JoinSession(ctx context.Context, interviewID, email, name string) (*Bundle, error) {
	if strings.TrimSpace(interviewID) == "" {
		return nil, apperr.Missing("interviewId")
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Missing("email")
	}
	c, err := s.store.GetCampaign(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if !c.HasTarget(email) {
		return nil, apperr.NotFound("session", email)
	}
	name = strings.TrimSpace(name)
	if c.IsAnonymous {
		name = ""
	}

	sess, err := s.store.FindSession(ctx, c.ID, email)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		sess = s.newSession(c.ID, email, s.now())
		sess.EmployeeName = name
		err = s.store.CreateSession(ctx, sess)
		if apperr.Is(err, apperr.KindConflict) {
			// a concurrent join created it first
			sess, err = s.store.FindSession(ctx, c.ID, email)
		} else if err == nil {
			s.publish(sess)
			s.log.WithField("interview_id", c.ID).WithField("session_id", sess.ID).Info("session created on join")
		}
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if name != "" && sess.EmployeeName == "" {
		sess, err = s.store.UpdateSession(ctx, sess.ID, func(cur *types.Session) error {
			if cur.EmployeeName == "" {
				cur.EmployeeName = name
				cur.UpdatedAt = s.now()
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s.bundle(c, sess), nil
}

func startable(c *types.Campaign, sess *types.Session) error {
	if c.Status != types.CampaignActive {
		return apperr.Conflict("interview is not active")
	}
	if sess.Status == types.SessionCompleted {
		return apperr.Conflict("session already completed")
	}
	return nil
}

// markStarted moves a session to In Progress. started_at is stamped once.
func markStarted(sess *types.Session, at time.Time) error {
	switch sess.Status {
	case types.SessionCompleted:
		return apperr.Conflict("session already completed")
	case types.SessionPending:
		sess.Status = types.SessionInProgress
	}
	if sess.StartedAt == nil {
		sess.StartedAt = &at
	}
	sess.UpdatedAt = at
	return nil
}

// StartConversation opens a voice provider conversation for the session.
// The provider is called before the session is touched.
func (s *Service) StartConversation(ctx context.Context, interviewID, sessionID string) (*ConversationStart, error) {
	c, sess, err := s.pair(ctx, interviewID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := startable(c, sess); err != nil {
		return nil, err
	}
	agentID := s.agentFor(c)
	if agentID == "" {
		return nil, apperr.Config("ELEVENLABS_AGENT_ID")
	}

	convID, err := s.voice.CreateConversation(ctx, agentID, map[string]any{
		"interview_id":     c.ID,
		"session_id":       sess.ID,
		"topic":            string(c.Topic),
		"duration_minutes": c.DurationMinutes,
		"employee_email":   sess.EmployeeEmail,
	})
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("conversation creation failed")
		return nil, err
	}

	updated, err := s.store.UpdateSession(ctx, sess.ID, func(cur *types.Session) error {
		if err := markStarted(cur, s.now()); err != nil {
			return err
		}
		cur.JoinToken = convID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	s.log.WithField("session_id", sess.ID).WithField("conversation_id", convID).Info("conversation started")
	return &ConversationStart{ConversationID: convID, AgentID: agentID}, nil
}

// StartRoom mints realtime media credentials for the employee and the AI
// interviewer in the session's room.
func (s *Service) StartRoom(ctx context.Context, req RoomRequest) (*Room, error) {
	if strings.TrimSpace(req.ParticipantName) == "" {
		return nil, apperr.Missing("participantName")
	}
	c, sess, err := s.pair(ctx, req.InterviewID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := startable(c, sess); err != nil {
		return nil, err
	}
	ttl, err := media.ParseTTL(req.TTL, s.media.DefaultTTL())
	if err != nil {
		return nil, apperr.Validation("ttl", err.Error())
	}

	now := s.now()
	ms := now.UnixMilli()
	room := fmt.Sprintf("interview-%s-%s", c.ID, sess.ID)
	employee := media.Participant{
		Identity: fmt.Sprintf("employee-%s-%d", sess.ID, ms),
		Name:     req.ParticipantName,
		Room:     room,
	}
	agent := media.Participant{
		Identity: fmt.Sprintf("ai-agent-%d", ms),
		Name:     aiInterviewerName,
		Room:     room,
	}
	employeeToken, err := s.media.Mint(employee, ttl)
	if err != nil {
		return nil, err
	}
	agentToken, err := s.media.Mint(agent, ttl)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateSession(ctx, sess.ID, func(cur *types.Session) error {
		return markStarted(cur, now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	s.log.WithField("session_id", sess.ID).WithField("room", room).Info("interview room created")

	return &Room{
		ServerURL:     s.media.ServerURL(),
		RoomName:      room,
		Participant:   RoomParticipant{Identity: employee.Identity, Name: employee.Name, Token: employeeToken},
		AIInterviewer: RoomParticipant{Identity: agent.Identity, Name: agent.Name, Token: agentToken},
		ExpiresIn:     ttl.String(),
		InterviewID:   c.ID,
		SessionID:     sess.ID,
	}, nil
}

// knownAgent accepts campaign agents and the configured default agent.
func (s *Service) knownAgent(ctx context.Context, agentID string) error {
	if strings.TrimSpace(agentID) == "" {
		return apperr.Missing("agentId")
	}
	if agentID == s.opts.DefaultAgentID {
		return nil
	}
	if _, err := s.store.FindCampaignByAgent(ctx, agentID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("agent", agentID)
		}
		return err
	}
	return nil
}

func (s *Service) ConversationToken(ctx context.Context, agentID string) (string, error) {
	if err := s.knownAgent(ctx, agentID); err != nil {
		return "", err
	}
	return s.voice.ConversationToken(ctx, agentID)
}

func (s *Service) SignedURL(ctx context.Context, agentID string) (string, error) {
	if err := s.knownAgent(ctx, agentID); err != nil {
		return "", err
	}
	return s.voice.SignedURL(ctx, agentID)
}

// CompleteSession fetches the conversation transcript, analyzes it and
// stores the session as Completed with every derived field in one write.
// A session that is already Completed returns its stored analysis without
// calling the provider.
func (s *Service) CompleteSession(ctx context.Context, sessionID, conversationID string) (*Result, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, apperr.Missing("conversationId")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Missing("sessionId")
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.JoinToken != "" && sess.JoinToken != conversationID {
		return nil, apperr.Validation("conversationId", "conversation does not belong to this session")
	}
	if sess.Status == types.SessionCompleted {
		return resultFor(sess, conversationID), nil
	}

	conv, err := s.voice.GetConversation(ctx, conversationID)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("transcript fetch failed")
		return nil, err
	}

	now := s.now()
	duration := conv.Duration()
	if duration <= 0 && sess.StartedAt != nil {
		duration = int(now.Sub(*sess.StartedAt).Seconds())
	}
	if duration < 0 {
		duration = 0
	}
	if conv.Transcript.IsEmpty() {
		s.log.WithField("session_id", sessionID).WithField("conversation_id", conversationID).Warn("empty transcript, analysis will be neutral")
	}
	analysis := extractor.Extract(conv.Transcript, duration)

	updated, err := s.store.UpdateSession(ctx, sessionID, func(cur *types.Session) error {
		if cur.Status == types.SessionCompleted {
			return nil
		}
		if cur.JoinToken == "" {
			cur.JoinToken = conversationID
		}
		cur.Apply(analysis, conv.Transcript, duration, now)
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	s.log.WithFields(map[string]interface{}{
		"session_id":   sessionID,
		"interview_id": updated.InterviewID,
		"urgent":       updated.UrgencyFlag,
		"duration_s":   updated.DurationSeconds,
	}).Info("session completed")
	return resultFor(updated, conversationID), nil
}

func resultFor(sess *types.Session, conversationID string) *Result {
	ref := sess.JoinToken
	if ref == "" {
		ref = conversationID
	}
	return &Result{
		Success:         true,
		Analysis:        sess.Analysis(),
		SessionID:       sess.ID,
		ConversationID:  ref,
		DurationSeconds: sess.DurationSeconds,
	}
}

// UpdateSession applies a client patch. Completion only happens through
// CompleteSession.
func (s *Service) UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) (*types.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Missing("sessionId")
	}
	if patch.empty() {
		return nil, apperr.Missing("data")
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCampaign(ctx, sess.InterviewID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateSession(ctx, sessionID, func(cur *types.Session) error {
		if cur.Status == types.SessionCompleted {
			return apperr.Conflict("session already completed")
		}
		now := s.now()
		if patch.Status != nil && *patch.Status != cur.Status {
			next := *patch.Status
			if !next.Valid() {
				return apperr.Validation("session_status", "unknown status "+string(next))
			}
			if next == types.SessionCompleted {
				return apperr.Validation("session_status", "sessions complete through transcript analysis")
			}
			if !cur.Status.CanTransitionTo(next) {
				return apperr.Conflict("cannot move session from " + string(cur.Status) + " to " + string(next))
			}
			if err := markStarted(cur, now); err != nil {
				return err
			}
		}
		if patch.EmployeeName != nil {
			if c.IsAnonymous {
				return apperr.Validation("employee_name", "anonymous interviews do not record names")
			}
			cur.EmployeeName = strings.TrimSpace(*patch.EmployeeName)
		}
		if patch.JoinToken != nil && *patch.JoinToken != cur.JoinToken {
			if cur.JoinToken != "" {
				return apperr.Conflict("session already has a conversation")
			}
			cur.JoinToken = strings.TrimSpace(*patch.JoinToken)
		}
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	return updated, nil
}

// HandleCallEvent applies a voice widget lifecycle callback to a session.
func (s *Service) HandleCallEvent(ctx context.Context, sessionID string, ev types.CallEvent) (*types.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Missing("sessionId")
	}
	switch ev.Type {
	case types.CallStarted:
		sess, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if sess.Status == types.SessionCompleted {
			return sess, nil
		}
		updated, err := s.store.UpdateSession(ctx, sessionID, func(cur *types.Session) error {
			if ev.ConversationID != "" {
				if cur.JoinToken != "" && cur.JoinToken != ev.ConversationID {
					return apperr.Validation("conversationId", "conversation does not belong to this session")
				}
				cur.JoinToken = ev.ConversationID
			}
			return markStarted(cur, s.now())
		})
		if err != nil {
			return nil, err
		}
		s.publish(updated)
		return updated, nil
	case types.CallEnded:
		if _, err := s.CompleteSession(ctx, sessionID, ev.ConversationID); err != nil {
			return nil, err
		}
		return s.store.GetSession(ctx, sessionID)
	case "":
		return nil, apperr.Missing("type")
	}
	return nil, apperr.Validation("type", "unknown call event "+string(ev.Type))
}
