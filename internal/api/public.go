package api

import (
	"net/http"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/campaign"
	"hrvoice-go/internal/types"
)

// Employee-facing endpoints. They carry no caller identity; the service
// validates every interview/session pair instead.

type pairRequest struct {
	InterviewID string `json:"interviewId"`
	SessionID   string `json:"sessionId"`
}

func (h *Handler) PublicCampaign(w http.ResponseWriter, r *http.Request) {
	var body pairRequest
	if !h.decode(w, r, &body) {
		return
	}
	if body.InterviewID == "" {
		h.writeError(w, r, "public_campaign", apperr.Missing("interviewId"))
		return
	}
	p, err := h.Service.PublicCampaign(r.Context(), body.InterviewID)
	if err != nil {
		h.writeError(w, r, "public_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) InterviewData(w http.ResponseWriter, r *http.Request) {
	var body pairRequest
	if !h.decode(w, r, &body) {
		return
	}
	b, err := h.Service.InterviewBundle(r.Context(), body.InterviewID, body.SessionID)
	if err != nil {
		h.writeError(w, r, "interview_data", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InterviewID string `json:"interviewId"`
		Email       string `json:"email"`
		Name        string `json:"name"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	b, err := h.Service.JoinSession(r.Context(), body.InterviewID, body.Email, body.Name)
	if err != nil {
		h.writeError(w, r, "join", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var body pairRequest
	if !h.decode(w, r, &body) {
		return
	}
	start, err := h.Service.StartConversation(r.Context(), body.InterviewID, body.SessionID)
	if err != nil {
		h.writeError(w, r, "start_conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, start)
}

func (h *Handler) StartRoom(w http.ResponseWriter, r *http.Request) {
	var req campaign.RoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.Service.StartRoom(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "start_room", err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type agentRequest struct {
	AgentID string `json:"agentId"`
}

func (h *Handler) ConversationToken(w http.ResponseWriter, r *http.Request) {
	var body agentRequest
	if !h.decode(w, r, &body) {
		return
	}
	token, err := h.Service.ConversationToken(r.Context(), body.AgentID)
	if err != nil {
		h.writeError(w, r, "conversation_token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) SignedURL(w http.ResponseWriter, r *http.Request) {
	var body agentRequest
	if !h.decode(w, r, &body) {
		return
	}
	u, err := h.Service.SignedURL(r.Context(), body.AgentID)
	if err != nil {
		h.writeError(w, r, "signed_url", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signed_url": u})
}

// Transcript fetches and analyzes a finished conversation.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ConversationID string `json:"conversationId"`
		SessionID      string `json:"sessionId"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	res, err := h.Service.CompleteSession(r.Context(), body.SessionID, body.ConversationID)
	if err != nil {
		h.writeError(w, r, "transcript", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string                `json:"sessionId"`
		Data      campaign.SessionPatch `json:"data"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	sess, err := h.Service.UpdateSession(r.Context(), body.SessionID, body.Data)
	if err != nil {
		h.writeError(w, r, "update_session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}

func (h *Handler) SessionEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
		types.CallEvent
	}
	if !h.decode(w, r, &body) {
		return
	}
	sess, err := h.Service.HandleCallEvent(r.Context(), body.SessionID, body.CallEvent)
	if err != nil {
		h.writeError(w, r, "session_event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}
