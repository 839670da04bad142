package api

import (
	"net/http"
)

func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handler.Health)

	mux.HandleFunc("POST /api/agents", handler.CreateAgent)
	mux.HandleFunc("POST /api/campaigns", handler.CreateCampaign)
	mux.HandleFunc("GET /api/campaigns", handler.ListCampaigns)
	mux.HandleFunc("GET /api/campaigns/{id}", handler.GetCampaign)
	mux.HandleFunc("PATCH /api/campaigns/{id}/status", handler.UpdateCampaignStatus)
	mux.HandleFunc("GET /api/campaigns/{id}/invites", handler.Invites)
	mux.HandleFunc("GET /api/campaigns/{id}/export", handler.Export)
	mux.HandleFunc("POST /api/roster", handler.Roster)
	mux.HandleFunc("GET /api/dashboard", handler.Dashboard)
	mux.HandleFunc("GET /api/feed", handler.Feed)

	mux.HandleFunc("POST /api/public/campaign", handler.PublicCampaign)
	mux.HandleFunc("POST /api/public/interview-data", handler.InterviewData)
	mux.HandleFunc("POST /api/public/join", handler.Join)
	mux.HandleFunc("POST /api/public/conversations", handler.StartConversation)
	mux.HandleFunc("POST /api/public/rooms", handler.StartRoom)
	mux.HandleFunc("POST /api/public/conversation-token", handler.ConversationToken)
	mux.HandleFunc("POST /api/public/signed-url", handler.SignedURL)
	mux.HandleFunc("POST /api/public/transcript", handler.Transcript)
	mux.HandleFunc("POST /api/public/sessions/update", handler.UpdateSession)
	mux.HandleFunc("POST /api/public/sessions/events", handler.SessionEvent)

	return withRequestLog(handler.Log, mux)
}
