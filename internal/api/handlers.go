package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/auth"
	"hrvoice-go/internal/campaign"
	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/types"
)

const (
	maxBodyBytes   = 1 << 20
	maxRosterBytes = 10 << 20
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	Service *campaign.Service
	Auth    auth.Authenticator
	Hub     *Hub
	Log     *logger.Logger
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	var in campaign.AgentInput
	if !h.decode(w, r, &in) {
		return
	}
	id, err := h.Service.CreateAgent(r.Context(), in)
	if err != nil {
		h.writeError(w, r, "create_agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"agent_id": id})
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.ensureAuth(w, r)
	if !ok {
		return
	}
	var in campaign.CampaignInput
	if !h.decode(w, r, &in) {
		return
	}
	in.CreatedBy = claims.Email
	if in.CreatedBy == "" {
		in.CreatedBy = claims.Subject
	}
	c, sessions, err := h.Service.CreateCampaign(r.Context(), in)
	if err != nil {
		h.writeError(w, r, "create_campaign", err)
		return
	}
	h.Log.WithRequest(r).WithField("interview_id", c.ID).WithField("targets", len(sessions)).Info("campaign created")
	writeJSON(w, http.StatusCreated, map[string]any{"campaign": c, "sessions": sessions})
}

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, "list_campaigns", apperr.Validation("limit", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	campaigns, err := h.Service.ListCampaigns(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, "list_campaigns", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	d, err := h.Service.CampaignDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, "get_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	var body struct {
		Status types.CampaignStatus `json:"status"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.Status == "" {
		h.writeError(w, r, "update_campaign_status", apperr.Missing("status"))
		return
	}
	c, err := h.Service.UpdateCampaignStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		h.writeError(w, r, "update_campaign_status", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) Invites(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	invites, err := h.Service.Invites(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, "invites", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invites": invites})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	exp, err := h.Service.ExportResults(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exp.Data); err != nil {
		h.Log.WithRequest(r).WithError(err).Warn("failed to write export")
	}
}

// Roster accepts a multipart spreadsheet upload in the "file" field.
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRosterBytes)
	if err := r.ParseMultipartForm(maxRosterBytes); err != nil {
		h.writeError(w, r, "roster", apperr.Validation("file", "expected a multipart upload"))
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, "roster", apperr.Missing("file"))
		return
	}
	defer f.Close()

	roster, err := h.Service.ParseRoster(f)
	if err != nil {
		h.writeError(w, r, "roster", err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Feed upgrades to a websocket streaming session changes.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ensureAuth(w, r); !ok {
		return
	}
	if err := h.Hub.Serve(w, r); err != nil {
		// the upgrader has already replied
		h.Log.WithRequest(r).WithError(err).Warn("feed upgrade failed")
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, err := h.Auth.Authenticate(r)
	if err != nil {
		h.Log.WithRequest(r).WithError(err).Warn("unauthorized request")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return auth.Claims{}, false
	}
	return claims, true
}

// decode reads a JSON body into v, replying 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		h.writeError(w, r, "decode", apperr.Validation("body", msg))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	status := apperr.HTTPStatus(err)
	entry := h.Log.WithRequest(r).WithField("handler", handler).WithField("status", status).WithField("error", err.Error())
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	writeJSON(w, status, apperr.Payload(err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
