package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/types"
)

const providerName = "voice provider"

// Client talks to the conversational voice API (ElevenLabs convai). Build one per
// process and Close it on shutdown. Calls are never retried.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.Component("voice"),
	}
}

func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

type AgentSpec struct {
	Name         string
	Prompt       string
	FirstMessage string
}

type createAgentRequest struct {
	Name               string             `json:"name"`
	ConversationConfig conversationConfig `json:"conversation_config"`
}

type conversationConfig struct {
	Agent agentConfig `json:"agent"`
}

type agentConfig struct {
	Prompt       promptConfig `json:"prompt"`
	FirstMessage string       `json:"first_message,omitempty"`
}

type promptConfig struct {
	Prompt string `json:"prompt"`
}

// CreateAgent registers an agent configured with the given system prompt.
func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) (string, error) {
	body := createAgentRequest{
		Name: spec.Name,
		ConversationConfig: conversationConfig{Agent: agentConfig{
			Prompt:       promptConfig{Prompt: spec.Prompt},
			FirstMessage: spec.FirstMessage,
		}},
	}
	var resp struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/convai/agents/create", body, &resp); err != nil {
		return "", err
	}
	if resp.AgentID == "" {
		return "", apperr.Upstream(providerName, http.StatusBadGateway, "agent_id missing from response")
	}
	c.log.WithField("agent_id", resp.AgentID).Info("agent created")
	return resp.AgentID, nil
}

// CreateConversation opens a conversation on agentID tagged with metadata.
func (c *Client) CreateConversation(ctx context.Context, agentID string, metadata map[string]any) (string, error) {
	body := map[string]any{
		"agent_id": agentID,
		"metadata": metadata,
	}
	var resp struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/convai/conversations", body, &resp); err != nil {
		return "", err
	}
	if resp.ConversationID == "" {
		return "", apperr.Upstream(providerName, http.StatusBadGateway, "conversation_id missing from response")
	}
	return resp.ConversationID, nil
}

// ConversationToken is a short-lived token for client-side widget embedding.
func (c *Client) ConversationToken(ctx context.Context, agentID string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	path := "/v1/convai/conversation/token?agent_id=" + url.QueryEscape(agentID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) SignedURL(ctx context.Context, agentID string) (string, error) {
	var resp struct {
		SignedURL string `json:"signed_url"`
	}
	path := "/v1/convai/conversation/get-signed-url?agent_id=" + url.QueryEscape(agentID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.SignedURL, nil
}

type Conversation struct {
	ConversationID string           `json:"conversation_id"`
	AgentID        string           `json:"agent_id"`
	Status         string           `json:"status"`
	Transcript     types.Transcript `json:"transcript"`
	Metadata       struct {
		DurationSeconds  float64 `json:"duration_seconds"`
		CallDurationSecs float64 `json:"call_duration_secs"`
	} `json:"metadata"`
}

// Duration is the call length in whole seconds; zero when the provider omits it.
func (c Conversation) Duration() int {
	d := c.Metadata.DurationSeconds
	if d <= 0 {
		d = c.Metadata.CallDurationSecs
	}
	if d <= 0 {
		return 0
	}
	return int(d)
}

// GetConversation fetches a finished conversation including its transcript.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var conv Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/v1/convai/conversations/"+url.PathEscape(conversationID), nil, &conv); err != nil {
		return nil, err
	}
	if conv.ConversationID == "" {
		conv.ConversationID = conversationID
	}
	return &conv, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, target any) error {
	if c.apiKey == "" {
		return apperr.Config("ELEVENLABS_API_KEY")
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperr.Internal("encode provider request", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Internal("build provider request", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithField("method", method).WithField("path", req.URL.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithField("error", err.Error()).Warn("provider request failed")
		return apperr.UpstreamTransport(providerName, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	log.WithField("http_status", resp.StatusCode).Debug("provider responded")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("http_status", resp.StatusCode).WithField("body", string(raw)).Warn("provider returned error")
		return apperr.Upstream(providerName, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return apperr.Upstream(providerName, http.StatusBadGateway, fmt.Sprintf("json decode error: %v body=%s", err, string(raw)))
	}
	return nil
}
