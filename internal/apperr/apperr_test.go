package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Missing("title"), http.StatusBadRequest},
		{NotFound("session", "s1"), http.StatusNotFound},
		{Unauthorized("missing bearer token"), http.StatusUnauthorized},
		{Conflict("session already completed"), http.StatusConflict},
		{Upstream("voice provider", 404, `{"detail":"not found"}`), http.StatusNotFound},
		{Upstream("voice provider", 200, ""), http.StatusBadGateway},
		{UpstreamTransport("voice provider", errors.New("dial tcp")), http.StatusBadGateway},
		{Config("ELEVENLABS_API_KEY"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("complete session: %w", NotFound("session", "s1"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestPayloadCarriesDetails(t *testing.T) {
	p := Payload(Upstream("voice provider", 500, "rate limited"))
	assert.Equal(t, map[string]string{"error": "voice provider request failed", "details": "rate limited"}, p)

	p = Payload(Missing("target_employees"))
	assert.Equal(t, "missing required field: target_employees", p["error"])
	assert.Equal(t, "target_employees", p["details"])

	assert.Equal(t, map[string]string{"error": "plain"}, Payload(errors.New("plain")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Internal("database error", errors.New("conn reset"))
	assert.Equal(t, "database error: conn reset", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
