// Package media mints join tokens for the realtime media service (LiveKit).
package media

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hrvoice-go/internal/apperr"
)

// VideoGrant mirrors the room permissions the media server reads from a token.
type VideoGrant struct {
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	Room           string `json:"room,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

type Claims struct {
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
	jwt.RegisteredClaims
}

type Participant struct {
	Identity string
	Name     string
	Room     string
}

type Minter struct {
	serverURL  string
	apiKey     string
	apiSecret  string
	defaultTTL time.Duration
	now        func() time.Time
}

func NewMinter(serverURL, apiKey, apiSecret string, defaultTTL time.Duration) *Minter {
	return &Minter{
		serverURL:  serverURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (m *Minter) ServerURL() string { return m.serverURL }

func (m *Minter) DefaultTTL() time.Duration { return m.defaultTTL }

// Mint signs a room-join token for p valid for ttl.
func (m *Minter) Mint(p Participant, ttl time.Duration) (string, error) {
	if m.apiKey == "" {
		return "", apperr.Config("LIVEKIT_API_KEY")
	}
	if m.apiSecret == "" {
		return "", apperr.Config("LIVEKIT_API_SECRET")
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	yes := true
	now := m.now()
	claims := Claims{
		Name: p.Name,
		Video: &VideoGrant{
			RoomJoin:       true,
			Room:           p.Room,
			CanPublish:     &yes,
			CanSubscribe:   &yes,
			CanPublishData: &yes,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.apiKey,
			Subject:   p.Identity,
			ID:        p.Identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.apiSecret))
	if err != nil {
		return "", apperr.Internal("sign media token", err)
	}
	return signed, nil
}

// Verify parses a token minted with this minter's secret.
func (m *Minter) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(m.apiKey), jwt.WithTimeFunc(m.now))
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(m.apiSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseTTL accepts Go durations ("2h", "90m") or bare seconds ("3600").
// Empty input yields fallback.
func ParseTTL(s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("ttl must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ttl must be positive")
	}
	return d, nil
}
