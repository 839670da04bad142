// Package auth identifies HR callers from bearer credentials.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

// AccessTokenParam carries the bearer on websocket upgrades, where browsers
// cannot set headers.
const AccessTokenParam = "access_token"

type Claims struct {
	Subject string
	Email   string
	Issuer  string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// MultiAuthenticator accepts a static dev token or an HS256 JWT signed with
// JWTSecret. Either may be left empty to disable it.
type MultiAuthenticator struct {
	DevToken  string
	JWTSecret string
	now       func() time.Time
}

func NewAuthenticator(devToken, jwtSecret string) *MultiAuthenticator {
	return &MultiAuthenticator{DevToken: devToken, JWTSecret: jwtSecret, now: time.Now}
}

type hrClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (a *MultiAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}

	if a.DevToken != "" && bearer == a.DevToken {
		return Claims{Subject: "dev", Issuer: "hrvoice-dev"}, nil
	}

	if a.JWTSecret != "" {
		return a.parseJWT(bearer)
	}
	return Claims{}, ErrInvalidToken
}

func (a *MultiAuthenticator) parseJWT(raw string) (Claims, error) {
	now := a.now
	if now == nil {
		now = time.Now
	}
	claims := &hrClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(now))
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.JWTSecret), nil
	})
	if err != nil || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: claims.Subject, Email: claims.Email, Issuer: claims.Issuer}, nil
}

// IssueToken signs an HS256 token accepted by Authenticate.
func IssueToken(secret, subject, email string, ttl time.Duration, now time.Time) (string, error) {
	claims := hrClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "hrvoice",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		if tok := strings.TrimSpace(r.URL.Query().Get(AccessTokenParam)); tok != "" && isUpgrade(r) {
			return tok, nil
		}
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
