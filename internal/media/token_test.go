package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrvoice-go/internal/apperr"
)

func fixedMinter() *Minter {
	m := NewMinter("wss://media.test", "APIkey", "s3cret-s3cret-s3cret-s3cret", 2*time.Hour)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m
}

func TestMintCarriesRoomGrant(t *testing.T) {
	m := fixedMinter()
	tok, err := m.Mint(Participant{Identity: "employee-s1-1", Name: "Dana", Room: "interview-c1-s1"}, 0)
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "APIkey", claims.Issuer)
	assert.Equal(t, "employee-s1-1", claims.Subject)
	assert.Equal(t, "Dana", claims.Name)
	require.NotNil(t, claims.Video)
	assert.True(t, claims.Video.RoomJoin)
	assert.Equal(t, "interview-c1-s1", claims.Video.Room)
	assert.True(t, *claims.Video.CanPublish)
	assert.True(t, *claims.Video.CanSubscribe)
	assert.True(t, *claims.Video.CanPublishData)
	assert.Equal(t, m.now().Add(2*time.Hour), claims.ExpiresAt.Time)
}

func TestMintRequiresCredentials(t *testing.T) {
	m := NewMinter("wss://media.test", "", "", time.Hour)
	_, err := m.Mint(Participant{Identity: "x", Room: "r"}, time.Minute)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	tok, err := fixedMinter().Mint(Participant{Identity: "x", Room: "r"}, time.Minute)
	require.NoError(t, err)

	other := NewMinter("wss://media.test", "APIkey", "another-secret-another-secret", time.Hour)
	other.now = fixedMinter().now
	_, err = other.Verify(tok)
	assert.Error(t, err)
}

func TestParseTTL(t *testing.T) {
	d, err := ParseTTL("", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = ParseTTL("2h", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)

	d, err = ParseTTL("600", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)

	for _, bad := range []string{"-5", "0", "soon", "-1h"} {
		_, err = ParseTTL(bad, time.Hour)
		assert.Error(t, err, bad)
	}
}
