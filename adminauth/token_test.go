package adminauth_test

import (
	"testing"
	"time"

	"github.com/essexfb/backend/adminauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	key := []byte("test-signing-key")
	session := &adminauth.Session{
		ID:            uuid.New().String(),
		Authenticated: true,
		IssuedAt:      time.Now(),
		ExpiresAt:     time.Now().Add(30 * time.Minute),
	}

	token, err := adminauth.IssueToken(session, key)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := adminauth.ValidateToken(token, key)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID)
}

func TestTokenWrongKeyFails(t *testing.T) {
	session := &adminauth.Session{
		ID:        uuid.New().String(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	token, err := adminauth.IssueToken(session, []byte("right-key"))
	require.NoError(t, err)

	_, err = adminauth.ValidateToken(token, []byte("wrong-key"))
	require.Error(t, err)
}

func TestTokenGarbageFails(t *testing.T) {
	_, err := adminauth.ValidateToken("not-a-token", []byte("key"))
	require.Error(t, err)
}
