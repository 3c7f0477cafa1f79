package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theEricHoang/coal/models"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	raw, err := tokens.Issue(models.User{ID: 42, Username: "alice", Role: models.RoleStudio})
	require.NoError(t, err)

	session, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: 42, Username: "alice", Role: models.RoleStudio}, session)
	assert.False(t, session.IsAdmin())
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	raw, err := tokens.Issue(models.User{ID: 1, Username: "alice", Role: models.RoleUser})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, err := NewTokens("secret", time.Hour).Issue(models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Garbage(t *testing.T) {
	_, err := NewTokens("secret", time.Hour).Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSession_IsAdmin(t *testing.T) {
	assert.True(t, Session{UserID: 1, Role: models.RoleAdmin}.IsAdmin())
}
