package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()

	tokens, err := NewTokens(TokenConfig{
		Secret:     "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		VerifyTTL:  time.Hour,
	})
	require.NoError(t, err)

	return tokens
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := NewTokens(TokenConfig{})
	assert.Error(t, err)
}

func TestIssuePairRoundTrip(t *testing.T) {
	tokens := newTestTokens(t)

	pair, err := tokens.IssuePair(7, "a@example.com")
	require.NoError(t, err)

	claims, err := tokens.Parse(pair.Access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)

	claims, err = tokens.Parse(pair.Refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestParseRejectsWrongType(t *testing.T) {
	tokens := newTestTokens(t)

	verify, err := tokens.IssueVerification(3)
	require.NoError(t, err)

	_, err = tokens.Parse(verify, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	pair, err := tokens.IssuePair(3, "b@example.com")
	require.NoError(t, err)

	_, err = tokens.Parse(pair.Refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	tokens := newTestTokens(t)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	access, err := tokens.IssueAccess(1, "c@example.com")
	require.NoError(t, err)

	tokens.now = time.Now

	_, err = tokens.Parse(access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	tokens := newTestTokens(t)
	other, err := NewTokens(TokenConfig{Secret: "other", AccessTTL: time.Hour})
	require.NoError(t, err)

	access, err := other.IssueAccess(1, "d@example.com")
	require.NoError(t, err)

	_, err = tokens.Parse(access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}
