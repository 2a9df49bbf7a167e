package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/eventhub/config"
)

func newTestIssuer() *Issuer {
	return NewIssuer(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "eventhub-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		VerifyTTL:  72 * time.Hour,
	})
}

func TestIssuePairAndParse(t *testing.T) {
	iss := newTestIssuer()

	pair, err := iss.IssuePair("user-1")
	require.NoError(t, err)

	c, err := iss.Parse(pair.Access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID())
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "eventhub-test", c.Issuer)

	r, err := iss.Parse(pair.Refresh, TokenRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, r.ID)
}

func TestParse_WrongType(t *testing.T) {
	iss := newTestIssuer()
	tok, err := iss.Generate("user-1", TokenRefresh)
	require.NoError(t, err)

	_, err = iss.Parse(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestParse_Expired(t *testing.T) {
	iss := newTestIssuer()
	base := time.Now()
	iss.now = func() time.Time { return base }
	tok, err := iss.Generate("user-1", TokenAccess)
	require.NoError(t, err)

	iss.now = func() time.Time { return base.Add(16 * time.Minute) }
	_, err = iss.Parse(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_BadSignature(t *testing.T) {
	tok, err := newTestIssuer().Generate("user-1", TokenAccess)
	require.NoError(t, err)

	other := NewIssuer(config.JWTConfig{Secret: "other", Issuer: "eventhub-test", AccessTTL: time.Minute})
	_, err = other.Parse(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newTestIssuer().Parse("not-a-jwt", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsRemaining(t *testing.T) {
	iss := newTestIssuer()
	now := time.Now()
	iss.now = func() time.Time { return now }
	tok, err := iss.Generate("user-1", TokenAccess)
	require.NoError(t, err)
	c, err := iss.Parse(tok, TokenAccess)
	require.NoError(t, err)

	rem := c.Remaining(now)
	assert.InDelta(t, (15 * time.Minute).Seconds(), rem.Seconds(), 1)
	assert.Zero(t, c.Remaining(now.Add(time.Hour)))
}
