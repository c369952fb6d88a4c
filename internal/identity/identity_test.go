package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextResolver(t *testing.T) {
	var r Resolver = ContextResolver{}

	_, ok := r.ResolveCurrentUser(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: "user-1", Roles: []string{"admin"}})
	id, ok := r.ResolveCurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", id)
}

func TestTokenVerifierRoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret", "tkd-core")
	token, err := v.Sign(Principal{UserID: "user-1", Roles: []string{"admin"}}, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.True(t, p.HasRole("admin"))
	assert.False(t, p.HasRole("coach"))
}

func TestTokenVerifierRejects(t *testing.T) {
	signer := NewTokenVerifier("other", "tkd-core")
	token, err := signer.Sign(Principal{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenVerifier("secret", "tkd-core").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenVerifier("secret", "elsewhere")
	token, err = wrongIssuer.Sign(Principal{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)
	_, err = NewTokenVerifier("secret", "tkd-core").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenVerifier("secret", "")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err = expired.Sign(Principal{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)
	_, err = NewTokenVerifier("secret", "").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
