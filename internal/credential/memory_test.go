package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
)

func validCred() auth.Credential {
	return auth.Credential{
		AccessToken:  "t1",
		RefreshToken: "r1",
		Role:         auth.RoleDistributor,
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "sid", validCred()))

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, validCred(), got)
}

func TestMemoryStore_RejectsHalfWrittenCredential(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Put(ctx, "sid", auth.Credential{AccessToken: "t1"})
	assert.ErrorIs(t, err, ErrInvalidCredential, "token without role must be rejected")

	err = store.Put(ctx, "sid", auth.Credential{Role: auth.RoleCustomer})
	assert.ErrorIs(t, err, ErrInvalidCredential, "role without token must be rejected")

	_, err = store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoCredential, "rejected writes leave nothing behind")
}

func TestMemoryStore_ReplaceAccessToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "sid", validCred()))

	require.NoError(t, store.ReplaceAccessToken(ctx, "sid", "t2"))

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "t2", got.AccessToken)
	assert.Equal(t, "r1", got.RefreshToken, "refresh token is untouched")
	assert.Equal(t, auth.RoleDistributor, got.Role, "role is untouched")
}

func TestMemoryStore_ReplaceAccessToken_NoCredential(t *testing.T) {
	store := NewMemoryStore()
	err := store.ReplaceAccessToken(context.Background(), "missing", "t2")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "sid", validCred()))

	require.NoError(t, store.Clear(ctx, "sid"))
	require.NoError(t, store.Clear(ctx, "sid"), "clearing an empty session is not an error")

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestMemoryStore_ChallengeAndCredentialAreExclusive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "sid", validCred()))
	require.NoError(t, store.PutChallenge(ctx, "sid", auth.PendingOTPChallenge{Email: "a@b.com"}))

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoCredential, "challenge write discards the credential")

	require.NoError(t, store.Put(ctx, "sid", validCred()))
	_, err = store.TakeChallenge(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoChallenge, "credential write discards the challenge")
}

func TestMemoryStore_TakeChallengeConsumes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.PutChallenge(ctx, "sid", auth.PendingOTPChallenge{Email: "a@b.com"}))

	ch, err := store.TakeChallenge(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", ch.Email)

	_, err = store.TakeChallenge(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoChallenge, "a challenge can be taken only once")
}

func TestMemoryStore_ExpiredCredentialIsGone(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	store.nowFunc = func() time.Time { return now }
	require.NoError(t, store.Put(ctx, "sid", validCred()))

	store.nowFunc = func() time.Time { return now.Add(DefaultTTL + time.Minute) }

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoCredential)

	err = store.ReplaceAccessToken(ctx, "sid", "t2")
	assert.ErrorIs(t, err, ErrNoCredential)
}
