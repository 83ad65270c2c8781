package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestIdentityCacheHitSkipsStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ident := env.seedIdentity(t, 100)

	first, err := env.identities.GetByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), first.StorageQuotaBytes)

	// an un-invalidated write stays invisible until the TTL runs out
	require.NoError(t, env.store.Identities().UpdateQuota(ctx, ident.ID, 200))
	cached, err := env.identities.GetByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), cached.StorageQuotaBytes)
}

func TestIdentityCacheInvalidateAfterQuotaUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ident := env.seedIdentity(t, 100)

	_, err := env.identities.GetByEmail(ctx, ident.Email)
	require.NoError(t, err)

	require.NoError(t, env.store.Identities().UpdateQuota(ctx, ident.ID, 200))
	env.identities.Invalidate(ctx, ident)

	byID, err := env.identities.GetByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Equal(t, int64(200), byID.StorageQuotaBytes)

	byEmail, err := env.identities.GetByEmail(ctx, ident.Email)
	require.NoError(t, err)
	require.Equal(t, int64(200), byEmail.StorageQuotaBytes)
}

func TestIdentityCacheInvalidateIDCoversEmailLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ident := env.seedIdentity(t, 100)

	_, err := env.identities.GetByEmail(ctx, ident.Email)
	require.NoError(t, err)

	require.NoError(t, env.store.Identities().UpdateActive(ctx, ident.ID, false))
	env.identities.InvalidateID(ctx, ident.ID)

	got, err := env.identities.GetByEmail(ctx, ident.Email)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestIdentityCacheNeverStoresCredentialHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ident := env.seedIdentity(t, 0)

	fresh, err := env.identities.GetByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Equal(t, "unused", fresh.CredentialHash, "miss path returns the store row")

	raw, err := env.kv.Get(ctx, identityIDKey(ident.ID))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "unused")

	cached, err := env.identities.GetByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Empty(t, cached.CredentialHash)
}

func TestIdentityCacheNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.identities.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.identities.GetByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

type downKV struct{}

func (downKV) Get(context.Context, string) ([]byte, error)              { return nil, errors.New("down") }
func (downKV) Set(context.Context, string, []byte, time.Duration) error { return errors.New("down") }
func (downKV) Delete(context.Context, ...string) error                  { return errors.New("down") }
func (downKV) Ping(context.Context) error                               { return errors.New("down") }

func TestIdentityCacheBackendDownFallsThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ident := env.seedIdentity(t, 100)

	c := NewIdentityCache(downKV{}, env.store, time.Minute, slogx.Discard())
	got, err := c.GetByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Equal(t, ident.Email, got.Email)

	require.NoError(t, env.store.Identities().UpdateQuota(ctx, ident.ID, 300))
	c.Invalidate(ctx, ident)

	got, err = c.GetByEmail(ctx, ident.Email)
	require.NoError(t, err)
	require.Equal(t, int64(300), got.StorageQuotaBytes)
}
