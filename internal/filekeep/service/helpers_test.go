package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store/drivers/sqlstore"
	"github.com/aussiebroadwan/filekeep/pkg/cryptox"
	"github.com/aussiebroadwan/filekeep/pkg/idx"
	"github.com/aussiebroadwan/filekeep/pkg/jwtx"
	"github.com/aussiebroadwan/filekeep/pkg/kvx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
	"github.com/aussiebroadwan/filekeep/pkg/throttle"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store      *sqlstore.Store
	kv         *kvx.Memory
	objects    *objstore.Memory
	identities *IdentityCache
	storage    *StorageService
	auth       *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlstore.Open(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slogx.Discard()
	kv := kvx.NewMemory(0, time.Hour)
	objects := objstore.NewMemory()
	identities := NewIdentityCache(kv, st, time.Minute, logger)

	codec, err := jwtx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "filekeep-test")
	require.NoError(t, err)

	env := &testEnv{
		store:      st,
		kv:         kv,
		objects:    objects,
		identities: identities,
		storage: NewStorageService(st, objects, kv, identities, StorageConfig{
			MaxUploadBytes: 1 << 20,
			StrictQuota:    true,
		}, logger),
		auth: &AuthService{
			Store:      st,
			Vault:      cryptox.NewVault("test-pepper"),
			Codec:      codec,
			Identities: identities,
			Limiter:    throttle.NewLoginLimiter(kv, 5, time.Minute, logger),
			SessionTTL: 5 * time.Minute,
		},
	}
	return env
}

// seedIdentity inserts an identity directly, skipping password hashing.
func (e *testEnv) seedIdentity(t *testing.T, quota int64) domain.Identity {
	t.Helper()
	id := idx.New().String()
	ident := domain.Identity{
		ID:                id,
		Email:             id + "@example.com",
		Username:          "user-" + id,
		CredentialHash:    "unused",
		Active:            true,
		StorageQuotaBytes: quota,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, e.store.Identities().CreateIdentity(context.Background(), ident))
	return ident
}
