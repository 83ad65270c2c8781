package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store/drivers/sqlstore"
	"github.com/aussiebroadwan/filekeep/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newIdentity(email, username string) domain.Identity {
	return domain.Identity{
		ID:             idx.New().String(),
		Email:          email,
		Username:       username,
		CredentialHash: "$argon2id$dummy",
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
}

// runStoreSuite exercises every repository method. It is shared with the
// postgres integration test.
func runStoreSuite(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.Identities().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	alice := newIdentity("alice@example.com", "alice")
	require.NoError(t, s.Identities().CreateIdentity(ctx, alice))

	empty, err = s.Identities().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	t.Run("identity lookups", func(t *testing.T) {
		got, err := s.Identities().GetIdentityByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, alice.Email, got.Email)
		require.True(t, got.Active)
		require.Nil(t, got.LastLoginAt)

		got, err = s.Identities().GetIdentityByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		got, err = s.Identities().GetIdentityByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		_, err = s.Identities().GetIdentityByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicates rejected", func(t *testing.T) {
		err := s.Identities().CreateIdentity(ctx, newIdentity("alice@example.com", "alice2"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		err = s.Identities().CreateIdentity(ctx, newIdentity("other@example.com", "alice"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("updates", func(t *testing.T) {
		ids := s.Identities()
		require.NoError(t, ids.UpdateQuota(ctx, alice.ID, 100))
		require.NoError(t, ids.UpdateUsedStorage(ctx, alice.ID, 42))
		require.NoError(t, ids.UpdatePasswordHash(ctx, alice.ID, "$argon2id$new"))
		require.NoError(t, ids.UpdateActive(ctx, alice.ID, false))
		require.NoError(t, ids.TouchLastLogin(ctx, alice.ID))

		got, err := ids.GetIdentityByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, int64(100), got.StorageQuotaBytes)
		require.Equal(t, int64(42), got.UsedStorageBytes)
		require.Equal(t, "$argon2id$new", got.CredentialHash)
		require.False(t, got.Active)
		require.NotNil(t, got.LastLoginAt)

		require.ErrorIs(t, ids.UpdateQuota(ctx, "missing", 1), store.ErrNotFound)
		require.NoError(t, ids.UpdateActive(ctx, alice.ID, true))
	})

	t.Run("list identities", func(t *testing.T) {
		bob := newIdentity("bob@example.com", "bob")
		require.NoError(t, s.Identities().CreateIdentity(ctx, bob))

		all, err := s.Identities().ListIdentities(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("file upsert keeps id", func(t *testing.T) {
		files := s.Files()
		first, err := files.UpsertFile(ctx, domain.FileRecord{
			ID:           idx.New().String(),
			OwnerID:      alice.ID,
			StoredName:   "model.ifc",
			OriginalName: "model.ifc",
			SizeBytes:    10,
			ContentType:  "application/octet-stream",
			StoragePath:  domain.StoragePath(alice.ID, "model.ifc"),
		})
		require.NoError(t, err)

		second, err := files.UpsertFile(ctx, domain.FileRecord{
			ID:           idx.New().String(),
			OwnerID:      alice.ID,
			StoredName:   "model.ifc",
			OriginalName: "My Model.ifc",
			SizeBytes:    25,
			StoragePath:  domain.StoragePath(alice.ID, "model.ifc"),
		})
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, int64(25), second.SizeBytes)
		require.Equal(t, "My Model.ifc", second.OriginalName)

		got, err := files.GetFile(ctx, alice.ID, "model.ifc")
		require.NoError(t, err)
		require.Equal(t, int64(25), got.SizeBytes)

		list, err := files.ListFiles(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("file delete", func(t *testing.T) {
		files := s.Files()
		require.NoError(t, files.DeleteFile(ctx, alice.ID, "model.ifc"))
		require.ErrorIs(t, files.DeleteFile(ctx, alice.ID, "model.ifc"), store.ErrNotFound)

		_, err := files.GetFile(ctx, alice.ID, "model.ifc")
		require.ErrorIs(t, err, store.ErrNotFound)

		list, err := files.ListFiles(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("transactions", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Identities().UpdateQuota(ctx, alice.ID, 555); err != nil {
				return err
			}
			return store.ErrNotFound // force rollback
		})
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := s.Identities().GetIdentityByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, int64(100), got.StorageQuotaBytes)

		require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Identities().UpdateQuota(ctx, alice.ID, 777)
		}))
		got, err = s.Identities().GetIdentityByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, int64(777), got.StorageQuotaBytes)
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newSQLite(t))
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	s := newSQLite(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]sqlstore.Dialect{
		"sqlite":     sqlstore.DialectSQLite,
		"SQLite3":    sqlstore.DialectSQLite,
		"postgres":   sqlstore.DialectPostgres,
		"postgresql": sqlstore.DialectPostgres,
		"pgx":        sqlstore.DialectPostgres,
	} {
		got, err := sqlstore.ParseDialect(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := sqlstore.ParseDialect("mysql")
	require.Error(t, err)
}
