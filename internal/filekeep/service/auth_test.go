package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.auth.Register(ctx, "  Alice@Example.com ", "alice", "correct horse")
	require.NoError(t, err)
	require.True(t, first.Admin, "first identity is an administrator")
	require.True(t, first.Active)
	require.Equal(t, "alice@example.com", first.Email)
	require.NotEqual(t, "correct horse", first.CredentialHash)

	second, err := env.auth.Register(ctx, "bob@example.com", "bob", "battery staple")
	require.NoError(t, err)
	require.False(t, second.Admin)

	tests := []struct {
		name     string
		email    string
		username string
		password string
		want     error
	}{
		{"email taken", "ALICE@example.com", "alice2", "long enough", domain.ErrEmailTaken},
		{"username taken", "carol@example.com", "alice", "long enough", domain.ErrUsernameTaken},
		{"weak password", "carol@example.com", "carol", "short", domain.ErrWeakPassword},
		{"invalid email", "not-an-email", "carol", "long enough", domain.ErrInvalidInput},
		{"display name form", "Carol <carol@example.com>", "carol", "long enough", domain.ErrInvalidInput},
		{"invalid username", "carol@example.com", "c a", "long enough", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.email, tt.username, tt.password)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ident, err := env.auth.Register(ctx, "dana@example.com", "dana", "hunter22")
	require.NoError(t, err)

	sess, err := env.auth.Login(ctx, "10.0.0.1", "DANA@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, sess.AccessToken)
	require.Empty(t, sess.Identity.CredentialHash)
	require.Equal(t, ident.ID, sess.Identity.ID)

	got, err := env.auth.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, ident.ID, got.ID)

	stored, err := env.store.Identities().GetIdentityByID(ctx, ident.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	_, err = env.auth.Login(ctx, "10.0.0.2", "dana@example.com", "wrong password")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = env.auth.Login(ctx, "10.0.0.3", "nobody@example.com", "hunter22")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = env.auth.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLoginInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ident, err := env.auth.Register(ctx, "erin@example.com", "erin", "hunter22")
	require.NoError(t, err)
	sess, err := env.auth.Login(ctx, "10.0.0.1", "erin@example.com", "hunter22")
	require.NoError(t, err)

	_, err = env.auth.SetActive(ctx, ident.ID, false)
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "10.0.0.1", "erin@example.com", "hunter22")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)

	// the open session dies with the account
	_, err = env.auth.Authenticate(ctx, sess.AccessToken)
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLoginThrottled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, "finn@example.com", "finn", "hunter22")
	require.NoError(t, err)

	for range 5 {
		_, err := env.auth.Login(ctx, "10.0.0.9", "finn@example.com", "nope-nope")
		require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	}

	// the right password does not help once throttled
	_, err = env.auth.Login(ctx, "10.0.0.9", "finn@example.com", "hunter22")
	require.ErrorIs(t, err, domain.ErrThrottled)

	var te *domain.ThrottledError
	require.True(t, errors.As(err, &te))
	require.Positive(t, te.RetryAfter)

	// other clients are unaffected
	_, err = env.auth.Login(ctx, "10.0.0.10", "finn@example.com", "hunter22")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ident, err := env.auth.Register(ctx, "gail@example.com", "gail", "hunter22")
	require.NoError(t, err)

	require.ErrorIs(t, env.auth.ChangePassword(ctx, ident.ID, "wrong", "brand new pw"), domain.ErrNotAuthenticated)
	require.ErrorIs(t, env.auth.ChangePassword(ctx, ident.ID, "hunter22", "short"), domain.ErrWeakPassword)
	require.ErrorIs(t, env.auth.ChangePassword(ctx, "missing", "hunter22", "brand new pw"), domain.ErrIdentityNotFound)

	require.NoError(t, env.auth.ChangePassword(ctx, ident.ID, "hunter22", "brand new pw"))

	_, err = env.auth.Login(ctx, "10.0.0.1", "gail@example.com", "hunter22")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = env.auth.Login(ctx, "10.0.0.1", "gail@example.com", "brand new pw")
	require.NoError(t, err)
}

func TestSetQuotaRefreshesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedIdentity(t, 0)

	// warm the cache
	_, err := env.identities.GetByID(ctx, owner.ID)
	require.NoError(t, err)

	updated, err := env.auth.SetQuota(ctx, owner.ID, 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), updated.StorageQuotaBytes)

	_, err = env.storage.Upload(ctx, owner.ID, "a.ifc", make([]byte, 11), "")
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	_, err = env.auth.SetQuota(ctx, owner.ID, -1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.auth.SetQuota(ctx, "missing", 10)
	require.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

// lateStore hides existing identities from lookups inside a transaction, as
// if a concurrent registration committed between the checks and the insert.
type lateStore struct{ store.Store }

func (s lateStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error { return fn(lateTx{tx}) })
}

type innerTx = store.Tx

type lateTx struct{ innerTx }

func (t lateTx) Identities() store.Identities { return lateIdentities{t.innerTx.Identities()} }

type lateIdentities struct{ store.Identities }

func (lateIdentities) GetIdentityByEmail(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, store.ErrNotFound
}

func (lateIdentities) GetIdentityByUsername(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, store.ErrNotFound
}

func TestRegisterConflictCause(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, "alice@example.com", "alice", "correct horse")
	require.NoError(t, err)

	racing := *env.auth
	racing.Store = lateStore{env.store}

	_, err = racing.Register(ctx, "someone@example.com", "alice", "correct horse")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = racing.Register(ctx, "alice@example.com", "alice-two", "correct horse")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}
