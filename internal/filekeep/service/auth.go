package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/aussiebroadwan/filekeep/pkg/cryptox"
	"github.com/aussiebroadwan/filekeep/pkg/idx"
	"github.com/aussiebroadwan/filekeep/pkg/jwtx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
	"github.com/aussiebroadwan/filekeep/pkg/throttle"
)

const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

type AuthService struct {
	Store      store.Store
	Vault      *cryptox.Vault
	Codec      *jwtx.Codec
	Identities *IdentityCache
	Limiter    *throttle.LoginLimiter
	SessionTTL time.Duration
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active identity. The very first identity becomes an
// administrator.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.Identity{}, fmt.Errorf("%w: email", domain.ErrInvalidInput)
	}
	if !usernamePattern.MatchString(username) {
		return domain.Identity{}, fmt.Errorf("%w: username", domain.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return domain.Identity{}, domain.ErrWeakPassword
	}

	hash, err := s.Vault.Hash(password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.Identity{}, err
	}

	ident := domain.Identity{
		ID:             idx.New().String(),
		Email:          email,
		Username:       username,
		CredentialHash: hash,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Identities().GetIdentityByEmail(ctx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := tx.Identities().GetIdentityByUsername(ctx, username); err == nil {
			return domain.ErrUsernameTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		empty, err := tx.Identities().IsEmpty(ctx)
		if err != nil {
			return err
		}
		ident.Admin = empty

		return tx.Identities().CreateIdentity(ctx, ident)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// lost a race with a concurrent registration
		return domain.Identity{}, s.conflictCause(ctx, email, username)
	}
	if err != nil {
		return domain.Identity{}, err
	}

	s.Identities.InvalidateEmail(ctx, email)
	l.Info("identity registered", "identity_id", ident.ID, "admin", ident.Admin)
	return ident, nil
}

// conflictCause reports which unique field a concurrent registration took.
func (s *AuthService) conflictCause(ctx context.Context, email, username string) error {
	if _, err := s.Store.Identities().GetIdentityByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	}
	if _, err := s.Store.Identities().GetIdentityByUsername(ctx, username); err == nil {
		return domain.ErrUsernameTaken
	}
	return domain.ErrEmailTaken
}

// Login checks the limiter before touching credentials. Every credential
// failure yields the same ErrNotAuthenticated.
func (s *AuthService) Login(ctx context.Context, clientAddr, email, password string) (domain.Session, error) {
	l := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	if d := s.Limiter.CheckAndRecord(ctx, clientAddr, email); !d.Allowed {
		l.Warn("login throttled", "client_addr", clientAddr, "attempts", d.Count)
		return domain.Session{}, &domain.ThrottledError{RetryAfter: d.RetryAfter}
	}

	// Credentials come from the durable store, never the cache.
	ident, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.Vault.Decoy(password)
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	if err != nil {
		return domain.Session{}, err
	}

	if !s.Vault.Verify(password, ident.CredentialHash) {
		l.Info("login rejected", "identity_id", ident.ID)
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	if !ident.Active {
		l.Info("login for inactive identity", "identity_id", ident.ID)
		return domain.Session{}, domain.ErrNotAuthenticated
	}

	token, exp, err := s.Codec.Issue(ident.ID, s.sessionTTL())
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.Store.Identities().TouchLastLogin(ctx, ident.ID); err != nil {
		l.Warn("failed to record last login", "identity_id", ident.ID, "error", err)
	}
	s.Identities.Invalidate(ctx, ident)

	ident.CredentialHash = ""
	return domain.Session{AccessToken: token, ExpiresAt: exp, Identity: ident}, nil
}

// Authenticate resolves a session token to an active identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	subject, err := s.Codec.Verify(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}
	ident, err := s.Identities.GetByID(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	if err != nil {
		return domain.Identity{}, err
	}
	if !ident.Active {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	return ident, nil
}

// ChangePassword requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, id, current, next string) error {
	ident, err := s.Store.Identities().GetIdentityByID(ctx, id)
	if err != nil {
		return mapIdentityErr(err)
	}
	if !s.Vault.Verify(current, ident.CredentialHash) {
		return domain.ErrNotAuthenticated
	}
	if len(next) < MinPasswordLength {
		return domain.ErrWeakPassword
	}

	hash, err := s.Vault.Hash(next)
	if err != nil {
		return err
	}
	if err := s.Store.Identities().UpdatePasswordHash(ctx, id, hash); err != nil {
		return mapIdentityErr(err)
	}
	s.Identities.Invalidate(ctx, ident)
	return nil
}

// SetQuota sets an explicit quota; 0 restores the default.
func (s *AuthService) SetQuota(ctx context.Context, id string, quotaBytes int64) (domain.Identity, error) {
	if quotaBytes < 0 {
		return domain.Identity{}, fmt.Errorf("%w: quota must not be negative", domain.ErrInvalidInput)
	}
	if err := s.Store.Identities().UpdateQuota(ctx, id, quotaBytes); err != nil {
		return domain.Identity{}, mapIdentityErr(err)
	}
	s.Identities.InvalidateID(ctx, id)
	return s.Identities.GetByID(ctx, id)
}

// SetActive enables or disables an identity. Existing sessions of a
// disabled identity stop working on their next request.
func (s *AuthService) SetActive(ctx context.Context, id string, active bool) (domain.Identity, error) {
	if err := s.Store.Identities().UpdateActive(ctx, id, active); err != nil {
		return domain.Identity{}, mapIdentityErr(err)
	}
	s.Identities.InvalidateID(ctx, id)
	return s.Identities.GetByID(ctx, id)
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func mapIdentityErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrIdentityNotFound
	}
	return err
}
