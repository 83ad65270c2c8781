package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/aussiebroadwan/filekeep/pkg/kvx"
)

const DefaultIdentityTTL = 5 * time.Minute

// IdentityCache is a cache-aside view of identities. Reads after an
// Invalidate see the durable state; writes nobody invalidated may be served
// stale until the TTL runs out. The credential hash is never cached, so
// cached identities must not be used for password checks.
//
// The email key only stores the id, so invalidating the id key is enough to
// force a fresh read through either lookup.
type IdentityCache struct {
	KV     kvx.Store
	Store  store.Store
	TTL    time.Duration
	Logger *slog.Logger
}

func NewIdentityCache(kv kvx.Store, st store.Store, ttl time.Duration, logger *slog.Logger) *IdentityCache {
	if ttl <= 0 {
		ttl = DefaultIdentityTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityCache{KV: kv, Store: st, TTL: ttl, Logger: logger}
}

func identityIDKey(id string) string       { return "identity:id:" + id }
func identityEmailKey(email string) string { return "identity:email:" + email }

// identitySnapshot lists the cached fields explicitly.
type identitySnapshot struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	Active            bool       `json:"active"`
	Admin             bool       `json:"admin"`
	EmailVerified     bool       `json:"email_verified"`
	StorageQuotaBytes int64      `json:"storage_quota_bytes"`
	UsedStorageBytes  int64      `json:"used_storage_bytes"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

func snapshotOf(i domain.Identity) identitySnapshot {
	return identitySnapshot{
		ID:                i.ID,
		Email:             i.Email,
		Username:          i.Username,
		Active:            i.Active,
		Admin:             i.Admin,
		EmailVerified:     i.EmailVerified,
		StorageQuotaBytes: i.StorageQuotaBytes,
		UsedStorageBytes:  i.UsedStorageBytes,
		CreatedAt:         i.CreatedAt,
		LastLoginAt:       i.LastLoginAt,
	}
}

func (s identitySnapshot) identity() domain.Identity {
	return domain.Identity{
		ID:                s.ID,
		Email:             s.Email,
		Username:          s.Username,
		Active:            s.Active,
		Admin:             s.Admin,
		EmailVerified:     s.EmailVerified,
		StorageQuotaBytes: s.StorageQuotaBytes,
		UsedStorageBytes:  s.UsedStorageBytes,
		CreatedAt:         s.CreatedAt,
		LastLoginAt:       s.LastLoginAt,
	}
}

// GetByID returns store.ErrNotFound when no identity exists.
func (c *IdentityCache) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	if raw, ok := c.get(ctx, identityIDKey(id)); ok {
		var snap identitySnapshot
		if err := json.Unmarshal(raw, &snap); err == nil && snap.ID == id {
			cacheLookups.WithLabelValues("identity", "hit").Inc()
			return snap.identity(), nil
		}
	}
	cacheLookups.WithLabelValues("identity", "miss").Inc()

	ident, err := c.Store.Identities().GetIdentityByID(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}
	c.populate(ctx, ident)
	return ident, nil
}

// GetByEmail expects a lower-cased email.
func (c *IdentityCache) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	if raw, ok := c.get(ctx, identityEmailKey(email)); ok {
		ident, err := c.GetByID(ctx, string(raw))
		if err == nil && ident.Email == email {
			return ident, nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, err
		}
	}

	ident, err := c.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, err
	}
	c.populate(ctx, ident)
	return ident, nil
}

// Invalidate drops both keys of ident.
func (c *IdentityCache) Invalidate(ctx context.Context, ident domain.Identity) {
	c.del(ctx, identityIDKey(ident.ID), identityEmailKey(ident.Email))
}

func (c *IdentityCache) InvalidateID(ctx context.Context, id string) {
	c.del(ctx, identityIDKey(id))
}

func (c *IdentityCache) InvalidateEmail(ctx context.Context, email string) {
	c.del(ctx, identityEmailKey(email))
}

func (c *IdentityCache) populate(ctx context.Context, ident domain.Identity) {
	raw, err := json.Marshal(snapshotOf(ident))
	if err != nil {
		return
	}
	if err := c.KV.Set(ctx, identityIDKey(ident.ID), raw, c.TTL); err != nil {
		c.Logger.Debug("identity cache write failed", "error", err)
		return
	}
	if err := c.KV.Set(ctx, identityEmailKey(ident.Email), []byte(ident.ID), c.TTL); err != nil {
		c.Logger.Debug("identity cache write failed", "error", err)
	}
}

func (c *IdentityCache) get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.KV.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvx.ErrMiss) {
			c.Logger.Debug("identity cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return raw, true
}

func (c *IdentityCache) del(ctx context.Context, keys ...string) {
	if err := c.KV.Delete(ctx, keys...); err != nil {
		c.Logger.Debug("identity cache invalidate failed", "keys", keys, "error", err)
	}
}
