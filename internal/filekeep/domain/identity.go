package domain

import "time"

// DefaultQuotaBytes applies when an identity carries no explicit quota.
const DefaultQuotaBytes int64 = 1 << 30

type Identity struct {
	ID                string
	Email             string // lower-cased
	Username          string
	CredentialHash    string // argon2id PHC string
	Active            bool
	Admin             bool
	EmailVerified     bool
	StorageQuotaBytes int64 // 0 means the service default
	UsedStorageBytes  int64 // refreshed after writes and by housekeeping
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}

// EffectiveQuota resolves a zero quota to def.
func (i Identity) EffectiveQuota(def int64) int64 {
	if i.StorageQuotaBytes > 0 {
		return i.StorageQuotaBytes
	}
	return def
}

// Scopes granted to sessions of this identity.
func (i Identity) Scopes() []string {
	if i.Admin {
		return []string{"files", "admin"}
	}
	return []string{"files"}
}

// Session is an issued bearer token.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}
