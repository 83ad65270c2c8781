package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers expose sub-repositories
// so a transaction-scoped Store can hand out the same repos.
type Store interface {
	Identities() Identities
	Files() Files

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST call Commit() or
	// Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityByEmail expects an already lower-cased email.
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)

	GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error)

	// IsEmpty reports whether no identity exists yet.
	IsEmpty(ctx context.Context) (bool, error)

	// ListIdentities returns every identity ordered by id.
	ListIdentities(ctx context.Context) ([]domain.Identity, error)

	// CreateIdentity inserts a new identity. Duplicate email or username
	// yields ErrAlreadyExists.
	CreateIdentity(ctx context.Context, i domain.Identity) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateQuota(ctx context.Context, id string, quotaBytes int64) error
	UpdateActive(ctx context.Context, id string, active bool) error

	// UpdateUsedStorage overwrites the cached usage counter.
	UpdateUsedStorage(ctx context.Context, id string, usedBytes int64) error

	TouchLastLogin(ctx context.Context, id string) error
}

type Files interface {
	// UpsertFile inserts or replaces the record for (OwnerID, StoredName),
	// keeping the existing row id on replacement.
	UpsertFile(ctx context.Context, f domain.FileRecord) (domain.FileRecord, error)

	GetFile(ctx context.Context, ownerID, storedName string) (domain.FileRecord, error)

	// ListFiles returns ownerID's files, newest first.
	ListFiles(ctx context.Context, ownerID string) ([]domain.FileRecord, error)

	// DeleteFile returns ErrNotFound when no row matched.
	DeleteFile(ctx context.Context, ownerID, storedName string) error
}
