package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
)

const identitiesTable = "identities"

var identityColumns = []string{
	"id", "email", "username", "credential_hash", "active", "admin", "email_verified",
	"storage_quota_bytes", "used_storage_bytes", "created_at", "last_login_at",
}

type identitiesRepo struct {
	db dbtx
	qb sq.StatementBuilderType
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (domain.Identity, error) {
	var (
		i         domain.Identity
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&i.ID, &i.Email, &i.Username, &i.CredentialHash, &i.Active, &i.Admin, &i.EmailVerified,
		&i.StorageQuotaBytes, &i.UsedStorageBytes, &i.CreatedAt, &lastLogin,
	)
	if err != nil {
		return domain.Identity{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		i.LastLoginAt = &t
	}
	return i, nil
}

func (r *identitiesRepo) getBy(ctx context.Context, column, value string) (domain.Identity, error) {
	row, err := queryRow(ctx, r.db, r.qb.Select(identityColumns...).
		From(identitiesTable).
		Where(sq.Eq{column: value}))
	if err != nil {
		return domain.Identity{}, err
	}
	i, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return i, nil
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	return r.getBy(ctx, "id", id)
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	return r.getBy(ctx, "email", email)
}

func (r *identitiesRepo) GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error) {
	return r.getBy(ctx, "username", username)
}

func (r *identitiesRepo) IsEmpty(ctx context.Context) (bool, error) {
	row, err := queryRow(ctx, r.db, r.qb.Select("COUNT(*)").From(identitiesTable))
	if err != nil {
		return false, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *identitiesRepo) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	rows, err := query(ctx, r.db, r.qb.Select(identityColumns...).
		From(identitiesTable).
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	created := i.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := exec(ctx, r.db, r.qb.Insert(identitiesTable).
		Columns("id", "email", "username", "credential_hash", "active", "admin", "email_verified",
			"storage_quota_bytes", "used_storage_bytes", "created_at", "updated_at").
		Values(i.ID, i.Email, i.Username, i.CredentialHash, i.Active, i.Admin, i.EmailVerified,
			i.StorageQuotaBytes, i.UsedStorageBytes, created, created))
	return mapConflict(err)
}

func (r *identitiesRepo) update(ctx context.Context, id string, set map[string]any) error {
	set["updated_at"] = time.Now().UTC()
	return expectOne(exec(ctx, r.db, r.qb.Update(identitiesTable).
		SetMap(set).
		Where(sq.Eq{"id": id})))
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, map[string]any{"credential_hash": hash})
}

func (r *identitiesRepo) UpdateQuota(ctx context.Context, id string, quotaBytes int64) error {
	return r.update(ctx, id, map[string]any{"storage_quota_bytes": quotaBytes})
}

func (r *identitiesRepo) UpdateActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, map[string]any{"active": active})
}

func (r *identitiesRepo) UpdateUsedStorage(ctx context.Context, id string, usedBytes int64) error {
	return r.update(ctx, id, map[string]any{"used_storage_bytes": usedBytes})
}

func (r *identitiesRepo) TouchLastLogin(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]any{"last_login_at": time.Now().UTC()})
}
