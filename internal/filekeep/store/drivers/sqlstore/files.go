package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
)

const filesTable = "files"

var fileColumns = []string{
	"id", "owner_id", "stored_name", "original_name", "size_bytes", "content_type",
	"storage_path", "is_public", "created_at", "updated_at",
}

type filesRepo struct {
	db dbtx
	qb sq.StatementBuilderType
}

func scanFile(row rowScanner) (domain.FileRecord, error) {
	var f domain.FileRecord
	err := row.Scan(&f.ID, &f.OwnerID, &f.StoredName, &f.OriginalName, &f.SizeBytes,
		&f.ContentType, &f.StoragePath, &f.IsPublic, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

const upsertSuffix = `ON CONFLICT (owner_id, stored_name) DO UPDATE SET
	original_name = excluded.original_name,
	size_bytes = excluded.size_bytes,
	content_type = excluded.content_type,
	storage_path = excluded.storage_path,
	updated_at = excluded.updated_at
RETURNING id, owner_id, stored_name, original_name, size_bytes, content_type, storage_path, is_public, created_at, updated_at`

func (r *filesRepo) UpsertFile(ctx context.Context, f domain.FileRecord) (domain.FileRecord, error) {
	now := f.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	row, err := queryRow(ctx, r.db, r.qb.Insert(filesTable).
		Columns(fileColumns...).
		Values(f.ID, f.OwnerID, f.StoredName, f.OriginalName, f.SizeBytes, f.ContentType,
			f.StoragePath, f.IsPublic, now, now).
		Suffix(upsertSuffix))
	if err != nil {
		return domain.FileRecord{}, err
	}
	out, err := scanFile(row)
	if err != nil {
		return domain.FileRecord{}, mapConflict(err)
	}
	return out, nil
}

func (r *filesRepo) GetFile(ctx context.Context, ownerID, storedName string) (domain.FileRecord, error) {
	row, err := queryRow(ctx, r.db, r.qb.Select(fileColumns...).
		From(filesTable).
		Where(sq.Eq{"owner_id": ownerID, "stored_name": storedName}))
	if err != nil {
		return domain.FileRecord{}, err
	}
	f, err := scanFile(row)
	if err != nil {
		return domain.FileRecord{}, mapNotFound(err)
	}
	return f, nil
}

func (r *filesRepo) ListFiles(ctx context.Context, ownerID string) ([]domain.FileRecord, error) {
	rows, err := query(ctx, r.db, r.qb.Select(fileColumns...).
		From(filesTable).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FileRecord{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *filesRepo) DeleteFile(ctx context.Context, ownerID, storedName string) error {
	return expectOne(exec(ctx, r.db, r.qb.Delete(filesTable).
		Where(sq.Eq{"owner_id": ownerID, "stored_name": storedName})))
}
