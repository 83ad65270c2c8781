package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/aussiebroadwan/filekeep/pkg/idx"
	"github.com/aussiebroadwan/filekeep/pkg/kvx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

const (
	DefaultMaxUploadBytes int64 = 100 << 20
	DefaultListingTTL           = 60 * time.Second
)

var DefaultAllowedExtensions = []string{"ifc", "ifcxml", "ifczip", "frag"}

type StorageConfig struct {
	MaxUploadBytes    int64
	DefaultQuotaBytes int64
	AllowedExtensions []string
	ListingTTL        time.Duration

	// StrictQuota serialises admission per owner so concurrent uploads
	// cannot jointly exceed the quota.
	StrictQuota bool
}

// Usage is an owner's storage consumption.
type Usage struct {
	UsedBytes  int64
	QuotaBytes int64
	FileCount  int
}

// StorageService stores user files in the object store under a per-owner
// prefix, keeps the catalog in step and enforces quotas. The object store is
// the source of truth for usage.
type StorageService struct {
	Store      store.Store
	Objects    objstore.Store
	KV         kvx.Store
	Identities *IdentityCache
	Config     StorageConfig
	Logger     *slog.Logger

	allowed map[string]struct{}
	locks   *ownerLocks
}

func NewStorageService(
	st store.Store,
	objects objstore.Store,
	kv kvx.Store,
	identities *IdentityCache,
	cfg StorageConfig,
	logger *slog.Logger,
) *StorageService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.DefaultQuotaBytes <= 0 {
		cfg.DefaultQuotaBytes = domain.DefaultQuotaBytes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = DefaultListingTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = struct{}{}
	}

	return &StorageService{
		Store:      st,
		Objects:    objects,
		KV:         kv,
		Identities: identities,
		Config:     cfg,
		Logger:     logger,
		allowed:    allowed,
		locks:      newOwnerLocks(),
	}
}

func listingKey(ownerID string) string { return "files:list:" + ownerID }

// ListFiles returns the owner's catalog, newest first.
func (s *StorageService) ListFiles(ctx context.Context, ownerID string) ([]domain.FileRecord, error) {
	key := listingKey(ownerID)
	if raw, err := s.KV.Get(ctx, key); err == nil {
		var files []domain.FileRecord
		if err := json.Unmarshal(raw, &files); err == nil {
			cacheLookups.WithLabelValues("listing", "hit").Inc()
			return files, nil
		}
	} else if !errors.Is(err, kvx.ErrMiss) {
		slogx.FromContext(ctx).Debug("listing cache read failed", "error", err)
	}
	cacheLookups.WithLabelValues("listing", "miss").Inc()

	files, err := s.Store.Files().ListFiles(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(files); err == nil {
		if err := s.KV.Set(ctx, key, raw, s.Config.ListingTTL); err != nil {
			slogx.FromContext(ctx).Debug("listing cache write failed", "error", err)
		}
	}
	return files, nil
}

// UsedBytes sums the sizes of the owner's objects.
func (s *StorageService) UsedBytes(ctx context.Context, ownerID string) (int64, error) {
	return objstore.TotalSize(ctx, s.Objects, domain.OwnerPrefix(ownerID))
}

func (s *StorageService) Usage(ctx context.Context, ownerID string) (Usage, error) {
	ident, err := s.Identities.GetByID(ctx, ownerID)
	if err != nil {
		return Usage{}, err
	}
	objs, err := s.Objects.List(ctx, domain.OwnerPrefix(ownerID))
	if err != nil {
		return Usage{}, err
	}
	u := Usage{QuotaBytes: ident.EffectiveQuota(s.Config.DefaultQuotaBytes), FileCount: len(objs)}
	for _, o := range objs {
		u.UsedBytes += o.Size
	}
	return u, nil
}

// Upload validates filename and size, then admits data against the owner's
// quota. Re-uploading an existing name replaces it and only the size
// difference counts.
func (s *StorageService) Upload(ctx context.Context, ownerID, filename string, data []byte, contentType string) (domain.FileRecord, error) {
	stored, err := domain.NormalizeFilename(filename)
	if err != nil {
		uploadsTotal.WithLabelValues("invalid_filename").Inc()
		return domain.FileRecord{}, err
	}
	if _, ok := s.allowed[domain.Extension(stored)]; !ok {
		uploadsTotal.WithLabelValues("extension_not_allowed").Inc()
		return domain.FileRecord{}, fmt.Errorf("%w: %q", domain.ErrExtensionNotAllowed, domain.Extension(stored))
	}
	if int64(len(data)) > s.Config.MaxUploadBytes {
		uploadsTotal.WithLabelValues("too_large").Inc()
		return domain.FileRecord{}, domain.ErrFileTooLarge
	}

	rec, err := s.put(ctx, ownerID, stored, filename, data, contentType)
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		uploadsTotal.WithLabelValues("quota_exceeded").Inc()
	case err != nil:
		uploadsTotal.WithLabelValues("error").Inc()
	default:
		uploadsTotal.WithLabelValues("ok").Inc()
		uploadedBytes.Add(float64(len(data)))
	}
	return rec, err
}

// put runs quota admission and writes object then catalog row. The
// conversion pipeline uses it directly since its output names are derived.
func (s *StorageService) put(ctx context.Context, ownerID, stored, original string, data []byte, contentType string) (domain.FileRecord, error) {
	if s.Config.StrictQuota {
		unlock := s.locks.lock(ownerID)
		defer unlock()
	}

	ident, err := s.Identities.GetByID(ctx, ownerID)
	if err != nil {
		return domain.FileRecord{}, err
	}

	key := domain.StoragePath(ownerID, stored)
	objs, err := s.Objects.List(ctx, domain.OwnerPrefix(ownerID))
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("measure usage: %w", err)
	}
	var used, existing int64
	replacing := false
	for _, o := range objs {
		used += o.Size
		if o.Key == key {
			existing = o.Size
			replacing = true
		}
	}

	size := int64(len(data))
	quota := ident.EffectiveQuota(s.Config.DefaultQuotaBytes)
	if used-existing+size > quota {
		return domain.FileRecord{}, fmt.Errorf("%w: %d of %d bytes used", domain.ErrQuotaExceeded, used, quota)
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if err := s.Objects.Put(ctx, key, data, contentType); err != nil {
		return domain.FileRecord{}, fmt.Errorf("store object: %w", err)
	}

	rec, err := s.Store.Files().UpsertFile(ctx, domain.FileRecord{
		ID:           idx.New().String(),
		OwnerID:      ownerID,
		StoredName:   stored,
		OriginalName: original,
		SizeBytes:    size,
		ContentType:  contentType,
		StoragePath:  key,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// a new object without a row would count against the quota forever
		if !replacing {
			if derr := s.Objects.Delete(ctx, key); derr != nil {
				slogx.FromContext(ctx).Error("failed to remove orphaned object", "key", key, "error", derr)
			}
		}
		return domain.FileRecord{}, fmt.Errorf("record file: %w", err)
	}

	s.invalidateListing(ctx, ownerID)
	s.refreshUsage(ctx, ownerID, used-existing+size)
	return rec, nil
}

// Download returns the object bytes, or ErrFileNotFound.
func (s *StorageService) Download(ctx context.Context, ownerID, filename string) ([]byte, objstore.Object, error) {
	stored, err := domain.NormalizeFilename(filename)
	if err != nil {
		return nil, objstore.Object{}, err
	}
	data, obj, err := s.Objects.Get(ctx, domain.StoragePath(ownerID, stored))
	if errors.Is(err, objstore.ErrNotFound) {
		return nil, objstore.Object{}, domain.ErrFileNotFound
	}
	return data, obj, err
}

// Stat returns the catalog record for filename.
func (s *StorageService) Stat(ctx context.Context, ownerID, filename string) (domain.FileRecord, error) {
	stored, err := domain.NormalizeFilename(filename)
	if err != nil {
		return domain.FileRecord{}, err
	}
	rec, err := s.Store.Files().GetFile(ctx, ownerID, stored)
	if errors.Is(err, store.ErrNotFound) {
		return domain.FileRecord{}, domain.ErrFileNotFound
	}
	return rec, err
}

// Delete removes the object and its catalog row. Either may be missing,
// but not both.
func (s *StorageService) Delete(ctx context.Context, ownerID, filename string) error {
	stored, err := domain.NormalizeFilename(filename)
	if err != nil {
		return err
	}
	key := domain.StoragePath(ownerID, stored)

	if s.Config.StrictQuota {
		unlock := s.locks.lock(ownerID)
		defer unlock()
	}

	_, err = s.Store.Files().GetFile(ctx, ownerID, stored)
	hasRow := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if !hasRow {
		exists, err := objstore.Exists(ctx, s.Objects, key)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrFileNotFound
		}
	}

	if err := s.Objects.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if hasRow {
		if err := s.Store.Files().DeleteFile(ctx, ownerID, stored); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete record: %w", err)
		}
	}

	s.invalidateListing(ctx, ownerID)
	if used, err := s.UsedBytes(ctx, ownerID); err == nil {
		s.refreshUsage(ctx, ownerID, used)
	}
	return nil
}

// invalidateListing retries once; a failure leaves the listing stale for
// at most ListingTTL and never undoes the write.
func (s *StorageService) invalidateListing(ctx context.Context, ownerID string) {
	key := listingKey(ownerID)
	err := s.KV.Delete(ctx, key)
	if err == nil {
		return
	}
	if err = s.KV.Delete(ctx, key); err != nil {
		slogx.FromContext(ctx).Error("failed to invalidate file listing", "owner_id", ownerID, "error", err)
	}
}

func (s *StorageService) refreshUsage(ctx context.Context, ownerID string, used int64) {
	if err := s.Store.Identities().UpdateUsedStorage(ctx, ownerID, used); err != nil {
		slogx.FromContext(ctx).Warn("failed to record storage usage", "owner_id", ownerID, "error", err)
	}
	s.Identities.InvalidateID(ctx, ownerID)
}
