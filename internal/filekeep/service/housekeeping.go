package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
)

// HousekeepingService periodically recomputes every identity's cached
// UsedStorageBytes from the object store. Orphaned objects are counted but
// left in place.
type HousekeepingService struct {
	Store      store.Store
	Objects    objstore.Store
	Identities *IdentityCache
	Logger     *slog.Logger
	Interval   time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(st store.Store, objects objstore.Store, identities *IdentityCache, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:      st,
		Objects:    objects,
		Identities: identities,
		Logger:     logger,
		Interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs a pass immediately and then every Interval until Stop.
// Start after Stop is a no-op.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress pass has finished. It returns at once
// when Start never ran, and later calls are no-ops.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	if started {
		<-s.doneCh
	}
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RecomputeUsage(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RecomputeUsage(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RecomputeUsage refreshes every identity independently; one failure does
// not stop the pass. It returns how many identities were updated.
func (s *HousekeepingService) RecomputeUsage(ctx context.Context) int {
	idents, err := s.Store.Identities().ListIdentities(ctx)
	if err != nil {
		s.Logger.Error("failed to list identities", "error", err)
		return 0
	}

	updated := 0
	for _, ident := range idents {
		used, err := objstore.TotalSize(ctx, s.Objects, domain.OwnerPrefix(ident.ID))
		if err != nil {
			s.Logger.Error("failed to measure usage", "identity_id", ident.ID, "error", err)
			continue
		}
		if used == ident.UsedStorageBytes {
			continue
		}
		if err := s.Store.Identities().UpdateUsedStorage(ctx, ident.ID, used); err != nil {
			s.Logger.Error("failed to update usage", "identity_id", ident.ID, "error", err)
			continue
		}
		s.Identities.InvalidateID(ctx, ident.ID)
		updated++
	}

	s.Logger.Info("housekeeping usage pass completed", "identities", len(idents), "updated", updated)
	return updated
}
