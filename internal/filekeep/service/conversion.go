package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/converter"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
)

const fragmentExt = ".frag"

type ConversionConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration // whole job: fetch, convert, store
	ScratchDir string        // empty means os.TempDir()
	Extensions []string      // source extensions that get converted
}

type conversionJob struct {
	ownerID  string
	filename string
}

// ConversionService converts uploaded models to fragments in the background.
// Jobs are at-most-once: a full queue drops them and failures are logged and
// counted but never retried or reported to the uploader.
type ConversionService struct {
	Storage   *StorageService
	Converter converter.Converter
	Config    ConversionConfig
	Logger    *slog.Logger

	jobs    chan conversionJob
	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	convert map[string]struct{}
}

func NewConversionService(storage *StorageService, conv converter.Converter, cfg ConversionConfig, logger *slog.Logger) *ConversionService {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = converter.DefaultTimeout + time.Minute
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{"ifc"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))] = struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConversionService{
		Storage:   storage,
		Converter: conv,
		Config:    cfg,
		Logger:    logger,
		jobs:      make(chan conversionJob, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		convert:   exts,
	}
}

// Start launches the worker goroutines.
func (s *ConversionService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	for range s.Config.Workers {
		s.wg.Add(1)
		go s.worker()
	}
	s.Logger.Info("conversion service started", "workers", s.Config.Workers, "queue", s.Config.QueueSize)
}

// Stop refuses new jobs and waits for queued ones to finish. When ctx ends
// first, running conversions are cancelled.
func (s *ConversionService) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		<-done
	}
	s.cancel()
	s.Logger.Info("conversion service stopped")
}

// Convertible reports whether filename's extension is converted.
func (s *ConversionService) Convertible(filename string) bool {
	_, ok := s.convert[domain.Extension(filename)]
	return ok
}

// Schedule enqueues a conversion without blocking. It returns false when
// the job was dropped.
func (s *ConversionService) Schedule(ownerID, filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.jobs <- conversionJob{ownerID: ownerID, filename: filename}:
		return true
	default:
		conversionsTotal.WithLabelValues("dropped").Inc()
		s.Logger.Warn("conversion queue full, dropping job", "owner_id", ownerID, "filename", filename)
		return false
	}
}

func (s *ConversionService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.process(job)
	}
}

func (s *ConversionService) process(job conversionJob) {
	log := s.Logger.With("owner_id", job.ownerID, "filename", job.filename)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			conversionsTotal.WithLabelValues("panic").Inc()
			log.Error("conversion panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.Config.JobTimeout)
	defer cancel()

	out, err := s.Run(ctx, job.ownerID, job.filename)
	conversionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		conversionsTotal.WithLabelValues("failed").Inc()
		log.Error("conversion failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	conversionsTotal.WithLabelValues("ok").Inc()
	log.Info("conversion finished", "output", out.StoredName, "size", out.SizeBytes, "duration_ms", time.Since(start).Milliseconds())
}

// Run performs one conversion synchronously and returns the stored
// fragment. The scratch directory is removed on every path, panics
// included.
func (s *ConversionService) Run(ctx context.Context, ownerID, filename string) (domain.FileRecord, error) {
	data, _, err := s.Storage.Download(ctx, ownerID, filename)
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("fetch source: %w", err)
	}
	stored, _ := domain.NormalizeFilename(filename)

	dir, err := os.MkdirTemp(s.Config.ScratchDir, "filekeep-convert-*")
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.Logger.Warn("failed to remove scratch dir", "dir", dir, "error", err)
		}
	}()

	in := filepath.Join(dir, stored)
	outName := domain.Stem(stored) + fragmentExt
	out := filepath.Join(dir, "out-"+outName)
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return domain.FileRecord{}, fmt.Errorf("write source: %w", err)
	}

	if err := s.Converter.Convert(ctx, in, out); err != nil {
		return domain.FileRecord{}, err
	}

	frag, err := os.ReadFile(out)
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("read output: %w", err)
	}

	// output counts against the quota like any upload
	return s.Storage.put(ctx, ownerID, outName, outName, frag, "application/octet-stream")
}

// SelfTest checks that the converter binary is runnable.
func (s *ConversionService) SelfTest(ctx context.Context) error {
	return s.Converter.SelfTest(ctx)
}
