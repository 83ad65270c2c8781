package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// fakeConverter writes a fixed fragment, fails, or panics.
type fakeConverter struct {
	output  []byte
	err     error
	panics  bool
	block   chan struct{}
	mu      sync.Mutex
	inputs  []string
	started chan struct{}
}

func (f *fakeConverter) Convert(ctx context.Context, in, out string) error {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.panics {
		panic("converter exploded")
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, f.output, 0o600)
}

func (f *fakeConverter) SelfTest(context.Context) error { return f.err }

func newConversion(t *testing.T, env *testEnv, conv *fakeConverter, queue int) (*ConversionService, string) {
	t.Helper()
	scratch := t.TempDir()
	svc := NewConversionService(env.storage, conv, ConversionConfig{
		Workers:    1,
		QueueSize:  queue,
		JobTimeout: 5 * time.Second,
		ScratchDir: scratch,
	}, slogx.Discard())
	return svc, scratch
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRunStoresFragment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedIdentity(t, 0)

	_, err := env.storage.Upload(ctx, owner.ID, "house.ifc", []byte("ISO-10303-21;"), "")
	require.NoError(t, err)

	svc, scratch := newConversion(t, env, &fakeConverter{output: []byte("fragment")}, 1)
	rec, err := svc.Run(ctx, owner.ID, "house.ifc")
	require.NoError(t, err)
	require.Equal(t, "house.frag", rec.StoredName)
	require.Equal(t, int64(8), rec.SizeBytes)
	requireEmptyDir(t, scratch)

	data, _, err := env.storage.Download(ctx, owner.ID, "house.frag")
	require.NoError(t, err)
	require.Equal(t, "fragment", string(data))
}

func TestRunFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedIdentity(t, 0)

	t.Run("missing source", func(t *testing.T) {
		svc, scratch := newConversion(t, env, &fakeConverter{output: []byte("x")}, 1)
		_, err := svc.Run(ctx, owner.ID, "absent.ifc")
		require.ErrorIs(t, err, domain.ErrFileNotFound)
		requireEmptyDir(t, scratch)
	})

	_, err := env.storage.Upload(ctx, owner.ID, "model.ifc", []byte("data"), "")
	require.NoError(t, err)

	t.Run("converter error", func(t *testing.T) {
		boom := errors.New("boom")
		svc, scratch := newConversion(t, env, &fakeConverter{err: boom}, 1)
		_, err := svc.Run(ctx, owner.ID, "model.ifc")
		require.ErrorIs(t, err, boom)
		requireEmptyDir(t, scratch)
	})

	t.Run("panic is contained", func(t *testing.T) {
		svc, scratch := newConversion(t, env, &fakeConverter{panics: true}, 1)
		require.NotPanics(t, func() {
			svc.process(conversionJob{ownerID: owner.ID, filename: "model.ifc"})
		})
		requireEmptyDir(t, scratch)
	})

	t.Run("output counts against quota", func(t *testing.T) {
		_, err := env.auth.SetQuota(ctx, owner.ID, 10)
		require.NoError(t, err)

		svc, scratch := newConversion(t, env, &fakeConverter{output: make([]byte, 7)}, 1)
		_, err = svc.Run(ctx, owner.ID, "model.ifc")
		require.ErrorIs(t, err, domain.ErrQuotaExceeded)
		requireEmptyDir(t, scratch)

		_, err = env.storage.Stat(ctx, owner.ID, "model.frag")
		require.ErrorIs(t, err, domain.ErrFileNotFound)
	})
}

func TestScheduleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedIdentity(t, 0)
	_, err := env.storage.Upload(ctx, owner.ID, "a.ifc", []byte("a"), "")
	require.NoError(t, err)

	conv := &fakeConverter{output: []byte("frag"), block: make(chan struct{}), started: make(chan struct{}, 4)}
	svc, _ := newConversion(t, env, conv, 1)
	svc.Start()

	require.True(t, svc.Convertible("a.IFC"))
	require.False(t, svc.Convertible("a.frag"))

	require.True(t, svc.Schedule(owner.ID, "a.ifc"))
	<-conv.started // worker busy, queue empty

	require.True(t, svc.Schedule(owner.ID, "a.ifc"))
	require.False(t, svc.Schedule(owner.ID, "a.ifc"), "full queue drops the job")

	close(conv.block)
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	svc.Stop(stopCtx)

	conv.mu.Lock()
	require.Len(t, conv.inputs, 2)
	conv.mu.Unlock()

	_, err = env.storage.Stat(ctx, owner.ID, "a.frag")
	require.NoError(t, err)

	require.NotPanics(t, func() {
		require.False(t, svc.Schedule(owner.ID, "a.ifc"))
	})
	svc.Stop(ctx)
}

func TestStopCancelsRunningJobs(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedIdentity(t, 0)
	_, err := env.storage.Upload(context.Background(), owner.ID, "slow.ifc", []byte("s"), "")
	require.NoError(t, err)

	conv := &fakeConverter{block: make(chan struct{}), started: make(chan struct{}, 1)}
	svc, scratch := newConversion(t, env, conv, 1)
	svc.Start()
	require.True(t, svc.Schedule(owner.ID, "slow.ifc"))
	<-conv.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	svc.Stop(ctx)

	requireEmptyDir(t, scratch)
}
