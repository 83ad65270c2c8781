package objstore_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/stretchr/testify/require"
)

// runDriverSuite is shared with the minio and s3 integration tests.
func runDriverSuite(t *testing.T, s objstore.Store) {
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Put(ctx, "user_a/one.ifc", []byte("hello"), "application/octet-stream"))
	require.NoError(t, s.Put(ctx, "user_a/two.frag", []byte("fragment!"), "application/octet-stream"))
	require.NoError(t, s.Put(ctx, "user_ab/other.ifc", []byte("x"), "application/octet-stream"))

	data, obj, err := s.Get(ctx, "user_a/one.ifc")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
	require.Equal(t, int64(5), obj.Size)

	_, _, err = s.Get(ctx, "user_a/missing.ifc")
	require.ErrorIs(t, err, objstore.ErrNotFound)

	objs, err := s.List(ctx, "user_a/")
	require.NoError(t, err)
	require.Len(t, objs, 2)

	total, err := objstore.TotalSize(ctx, s, "user_a/")
	require.NoError(t, err)
	require.Equal(t, int64(14), total)

	ok, err := objstore.Exists(ctx, s, "user_a/one.ifc")
	require.NoError(t, err)
	require.True(t, ok)

	// prefix match alone is not existence
	ok, err = objstore.Exists(ctx, s, "user_a/one")
	require.NoError(t, err)
	require.False(t, ok)

	// overwrite replaces size
	require.NoError(t, s.Put(ctx, "user_a/one.ifc", []byte("hi"), "application/octet-stream"))
	total, err = objstore.TotalSize(ctx, s, "user_a/")
	require.NoError(t, err)
	require.Equal(t, int64(11), total)

	require.NoError(t, s.Delete(ctx, "user_a/one.ifc"))
	require.NoError(t, s.Delete(ctx, "user_a/one.ifc"), "delete is idempotent")

	_, _, err = s.Get(ctx, "user_a/one.ifc")
	require.ErrorIs(t, err, objstore.ErrNotFound)
}

func TestMemoryDriver(t *testing.T) {
	runDriverSuite(t, objstore.NewMemory())
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := objstore.NewMemory()

	src := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", src, ""))
	src[0] = 'z'

	data, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)

	data[1] = 'z'
	again, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again)
}

func TestOpenDrivers(t *testing.T) {
	s, err := objstore.Open(context.Background(), objstore.Config{Driver: "memory"})
	require.NoError(t, err)
	require.IsType(t, &objstore.Memory{}, s)

	_, err = objstore.Open(context.Background(), objstore.Config{Driver: "ftp"})
	require.Error(t, err)
}
