//go:build integration

package filekeep_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/app"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/stretchr/testify/require"
)

// TestReplicas runs two servers over the same backends: one reaches the
// bucket through minio-go, the other through the AWS SDK. Cache entries and
// login windows live in Redis, so each replica observes the other's writes.
func TestReplicas(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	strictLogin := func(c *app.Config) { c.LoginLimit = 3 }
	// the minio driver creates the bucket, so replica A starts first
	a := filekeepsdk.NewSDKClient(startServer(t, s, "minio", strictLogin))
	b := filekeepsdk.NewSDKClient(startServer(t, s, "s3", strictLogin))

	admin := registerAndLogin(t, a, "admin")
	require.True(t, admin.Identity().Admin)
	bob := registerAndLogin(t, b, "bob")
	require.False(t, bob.Identity().Admin)

	bobOnA := a.NewSessionFromToken(bob.AccessToken())
	bobOnB := bob

	t.Run("credentials verify on either replica", func(t *testing.T) {
		sess, err := a.Login(ctx, "bob@example.com", "password-bob")
		require.NoError(t, err)
		require.Equal(t, bob.Identity().ID, sess.Identity().ID)
	})

	t.Run("files are visible from both replicas", func(t *testing.T) {
		content := []byte("ISO-10303")
		_, err := bobOnA.Upload(ctx, "tower.ifc", bytes.NewReader(content))
		require.NoError(t, err)

		files, err := bobOnB.ListFiles(ctx)
		require.NoError(t, err)
		require.Len(t, files, 1)
		require.Equal(t, "tower.ifc", files[0].Name)

		body, err := bobOnB.Download(ctx, "tower.ifc")
		require.NoError(t, err)
		got, err := io.ReadAll(body)
		require.NoError(t, body.Close())
		require.NoError(t, err)
		require.Equal(t, content, got)
	})

	t.Run("quota change reaches the other replica", func(t *testing.T) {
		_, err := admin.SetQuota(ctx, bob.Identity().ID, 16)
		require.NoError(t, err)

		usage, err := bobOnB.Usage(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(16), usage.QuotaBytes)
		require.Equal(t, int64(9), usage.UsedBytes)

		_, err = bobOnB.Upload(ctx, "annex.ifc", bytes.NewReader(make([]byte, 8)))
		requireAPIError(t, err, http.StatusRequestEntityTooLarge, filekeepsdk.ErrorCodeQuotaExceeded)
	})

	t.Run("login window is shared", func(t *testing.T) {
		_, err := a.Login(ctx, "mallory@example.com", "guess-one")
		requireAPIError(t, err, http.StatusUnauthorized, filekeepsdk.ErrorCodeNotAuthenticated)
		_, err = a.Login(ctx, "mallory@example.com", "guess-two")
		requireAPIError(t, err, http.StatusUnauthorized, filekeepsdk.ErrorCodeNotAuthenticated)
		_, err = b.Login(ctx, "mallory@example.com", "guess-three")
		requireAPIError(t, err, http.StatusUnauthorized, filekeepsdk.ErrorCodeNotAuthenticated)

		_, err = b.Login(ctx, "mallory@example.com", "guess-four")
		requireAPIError(t, err, http.StatusTooManyRequests, filekeepsdk.ErrorCodeTooManyAttempts)
	})

	t.Run("delete then stat elsewhere", func(t *testing.T) {
		require.NoError(t, bobOnB.DeleteFile(ctx, "tower.ifc"))

		_, err := bobOnA.Stat(ctx, "tower.ifc")
		requireAPIError(t, err, http.StatusNotFound, filekeepsdk.ErrorCodeFileNotFound)
	})

	t.Run("deactivation ends sessions everywhere", func(t *testing.T) {
		_, err := admin.SetActive(ctx, bob.Identity().ID, false)
		require.NoError(t, err)

		_, err = bobOnB.Me(ctx)
		requireAPIError(t, err, http.StatusUnauthorized, filekeepsdk.ErrorCodeNotAuthenticated)
	})

	t.Run("readiness reports every backend", func(t *testing.T) {
		health, err := b.GetReadiness(ctx)
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		for _, name := range []string{"database", "object_store", "cache"} {
			require.Equal(t, "ok", health.Checks[name], name)
		}
	})
}
