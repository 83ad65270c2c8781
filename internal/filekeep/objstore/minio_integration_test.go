//go:build integration

package objstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMinio(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "filekeep",
				"MINIO_ROOT_PASSWORD": "filekeep-secret",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestMinioAndS3Drivers(t *testing.T) {
	endpoint := startMinio(t)
	ctx := context.Background()

	base := objstore.Config{
		Endpoint:  endpoint,
		Region:    "us-east-1",
		AccessKey: "filekeep",
		SecretKey: "filekeep-secret",
	}

	t.Run("minio", func(t *testing.T) {
		cfg := base
		cfg.Driver, cfg.Bucket = "minio", "filekeep-minio"
		s, err := objstore.Open(ctx, cfg)
		require.NoError(t, err)
		runDriverSuite(t, s)
	})

	t.Run("s3", func(t *testing.T) {
		// the minio driver creates the bucket the s3 driver then uses
		cfg := base
		cfg.Driver, cfg.Bucket = "minio", "filekeep-s3"
		_, err := objstore.Open(ctx, cfg)
		require.NoError(t, err)

		cfg.Driver = "s3"
		s, err := objstore.Open(ctx, cfg)
		require.NoError(t, err)
		runDriverSuite(t, s)
	})
}
