//go:build integration

package filekeep_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/app"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * End-to-end helpers: every backend runs in a container (postgres, redis,
 * minio) and the server runs in-process against them.
 */

const (
	minioUser     = "filekeep"
	minioPassword = "filekeep-secret"
	sessionSecret = "e2e-session-secret-0123456789abcdef"
)

type stack struct {
	PostgresDSN string
	RedisAddr   string
	MinioAddr   string

	// replicas must share the pepper to verify each other's hashes
	PepperFile string
}

func startStack(t *testing.T) stack {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("filekeep"),
		postgres.WithUsername("filekeep"),
		postgres.WithPassword("filekeep"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	redis := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	minio := startContainer(t, testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort("9000/tcp").
			WithStartupTimeout(60 * time.Second),
	}, "9000")

	return stack{
		PostgresDSN: dsn,
		RedisAddr:   redis,
		MinioAddr:   minio,
		PepperFile:  filepath.Join(t.TempDir(), "pepper"),
	}
}

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate %s: %v", req.Image, err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// startServer runs filekeep against the stack and returns its base URL.
func startServer(t *testing.T, s stack, objectDriver string, mutate func(*app.Config)) string {
	t.Helper()
	t.Setenv("ENV", "test")

	cfg := app.LoadConfig()
	cfg.LogLevel = "warn"
	cfg.DatabaseDriver = "postgres"
	cfg.DatabaseDSN = s.PostgresDSN
	cfg.CacheDriver = "redis"
	cfg.RedisAddr = s.RedisAddr
	cfg.SessionSecret = sessionSecret
	cfg.PepperFile = s.PepperFile
	cfg.ObjectStore = objstore.Config{
		Driver:    objectDriver,
		Endpoint:  s.MinioAddr,
		Region:    "us-east-1",
		Bucket:    "filekeep-e2e",
		AccessKey: minioUser,
		SecretKey: minioPassword,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	application.Start()
	t.Cleanup(func() { _ = application.Shutdown() })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func registerAndLogin(t *testing.T, client *filekeepsdk.SDKClient, name string) *filekeepsdk.Session {
	t.Helper()
	ctx := context.Background()

	_, err := client.Register(ctx, filekeepsdk.RegisterRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: "password-" + name,
	})
	require.NoError(t, err)

	sess, err := client.Login(ctx, name+"@example.com", "password-"+name)
	require.NoError(t, err)
	return sess
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *filekeepsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}
