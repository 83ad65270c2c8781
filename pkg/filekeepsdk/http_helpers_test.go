package filekeepsdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionRequests(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/v1/me/usage":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"used_bytes":6,"quota_bytes":100,"file_count":1}`))
		case "/v1/files/missing.ifc":
			w.WriteHeader(http.StatusNotFound)
		case "/v1/files/gone.ifc":
			// 200 where 204 is expected
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin scope required"}`))
		}
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	sess := NewSDKClient(srv.URL).NewSessionFromToken("tok-123")

	t.Run("bearer and decode", func(t *testing.T) {
		usage, err := sess.Usage(ctx)
		require.NoError(t, err)
		require.Equal(t, "Bearer tok-123", gotAuth)
		require.Equal(t, UsageResponse{UsedBytes: 6, QuotaBytes: 100, FileCount: 1}, *usage)
	})

	t.Run("error envelope", func(t *testing.T) {
		_, err := sess.SetQuota(ctx, "someone", 1)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		require.Equal(t, ErrorCodeForbidden, apiErr.Code)
		require.Equal(t, "admin scope required", apiErr.Description)
	})

	t.Run("bodyless status", func(t *testing.T) {
		err := sess.DeleteFile(ctx, "missing.ifc")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, ErrorCodeFileNotFound, apiErr.Code)
	})

	t.Run("unexpected success status", func(t *testing.T) {
		err := sess.DeleteFile(ctx, "gone.ifc")
		require.ErrorContains(t, err, "unexpected status 200")
	})

	t.Run("expired session never hits the network", func(t *testing.T) {
		gotAuth = ""
		expired := NewSDKClient(srv.URL).NewSessionFromToken("old")
		expired.expiresAt = time.Now().Add(-time.Second)

		_, err := expired.Me(ctx)
		require.ErrorIs(t, err, ErrSessionExpired)
		require.Empty(t, gotAuth)
	})
}
