package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Chain(mux, Metrics())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET /v1/files/{name}", http.MethodGet, "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/files/a.ifc", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET /v1/files/{name}", http.MethodGet, "418"))

	require.Equal(t, before+1, after)
}
