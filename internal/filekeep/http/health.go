package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
)

// Pinger is a readiness dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, filekeepsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Pings every required dependency. Optional ones are reported but never fail the probe.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	filekeepsdk.HealthResponse	"at least one required dependency failed"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, required, optional map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := make(map[string]string, len(required)+len(optional))
		status, code := "ok", http.StatusOK

		for name, p := range required {
			if err := p.Ping(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		for name, p := range optional {
			if err := p.Ping(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				continue
			}
			checks[name] = "ok"
		}

		httpx.WriteJSON(w, code, filekeepsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
