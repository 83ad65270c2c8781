// Package throttle limits repeated login attempts per (client address, login)
// pair with a sliding window.
package throttle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/filekeep/pkg/kvx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filekeep_login_attempts_total",
		Help: "Login attempts seen by the limiter, by decision.",
	}, []string{"decision"})

	fallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filekeep_login_limiter_fallback_total",
		Help: "Attempts counted in-process because the shared counter failed.",
	})
)

// Defaults match the documented login policy: 10 attempts per 5 minutes.
const (
	DefaultLimit  = 10
	DefaultWindow = 5 * time.Minute
)

type Decision struct {
	Allowed bool
	// Count is the number of attempts in the window, this one included.
	Count int
	// RetryAfter is set when throttled.
	RetryAfter time.Duration
}

// LoginLimiter records every attempt, including the one being decided, and
// throttles once more than Limit attempts fall inside Window. A key clears
// on its own as old attempts age out; nothing resets it on success.
//
// Shared is the cross-replica counter (Redis). When it is nil or returns an
// error the attempt is counted in Local instead, so the limiter keeps
// working per process while the shared backend is down.
type LoginLimiter struct {
	Shared kvx.WindowCounter
	Local  kvx.WindowCounter
	Limit  int
	Window time.Duration
	Logger *slog.Logger

	// Now is the limiter clock; tests replace it.
	Now func() time.Time
}

func NewLoginLimiter(shared kvx.WindowCounter, limit int, window time.Duration, logger *slog.Logger) *LoginLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginLimiter{
		Shared: shared,
		Local:  kvx.NewMemory(0, window),
		Limit:  limit,
		Window: window,
		Logger: logger,
		Now:    time.Now,
	}
}

// Key is the counter key for an attempt. Logins compare case-insensitively.
func Key(clientAddr, login string) string {
	return "login:" + clientAddr + ":" + strings.ToLower(strings.TrimSpace(login))
}

// CheckAndRecord counts this attempt and decides whether it may proceed.
func (l *LoginLimiter) CheckAndRecord(ctx context.Context, clientAddr, login string) Decision {
	key := Key(clientAddr, login)
	at := l.Now()

	count, err := l.record(ctx, key, at)
	if err != nil {
		// Local is in-process; it only fails if misconfigured. Fail open so a
		// broken limiter cannot lock every user out.
		l.Logger.Error("login limiter unavailable, allowing attempt", "error", err)
		return Decision{Allowed: true}
	}

	if count > l.Limit {
		attemptsTotal.WithLabelValues("throttled").Inc()
		return Decision{Allowed: false, Count: count, RetryAfter: l.Window}
	}
	attemptsTotal.WithLabelValues("allowed").Inc()
	return Decision{Allowed: true, Count: count}
}

func (l *LoginLimiter) record(ctx context.Context, key string, at time.Time) (int, error) {
	if l.Shared != nil {
		count, err := l.Shared.RecordInWindow(ctx, key, at, l.Window)
		if err == nil {
			return count, nil
		}
		fallbackTotal.Inc()
		l.Logger.Debug("shared login counter failed, counting locally", "error", err)
	}
	return l.Local.RecordInWindow(ctx, key, at, l.Window)
}
