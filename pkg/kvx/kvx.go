// Package kvx is the small key/value surface the service needs from a shared
// cache: byte values with per-entry expiry, and a sliding-window counter.
// Redis backs it in production; Memory backs it in development and tests and
// is the fallback whenever Redis is unreachable.
package kvx

import (
	"context"
	"errors"
	"time"
)

// ErrMiss reports a key that is absent or expired.
var ErrMiss = errors.New("kvx: miss")

type Store interface {
	// Get returns ErrMiss when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// WindowCounter records one event at `at` under key and returns the number of
// events recorded within (at-window, at], including this one.
type WindowCounter interface {
	RecordInWindow(ctx context.Context, key string, at time.Time, window time.Duration) (int, error)
}
