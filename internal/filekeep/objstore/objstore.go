// Package objstore stores file bytes under flat keys in a single bucket.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("objstore: object not found")

type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is implemented by the minio, s3 and memory drivers.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, Object, error)

	// Delete succeeds for missing keys.
	Delete(ctx context.Context, key string) error

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	Ping(ctx context.Context) error
}

// Config selects and configures a driver (OBJECT_STORE_DRIVER, S3_*).
type Config struct {
	Driver    string // minio, s3 or memory
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Open builds the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "minio":
		return NewMinio(ctx, cfg)
	case "s3":
		return NewS3(ctx, cfg)
	}
	return nil, fmt.Errorf("objstore: unknown driver %q", cfg.Driver)
}

// Exists reports whether key is present, using a prefix listing.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	objs, err := s.List(ctx, key)
	if err != nil {
		return false, err
	}
	for _, o := range objs {
		if o.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// TotalSize sums the sizes of every object under prefix.
func TotalSize(ctx context.Context, s Store, prefix string) (int64, error) {
	objs, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, o := range objs {
		total += o.Size
	}
	return total, nil
}
