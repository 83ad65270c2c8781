package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio talks to MinIO or any S3-compatible endpoint with path-style lookup.
type Minio struct {
	cl     *minio.Client
	bucket string
}

// NewMinio connects and creates the bucket if it does not exist yet.
func NewMinio(ctx context.Context, cfg Config) (*Minio, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, err
	}

	m := &Minio{cl: cl, bucket: cfg.Bucket}
	if err := m.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Minio) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.cl.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.cl.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		// lost a creation race with another replica
		if resp := minio.ToErrorResponse(err); resp.Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("create bucket %q: %w", m.bucket, err)
	}
	return nil
}

func (m *Minio) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.cl.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *Minio) Get(ctx context.Context, key string) ([]byte, Object, error) {
	obj, err := m.cl.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, mapMinioErr(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, Object{}, mapMinioErr(err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, Object{}, mapMinioErr(err)
	}
	return data, Object{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	err := m.cl.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if errors.Is(mapMinioErr(err), ErrNotFound) {
		return nil
	}
	return err
}

func (m *Minio) List(ctx context.Context, prefix string) ([]Object, error) {
	out := []Object{}
	for info := range m.cl.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		out = append(out, Object{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
	}
	return out, nil
}

func (m *Minio) Ping(ctx context.Context) error {
	_, err := m.cl.BucketExists(ctx, m.bucket)
	return err
}

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Key)
	}
	return err
}
