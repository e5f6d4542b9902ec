// Package storage archives dashboard snapshots in an S3-compatible bucket
// and hands out presigned download links.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignedURLTTL is used when no export URL TTL is configured.
const DefaultPresignedURLTTL = time.Hour

// Config is the part of the application config the client reads.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetExportURLTTL() time.Duration
	IsMinIOEnabled() bool
}

// Object describes one upload. Metadata is stored as S3 user metadata so an
// object can be traced back to its office and period without the index.
type Object struct {
	Folder      string
	Name        string
	ContentType string
	Metadata    map[string]string
}

// PresignedURL is a time limited download link.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MinIOService talks to MinIO or any S3-compatible endpoint.
type MinIOService struct {
	client *minio.Client
	urlTTL time.Duration
}

// NewMinIOService creates the client. It does not touch the network.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, errors.New("minio is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ttl := cfg.GetExportURLTTL()
	if ttl <= 0 {
		ttl = DefaultPresignedURLTTL
	}
	return &MinIOService{client: client, urlTTL: ttl}, nil
}

// EnsureBucketExists creates bucket when missing.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Ping checks that the endpoint answers for bucket.
func (s *MinIOService) Ping(ctx context.Context, bucket string) error {
	if _, err := s.client.BucketExists(ctx, bucket); err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	return nil
}

// Put uploads obj and returns its key.
func (s *MinIOService) Put(ctx context.Context, bucket string, obj Object, reader io.Reader, size int64) (string, error) {
	if err := ValidateContentType(obj.ContentType); err != nil {
		return "", err
	}
	if err := ValidateFileSize(size); err != nil {
		return "", err
	}

	key := ObjectKey(obj.Folder, obj.Name)
	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// PresignGet returns a download link that saves the object under its base
// name.
func (s *MinIOService) PresignGet(ctx context.Context, bucket, key string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(s.urlTTL)

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))

	u, err := s.client.PresignedGetObject(ctx, bucket, key, s.urlTTL, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return &PresignedURL{URL: u.String(), FileKey: key, ExpiresAt: expiresAt}, nil
}

// RemoveObjects deletes keys in one batch and returns the keys that could
// not be removed with the joined error.
func (s *MinIOService) RemoveObjects(ctx context.Context, bucket string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)

	var failed []string
	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		failed = append(failed, rerr.ObjectName)
		errs = append(errs, fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	return failed, errors.Join(errs...)
}

// ObjectKey joins folder and a uniquified file name. Two snapshots of the
// same office and period taken in the same second still get distinct keys.
func ObjectKey(folder, fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	return path.Join(folder, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))
}
