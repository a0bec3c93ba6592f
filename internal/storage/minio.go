package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"mediavault/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioDriver stores objects in a MinIO (S3-compatible) backend, one MinIO
// bucket per CDN bucket slug.
type MinioDriver struct {
	*urlBuilder
	client *minio.Client
}

// NewMinioDriver connects to the configured MinIO endpoint.
func NewMinioDriver() (*MinioDriver, error) {
	client, err := minio.New(
		fmt.Sprintf("%s:%s", config.AppConfig.MinioHost, config.AppConfig.MinioPort),
		&minio.Options{
			Creds:  credentials.NewStaticV4(config.AppConfig.MinioUsername, config.AppConfig.MinioPassword, ""),
			Secure: config.AppConfig.MinioUseSSL,
		},
	)
	if err != nil {
		return nil, err
	}
	return &MinioDriver{
		urlBuilder: newURLBuilder(),
		client:     client,
	}, nil
}

// Name returns the driver identifier recorded on object rows.
func (d *MinioDriver) Name() string {
	return "minio"
}

// ObjectCreate uploads bytes to the destination key. Re-putting the same
// key is safe under retry.
func (d *MinioDriver) ObjectCreate(ctx context.Context, bucket, filename string, src ObjectSource) error {
	if src.LocalPath != "" {
		_, err := d.client.FPutObject(ctx, bucket, filename, src.LocalPath, minio.PutObjectOptions{
			ContentType: src.ContentType,
		})
		return err
	}
	if src.Reader == nil {
		return fmt.Errorf("object source has no bytes")
	}
	_, err := d.client.PutObject(ctx, bucket, filename, src.Reader, src.Size, minio.PutObjectOptions{
		ContentType: src.ContentType,
	})
	return err
}

// ObjectExists checks the backend for the object key.
func (d *MinioDriver) ObjectExists(ctx context.Context, bucket, filename string) (bool, error) {
	_, err := d.client.StatObject(ctx, bucket, filename, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMinioNotFound(err) {
		return false, nil
	}
	return false, err
}

// ObjectDestroy removes the object bytes; a missing key counts as success.
func (d *MinioDriver) ObjectDestroy(ctx context.Context, bucket, filename string) error {
	err := d.client.RemoveObject(ctx, bucket, filename, minio.RemoveObjectOptions{})
	if err != nil && !isMinioNotFound(err) {
		return err
	}
	return nil
}

// ObjectLocalPath fetches the object into the shared local cache and
// returns the cached path. The cache write is temp-then-rename so
// concurrent readers never see partial bytes.
func (d *MinioDriver) ObjectLocalPath(ctx context.Context, bucket, filename string) (string, error) {
	cached := CachePath(bucket, filename, "")
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	obj, err := d.client.GetObject(ctx, bucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()
	if _, err := obj.Stat(); err != nil {
		return "", err
	}
	if err := WriteCacheFile(cached, obj); err != nil {
		return "", err
	}
	return cached, nil
}

// BucketCreate creates the backend bucket if it does not exist yet.
func (d *MinioDriver) BucketCreate(ctx context.Context, slug string) error {
	exists, err := d.client.BucketExists(ctx, slug)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return d.client.MakeBucket(ctx, slug, minio.MakeBucketOptions{})
}

// BucketDestroy removes every contained object and then the bucket itself.
func (d *MinioDriver) BucketDestroy(ctx context.Context, slug string) error {
	exists, err := d.client.BucketExists(ctx, slug)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	objects := d.client.ListObjects(ctx, slug, minio.ListObjectsOptions{Recursive: true})
	for obj := range objects {
		if obj.Err != nil {
			return obj.Err
		}
		if err := d.client.RemoveObject(ctx, slug, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return d.client.RemoveBucket(ctx, slug)
}

// PresignedURL returns a backend-signed download URL carrying the display
// filename as a content disposition.
func (d *MinioDriver) PresignedURL(ctx context.Context, bucket, filename, displayName string, expiry time.Duration) (string, error) {
	params := url.Values{}
	if displayName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=\"%s\"", displayName))
	}
	signed, err := d.client.PresignedGetObject(ctx, bucket, filename, expiry, params)
	if err != nil {
		return "", err
	}
	return signed.String(), nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == 404
}
