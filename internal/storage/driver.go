package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"mediavault/config"
)

// ErrPresignNotSupported is returned by drivers that cannot produce
// backend-signed URLs; callers fall back to streaming through the app.
var ErrPresignNotSupported = errors.New("presigned urls not supported by this driver")

// ObjectSource describes the bytes to store: either a local file path or a
// reader with a known size.
type ObjectSource struct {
	LocalPath   string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Driver abstracts a storage backend: object and bucket lifecycle plus the
// URL scheme family. Expected failure modes surface as errors; destroying
// an already-absent object is success.
type Driver interface {
	Name() string

	ObjectCreate(ctx context.Context, bucket, filename string, src ObjectSource) error
	ObjectExists(ctx context.Context, bucket, filename string) (bool, error)
	ObjectDestroy(ctx context.Context, bucket, filename string) error

	// ObjectLocalPath materializes a filesystem-accessible copy of the
	// object, fetching remote bytes into the shared cache if needed.
	ObjectLocalPath(ctx context.Context, bucket, filename string) (string, error)

	BucketCreate(ctx context.Context, slug string) error
	BucketDestroy(ctx context.Context, slug string) error

	// PresignedURL returns a backend-signed download URL, or
	// ErrPresignNotSupported.
	PresignedURL(ctx context.Context, bucket, filename, displayName string, expiry time.Duration) (string, error)

	URLServe(bucket, filename string) string
	URLServeScheme() *URLTemplate
	URLServeZipped(ids, filename string) string
	URLServeZippedScheme() *URLTemplate
	URLCrop(bucket, filename string, width, height int) string
	URLCropScheme() *URLTemplate
	URLScale(bucket, filename string, width, height int) string
	URLScaleScheme() *URLTemplate
	URLPlaceholder(width, height, border int) string
	URLPlaceholderScheme() *URLTemplate
	URLBlankAvatar(width, height int, sex string) string
	URLBlankAvatarScheme() *URLTemplate
	URLExpiring(bucket, filename string, download bool) (string, error)
	URLExpiringScheme() *URLTemplate
}

// Default is the active storage driver, selected once at process start.
var Default Driver

// InitDriver selects and initializes the configured driver.
func InitDriver() {
	switch config.AppConfig.CdnDriver {
	case "local":
		Default = NewLocalDriver(config.AppConfig.CdnLocalRoot)
	case "minio":
		driver, err := NewMinioDriver()
		if err != nil {
			log.Fatalln("init minio driver fail:", err)
		}
		Default = driver
	default:
		log.Fatalln(fmt.Sprintf("unknown cdn driver %q", config.AppConfig.CdnDriver))
	}
	log.Println("init storage driver success:", Default.Name())
}
