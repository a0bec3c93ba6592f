package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalDriver stores objects on the local filesystem under
// root/<bucket>/<filename>.
type LocalDriver struct {
	*urlBuilder
	root string
}

// NewLocalDriver builds a filesystem-backed driver rooted at root.
func NewLocalDriver(root string) *LocalDriver {
	return &LocalDriver{
		urlBuilder: newURLBuilder(),
		root:       root,
	}
}

// Name returns the driver identifier recorded on object rows.
func (d *LocalDriver) Name() string {
	return "local"
}

func (d *LocalDriver) objectPath(bucket, filename string) string {
	return filepath.Join(d.root, bucket, filename)
}

// ObjectCreate writes bytes to the destination key. Writing goes through a
// temp file and rename so a retry of the same key never exposes partial
// bytes.
func (d *LocalDriver) ObjectCreate(ctx context.Context, bucket, filename string, src ObjectSource) error {
	dst := d.objectPath(bucket, filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	var reader io.Reader
	if src.LocalPath != "" {
		f, err := os.Open(src.LocalPath)
		if err != nil {
			return err
		}
		defer f.Close()
		reader = f
	} else if src.Reader != nil {
		reader = src.Reader
	} else {
		return fmt.Errorf("object source has no bytes")
	}

	return WriteCacheFile(dst, reader)
}

// ObjectExists reports whether the object file is present.
func (d *LocalDriver) ObjectExists(ctx context.Context, bucket, filename string) (bool, error) {
	_, err := os.Stat(d.objectPath(bucket, filename))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ObjectDestroy removes the object bytes. An already-absent object counts
// as success.
func (d *LocalDriver) ObjectDestroy(ctx context.Context, bucket, filename string) error {
	err := os.Remove(d.objectPath(bucket, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ObjectLocalPath returns the object's path on disk; no copy is needed for
// this backend.
func (d *LocalDriver) ObjectLocalPath(ctx context.Context, bucket, filename string) (string, error) {
	path := d.objectPath(bucket, filename)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// BucketCreate creates the bucket directory.
func (d *LocalDriver) BucketCreate(ctx context.Context, slug string) error {
	return os.MkdirAll(filepath.Join(d.root, slug), 0o755)
}

// BucketDestroy removes the bucket directory and every contained object.
func (d *LocalDriver) BucketDestroy(ctx context.Context, slug string) error {
	return os.RemoveAll(filepath.Join(d.root, slug))
}

// PresignedURL is not available on the filesystem backend; expiring serves
// stream through the app instead.
func (d *LocalDriver) PresignedURL(ctx context.Context, bucket, filename, displayName string, expiry time.Duration) (string, error) {
	return "", ErrPresignNotSupported
}
