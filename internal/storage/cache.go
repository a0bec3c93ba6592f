package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"mediavault/config"
)

// CachePath returns the shared on-disk cache location for an object
// variant. variant "" addresses the original bytes; transform variants use
// a "crop-WxH" / "scale-WxH" prefix so they never collide.
func CachePath(bucket, filename, variant string) string {
	name := filename
	if variant != "" {
		name = variant + "-" + filename
	}
	return filepath.Join(config.AppConfig.CdnCacheDir, bucket, name)
}

// WriteCacheFile writes bytes into the cache atomically: readers only ever
// see the temp file renamed into place, never a partial write.
func WriteCacheFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// PruneCache removes cache entries older than maxAge. A zero maxAge means
// the cache is unbounded and nothing is removed.
func PruneCache(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	root := config.AppConfig.CdnCacheDir
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("prune %s: %w", path, err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}
