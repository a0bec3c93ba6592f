package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediavault/config"
)

func newTestLocalDriver(t *testing.T) *LocalDriver {
	t.Helper()
	config.AppConfig.CdnPublicBaseURL = "http://cdn.test"
	return NewLocalDriver(t.TempDir())
}

func TestLocalObjectLifecycle(t *testing.T) {
	d := newTestLocalDriver(t)
	ctx := context.Background()

	if err := d.BucketCreate(ctx, "docs"); err != nil {
		t.Fatal(err)
	}
	src := ObjectSource{Reader: bytes.NewReader([]byte("hello")), Size: 5}
	if err := d.ObjectCreate(ctx, "docs", "a.txt", src); err != nil {
		t.Fatal(err)
	}

	exists, err := d.ObjectExists(ctx, "docs", "a.txt")
	if err != nil || !exists {
		t.Fatalf("exists = %v, err = %v", exists, err)
	}

	path, err := d.ObjectLocalPath(ctx, "docs", "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Fatalf("read back %q, err = %v", data, err)
	}

	if err := d.ObjectDestroy(ctx, "docs", "a.txt"); err != nil {
		t.Fatal(err)
	}
	exists, err = d.ObjectExists(ctx, "docs", "a.txt")
	if err != nil || exists {
		t.Fatalf("after destroy exists = %v, err = %v", exists, err)
	}
}

func TestLocalObjectCreateFromLocalPath(t *testing.T) {
	d := newTestLocalDriver(t)
	ctx := context.Background()

	srcPath := filepath.Join(t.TempDir(), "in.bin")
	if err := os.WriteFile(srcPath, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := d.ObjectCreate(ctx, "b", "out.bin", ObjectSource{LocalPath: srcPath}); err != nil {
		t.Fatal(err)
	}
	path, err := d.ObjectLocalPath(ctx, "b", "out.bin")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "payload" {
		t.Fatalf("read back %q", data)
	}
}

// Destroying an object that is already gone succeeds; purge retries depend
// on it.
func TestLocalObjectDestroyAbsent(t *testing.T) {
	d := newTestLocalDriver(t)
	if err := d.ObjectDestroy(context.Background(), "nope", "missing.txt"); err != nil {
		t.Fatalf("destroy absent: %v", err)
	}
}

func TestLocalBucketDestroyRemovesObjects(t *testing.T) {
	d := newTestLocalDriver(t)
	ctx := context.Background()

	if err := d.ObjectCreate(ctx, "gone", "x.txt", ObjectSource{Reader: strings.NewReader("x")}); err != nil {
		t.Fatal(err)
	}
	if err := d.BucketDestroy(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	exists, err := d.ObjectExists(ctx, "gone", "x.txt")
	if err != nil || exists {
		t.Fatalf("exists = %v, err = %v", exists, err)
	}
}

func TestLocalPresignedURLNotSupported(t *testing.T) {
	d := newTestLocalDriver(t)
	_, err := d.PresignedURL(context.Background(), "b", "f", "f", time.Minute)
	if err != ErrPresignNotSupported {
		t.Fatalf("err = %v, want ErrPresignNotSupported", err)
	}
}

func TestWriteCacheFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "file.bin")
	if err := WriteCacheFile(path, strings.NewReader("cached")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "cached" {
		t.Fatalf("read back %q, err = %v", data, err)
	}

	// no temp leftovers next to the final file
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("unexpected leftover files: %v", entries)
	}
}
