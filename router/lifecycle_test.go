package router

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"mediavault/config"
	"mediavault/internal/repo"
	"mediavault/internal/service"
	"mediavault/internal/storage"
	"mediavault/model"

	"golang.org/x/net/context"
)

// TestMain sets up the test environment against the test database and a
// throwaway filesystem root. Requires a reachable MySQL.
func TestMain(m *testing.M) {
	config.InitConfig()

	dataRoot, err := os.MkdirTemp("", "cdn-test-data-*")
	if err != nil {
		panic(err)
	}
	cacheRoot, err := os.MkdirTemp("", "cdn-test-cache-*")
	if err != nil {
		panic(err)
	}
	config.AppConfig.CdnDriver = "local"
	config.AppConfig.CdnLocalRoot = dataRoot
	config.AppConfig.CdnCacheDir = cacheRoot
	config.AppConfig.RabbitMQURL = ""

	repo.InitMysqlTest()
	storage.InitDriver()

	cleanupAllTables()

	code := m.Run()
	os.RemoveAll(dataRoot)
	os.RemoveAll(cacheRoot)
	os.Exit(code)
}

func cleanupAllTables() {
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 0")
	tables := []string{
		"cdn_import",
		"cdn_object_trash",
		"cdn_object",
		"cdn_upload_token",
		"cdn_bucket",
	}
	for _, table := range tables {
		repo.Db.Exec("DELETE FROM " + table)
	}
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 1")
	log.Println("[testmain] all tables cleaned")
}

func mustCreateBucket(t *testing.T, slug string) *model.Bucket {
	t.Helper()
	bucket, err := service.CreateBucket(context.Background(), service.BucketInput{Slug: slug})
	if err != nil {
		t.Fatal(err)
	}
	return bucket
}

func mustCreateObject(t *testing.T, bucketSlug, name, content string) *model.Object {
	t.Helper()
	obj, err := service.ObjectCreate(context.Background(), service.CreateInput{
		Reader:      strings.NewReader(content),
		Size:        int64(len(content)),
		DisplayName: name,
	}, bucketSlug)
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

func TestObjectLifecycle(t *testing.T) {
	ctx := context.Background()
	bucket := mustCreateBucket(t, "lifecycle-objs")

	obj := mustCreateObject(t, bucket.Slug, "hello.txt", "hello world")
	if obj.FilenameDisplay != "hello.txt" || obj.Size != 11 {
		t.Fatalf("object = %+v", obj)
	}
	if obj.Filename == "hello.txt" {
		t.Fatal("storage filename should be generated, not the display name")
	}
	if obj.Hash == "" {
		t.Fatal("hash should be recorded")
	}

	exists, err := storage.Default.ObjectExists(ctx, bucket.Slug, obj.Filename)
	if err != nil || !exists {
		t.Fatalf("bytes missing after create: exists=%v err=%v", exists, err)
	}

	// trash keeps the id and the bytes
	if err := service.ObjectDelete(ctx, obj.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.GetObject(ctx, obj.ID); !errors.Is(err, service.ErrObjectNotFound) {
		t.Fatalf("live lookup after delete: %v", err)
	}
	trash, err := service.GetTrash(obj.ID)
	if err != nil {
		t.Fatal(err)
	}
	if trash.ID != obj.ID || trash.TrashedBy != "tester" {
		t.Fatalf("trash = %+v", trash)
	}
	exists, _ = storage.Default.ObjectExists(ctx, bucket.Slug, obj.Filename)
	if !exists {
		t.Fatal("bytes should survive a soft delete")
	}

	// restore brings back the same id
	if err := service.ObjectRestore(ctx, obj.ID); err != nil {
		t.Fatal(err)
	}
	restored, err := service.GetObject(ctx, obj.ID)
	if err != nil || restored.ID != obj.ID {
		t.Fatalf("restored = %+v, err = %v", restored, err)
	}
	if _, err := service.GetTrash(obj.ID); !errors.Is(err, service.ErrObjectNotTrashed) {
		t.Fatalf("trash lookup after restore: %v", err)
	}

	// restoring twice fails
	if err := service.ObjectRestore(ctx, obj.ID); !errors.Is(err, service.ErrObjectNotTrashed) {
		t.Fatalf("double restore: %v", err)
	}
}

func TestPurgeRemovesBytesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	bucket := mustCreateBucket(t, "lifecycle-purge")
	obj := mustCreateObject(t, bucket.Slug, "purge-me.txt", "bytes")

	if err := service.ObjectDelete(ctx, obj.ID, ""); err != nil {
		t.Fatal(err)
	}
	if err := service.PurgeTrash(ctx, []uint64{obj.ID}); err != nil {
		t.Fatal(err)
	}
	exists, _ := storage.Default.ObjectExists(ctx, bucket.Slug, obj.Filename)
	if exists {
		t.Fatal("bytes should be gone after purge")
	}
	if _, err := service.GetTrash(obj.ID); !errors.Is(err, service.ErrObjectNotTrashed) {
		t.Fatalf("trash row should be gone: %v", err)
	}

	// purging the same id again is a no-op success
	if err := service.PurgeTrash(ctx, []uint64{obj.ID}); err != nil {
		t.Fatalf("second purge: %v", err)
	}
}

func TestObjectCreateValidation(t *testing.T) {
	ctx := context.Background()
	maxSize := int64(4)
	bucket, err := service.CreateBucket(ctx, service.BucketInput{
		Slug:         "lifecycle-limits",
		AllowedTypes: []string{"txt"},
		MaxSize:      &maxSize,
	})
	if err != nil {
		t.Fatal(err)
	}

	// disallowed extension
	_, err = service.ObjectCreate(ctx, service.CreateInput{
		Reader:      strings.NewReader("x"),
		DisplayName: "evil.exe",
	}, bucket.Slug)
	if !service.IsValidation(err) {
		t.Fatalf("extension check: %v", err)
	}

	// too large, message names the limit
	_, err = service.ObjectCreate(ctx, service.CreateInput{
		Reader:      strings.NewReader("toobig"),
		DisplayName: "big.txt",
	}, bucket.Slug)
	if !service.IsValidation(err) {
		t.Fatalf("size check: %v", err)
	}
	if !strings.Contains(err.Error(), "4 B") {
		t.Fatalf("size message should name the limit: %q", err.Error())
	}

	// unknown bucket
	_, err = service.ObjectCreate(ctx, service.CreateInput{
		Reader:      strings.NewReader("x"),
		DisplayName: "a.txt",
	}, "no-such-bucket")
	if !service.IsValidation(err) {
		t.Fatalf("bucket check: %v", err)
	}

	// nothing written on failure
	var count int64
	repo.Db.Model(&model.Object{}).Where("bucket_id = ?", bucket.ID).Count(&count)
	if count != 0 {
		t.Fatalf("failed creates left %d rows", count)
	}
}

func TestImportStateMachine(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-imports")

	pendingA := &model.ImportItem{BucketID: bucket.ID, SourceURL: "http://example.com/a", Status: model.ImportStatusPending}
	pendingB := &model.ImportItem{BucketID: bucket.ID, SourceURL: "http://example.com/b", Status: model.ImportStatusPending}
	if err := repo.Db.Create(pendingA).Error; err != nil {
		t.Fatal(err)
	}
	if err := repo.Db.Create(pendingB).Error; err != nil {
		t.Fatal(err)
	}

	// claims come oldest first and flip to IN_PROGRESS
	claimed, err := service.ClaimNextImport()
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil || claimed.ID != pendingA.ID {
		t.Fatalf("claimed = %+v", claimed)
	}
	if claimed.Status != model.ImportStatusInProgress || claimed.StartedAt == nil {
		t.Fatalf("claimed = %+v", claimed)
	}

	// a claimed item cannot be cancelled
	if err := service.CancelImport(claimed.ID); !errors.Is(err, service.ErrImportCannotCancel) {
		t.Fatalf("cancel claimed: %v", err)
	}

	// the other pending item still can be
	if err := service.CancelImport(pendingB.ID); err != nil {
		t.Fatal(err)
	}
	cancelled, err := service.GetImport(pendingB.ID)
	if err != nil || cancelled.Status != model.ImportStatusCancelled {
		t.Fatalf("cancelled = %+v, err = %v", cancelled, err)
	}

	// completing links the object and is terminal
	obj := mustCreateObject(t, bucket.Slug, "imported.txt", "data")
	if err := service.CompleteImport(claimed.ID, obj.ID); err != nil {
		t.Fatal(err)
	}
	done, err := service.GetImport(claimed.ID)
	if err != nil || done.Status != model.ImportStatusComplete {
		t.Fatalf("done = %+v, err = %v", done, err)
	}
	if done.ObjectID == nil || *done.ObjectID != obj.ID {
		t.Fatalf("object link = %+v", done.ObjectID)
	}

	// queue is now empty
	next, err := service.ClaimNextImport()
	if err != nil || next != nil {
		t.Fatalf("next = %+v, err = %v", next, err)
	}

	// cancelling a missing import reports not found
	if err := service.CancelImport(999999); !errors.Is(err, service.ErrImportNotFound) {
		t.Fatalf("cancel missing: %v", err)
	}
}

func TestResetStuckImports(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-stuck")

	old := time.Now().Add(-3 * time.Hour)
	stuck := &model.ImportItem{
		BucketID:  bucket.ID,
		SourceURL: "http://example.com/stuck",
		Status:    model.ImportStatusInProgress,
		StartedAt: &old,
	}
	if err := repo.Db.Create(stuck).Error; err != nil {
		t.Fatal(err)
	}

	n, err := service.ResetStuckImports(2 * time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("reset = %d, err = %v", n, err)
	}
	item, err := service.GetImport(stuck.ID)
	if err != nil || item.Status != model.ImportStatusPending {
		t.Fatalf("item = %+v, err = %v", item, err)
	}
}

func TestClaimNextImportConcurrent(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-claim-race")
	item := &model.ImportItem{BucketID: bucket.ID, SourceURL: "http://example.com/race", Status: model.ImportStatusPending}
	if err := repo.Db.Create(item).Error; err != nil {
		t.Fatal(err)
	}

	const workers = 8
	var wg sync.WaitGroup
	claims := make(chan *model.ImportItem, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := service.ClaimNextImport()
			if err != nil {
				errs <- err
				return
			}
			if claimed != nil {
				claims <- claimed
			}
		}()
	}
	wg.Wait()
	close(claims)
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	// exactly one worker may win the row
	winners := 0
	for claimed := range claims {
		if claimed.ID == item.ID {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("item claimed %d times, want exactly 1", winners)
	}
	row, err := service.GetImport(item.ID)
	if err != nil || row.Status != model.ImportStatusInProgress || row.StartedAt == nil {
		t.Fatalf("row = %+v, err = %v", row, err)
	}
}

func TestCompleteImportRequiresClaim(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-claim-guard")
	item := &model.ImportItem{BucketID: bucket.ID, SourceURL: "http://example.com/unclaimed", Status: model.ImportStatusPending}
	if err := repo.Db.Create(item).Error; err != nil {
		t.Fatal(err)
	}

	// a row nobody claimed cannot be completed or failed
	if err := service.CompleteImport(item.ID, 1); !errors.Is(err, service.ErrImportNotClaimed) {
		t.Fatalf("complete unclaimed: %v", err)
	}
	if err := service.FailImport(item.ID, "boom"); !errors.Is(err, service.ErrImportNotClaimed) {
		t.Fatalf("fail unclaimed: %v", err)
	}
	row, err := service.GetImport(item.ID)
	if err != nil || row.Status != model.ImportStatusPending {
		t.Fatalf("row = %+v, err = %v", row, err)
	}
}

func TestScanUnusedReportsOrphans(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-scan")
	used := mustCreateObject(t, bucket.Slug, "referenced.txt", "u")
	orphan := mustCreateObject(t, bucket.Slug, "unreferenced.txt", "o")

	item := &model.ImportItem{
		BucketID:  bucket.ID,
		SourceURL: "http://example.com/scan",
		Status:    model.ImportStatusComplete,
		ObjectID:  &used.ID,
	}
	if err := repo.Db.Create(item).Error; err != nil {
		t.Fatal(err)
	}
	service.RegisterMonitor(service.TableMonitor{MonitorName: "imports", Table: "cdn_import", Column: "object_id"})

	outPath := filepath.Join(t.TempDir(), "unused.txt")
	found, err := service.ScanUnused(context.Background(), outPath, false)
	if err != nil {
		t.Fatal(err)
	}
	if found < 1 {
		t.Fatalf("found = %d", found)
	}
	report, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	ids := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(string(report)), "\n") {
		ids[line] = true
	}
	if !ids[strconv.FormatUint(orphan.ID, 10)] {
		t.Fatal("unreferenced object missing from the report")
	}
	if ids[strconv.FormatUint(used.ID, 10)] {
		t.Fatal("referenced object should not be reported")
	}

	// a cancelled context aborts the walk and leaves no report behind
	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()
	abortPath := filepath.Join(t.TempDir(), "aborted.txt")
	if _, err := service.ScanUnused(cancelledCtx, abortPath, false); err == nil {
		t.Fatal("cancelled scan should fail")
	}
	if _, err := os.Stat(abortPath); !os.IsNotExist(err) {
		t.Fatalf("cancelled scan should not write a report: %v", err)
	}
}

func TestUploadTokenFlow(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-tokens")

	wire, _, err := service.CreateUploadToken([]string{bucket.Slug}, time.Hour, "admin")
	if err != nil {
		t.Fatal(err)
	}

	token, err := service.ValidateUploadToken(wire)
	if err != nil {
		t.Fatal(err)
	}
	if !service.TokenAllowsBucket(token, bucket.Slug) {
		t.Fatal("token should allow its own bucket")
	}
	if service.TokenAllowsBucket(token, "other-bucket") {
		t.Fatal("token should refuse other buckets")
	}

	// wrong secret
	parts := strings.SplitN(wire, ".", 2)
	if _, err := service.ValidateUploadToken(parts[0] + ".wrong-secret"); !service.IsValidation(err) {
		t.Fatalf("wrong secret: %v", err)
	}

	// expired token
	expiredWire, _, err := service.CreateUploadToken(nil, -time.Hour, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.ValidateUploadToken(expiredWire); !service.IsValidation(err) {
		t.Fatalf("expired token: %v", err)
	}
}

func TestTableMonitorUsages(t *testing.T) {
	bucket := mustCreateBucket(t, "lifecycle-monitor")
	objA := mustCreateObject(t, bucket.Slug, "used.txt", "a")
	objB := mustCreateObject(t, bucket.Slug, "replacement.txt", "b")

	item := &model.ImportItem{
		BucketID:  bucket.ID,
		SourceURL: "http://example.com/used",
		Status:    model.ImportStatusComplete,
		ObjectID:  &objA.ID,
	}
	if err := repo.Db.Create(item).Error; err != nil {
		t.Fatal(err)
	}

	monitor := service.TableMonitor{MonitorName: "imports", Table: "cdn_import", Column: "object_id"}

	usages, err := monitor.Locate(objA.ID)
	if err != nil || len(usages) != 1 || usages[0].Count != 1 {
		t.Fatalf("usages = %+v, err = %v", usages, err)
	}

	if err := monitor.Replace(objA.ID, objB.ID); err != nil {
		t.Fatal(err)
	}
	usages, _ = monitor.Locate(objA.ID)
	if len(usages) != 0 {
		t.Fatalf("old object still referenced: %+v", usages)
	}
	usages, _ = monitor.Locate(objB.ID)
	if len(usages) != 1 {
		t.Fatalf("replacement not referenced: %+v", usages)
	}

	if err := monitor.Delete(objB.ID); err != nil {
		t.Fatal(err)
	}
	usages, _ = monitor.Locate(objB.ID)
	if len(usages) != 0 {
		t.Fatalf("delete left references: %+v", usages)
	}
}

func TestURLGenerationAgainstSchemes(t *testing.T) {
	ctx := context.Background()
	bucket := mustCreateBucket(t, "lifecycle-urls")
	obj := mustCreateObject(t, bucket.Slug, "doc.txt", "text")

	url, err := service.URLServe(ctx, obj.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	pattern := storage.Default.URLServeScheme().Pattern()
	rebuilt := strings.ReplaceAll(pattern, "{{bucket}}", bucket.Slug)
	rebuilt = strings.ReplaceAll(rebuilt, "{{filename}}", obj.Filename)
	if rebuilt != url {
		t.Fatalf("scheme %q rebuilt %q, URLServe gave %q", pattern, rebuilt, url)
	}

	dl, err := service.URLServe(ctx, obj.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(dl, "?dl=1") {
		t.Fatalf("download url = %q", dl)
	}

	// counters moved best effort
	var row model.Object
	repo.Db.First(&row, obj.ID)
	if row.ServeCount != 1 || row.DownloadCount != 1 {
		t.Fatalf("counters = serve %d download %d", row.ServeCount, row.DownloadCount)
	}
}

func TestDestroyBucketDetachesRows(t *testing.T) {
	ctx := context.Background()
	bucket := mustCreateBucket(t, "lifecycle-destroy")
	obj := mustCreateObject(t, bucket.Slug, "orphan.txt", "x")

	if err := service.DestroyBucket(ctx, bucket.Slug); err != nil {
		t.Fatal(err)
	}
	var row model.Object
	if err := repo.Db.First(&row, obj.ID).Error; err != nil {
		t.Fatal(err)
	}
	if row.BucketID != nil {
		t.Fatalf("bucket_id should be null, got %v", *row.BucketID)
	}
	if _, err := service.GetBucketBySlug(bucket.Slug); !service.IsValidation(err) {
		t.Fatalf("bucket lookup after destroy: %v", err)
	}
}
