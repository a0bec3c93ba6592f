package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"mediavault/internal/repo"
	"mediavault/internal/storage"
	"mediavault/model"
	"mediavault/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const objectCacheTTL = 5 * time.Minute

// CreateInput describes the source of a new object: exactly one of Reader,
// LocalPath or RemoteURL.
type CreateInput struct {
	Reader      io.Reader
	Size        int64
	LocalPath   string
	RemoteURL   string
	DisplayName string
	CreatedBy   string
}

func cacheObject(ctx context.Context, obj *model.Object) {
	if obj == nil {
		return
	}
	_ = utils.SetObjectToCache(ctx, obj.ID, obj, objectCacheTTL)
}

// generateFilename builds a collision-resistant storage filename keeping
// the display extension.
func generateFilename(displayName string) string {
	ext := strings.ToLower(path.Ext(displayName))
	return uuid.NewString() + ext
}

// ObjectCreate validates and stores a new object in the named bucket. On
// any validation failure nothing is written to the backend.
func ObjectCreate(ctx context.Context, in CreateInput, bucketSlug string) (*model.Object, error) {
	bucket, err := GetBucketBySlug(bucketSlug)
	if err != nil {
		return nil, err
	}

	localPath, cleanup, displayName, err := materializeSource(ctx, in)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if displayName == "" {
		return nil, validationErr(KindNameMissing)
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(displayName)), ".")
	allowed := allowedExtensionsFor(bucket)
	if !extensionAllowed(ext, allowed) {
		return nil, validationErr(KindMimeNotAllowed, ext)
	}
	mime := ContentTypeForName(displayName)
	if err := crossCheckMime(localPath, mime); err != nil {
		return nil, err
	}

	stat, err := os.Stat(localPath)
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if max := maxSizeFor(bucket); max > 0 && size > max {
		return nil, validationErr(KindTooLarge, formatSize(max), max)
	}
	if bucket.DiskQuota != nil && *bucket.DiskQuota > 0 {
		used, err := BucketUsage(bucket.ID)
		if err != nil {
			return nil, err
		}
		if used+size > *bucket.DiskQuota {
			return nil, validationErr(KindQuotaExceeded, bucket.Slug)
		}
	}

	hash, err := hashFile(localPath)
	if err != nil {
		return nil, err
	}

	var imgInfo *ImageInfo
	if isImageMime(mime) {
		imgInfo, err = ProbeImage(localPath, mime)
		if err != nil {
			return nil, err
		}
	}

	filename := generateFilename(displayName)
	if err := storage.Default.ObjectCreate(ctx, bucket.Slug, filename, storage.ObjectSource{
		LocalPath:   localPath,
		ContentType: mime,
	}); err != nil {
		return nil, err
	}

	obj := &model.Object{
		BucketID:        &bucket.ID,
		Filename:        filename,
		FilenameDisplay: displayName,
		Mime:            mime,
		Size:            size,
		Hash:            hash,
		Driver:          storage.Default.Name(),
		CreatedBy:       in.CreatedBy,
		ModifiedBy:      in.CreatedBy,
	}
	if imgInfo != nil {
		obj.IsImage = true
		obj.ImgWidth = imgInfo.Width
		obj.ImgHeight = imgInfo.Height
		obj.Orientation = imgInfo.Orientation
		obj.IsAnimated = imgInfo.IsAnimated
	}
	if err := repo.Db.Create(obj).Error; err != nil {
		// metadata failed: do not leave orphaned bytes behind
		_ = storage.Default.ObjectDestroy(ctx, bucket.Slug, filename)
		return nil, err
	}
	cacheObject(ctx, obj)
	return obj, nil
}

// materializeSource resolves the create input to a readable local file.
func materializeSource(ctx context.Context, in CreateInput) (string, func(), string, error) {
	noop := func() {}
	switch {
	case in.RemoteURL != "":
		tmpPath, _, err := fetchRemote(ctx, in.RemoteURL)
		if err != nil {
			return "", noop, "", err
		}
		name := strings.TrimSpace(in.DisplayName)
		if name == "" {
			name = inferNameFromURL(in.RemoteURL)
		}
		return tmpPath, func() { os.Remove(tmpPath) }, name, nil
	case in.LocalPath != "":
		name := strings.TrimSpace(in.DisplayName)
		if name == "" {
			name = path.Base(in.LocalPath)
		}
		return in.LocalPath, noop, name, nil
	case in.Reader != nil:
		tmp, err := os.CreateTemp("", "cdn-upload-*")
		if err != nil {
			return "", noop, "", err
		}
		if _, err := io.Copy(tmp, in.Reader); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return "", noop, "", err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return "", noop, "", err
		}
		return tmp.Name(), func() { os.Remove(tmp.Name()) }, strings.TrimSpace(in.DisplayName), nil
	default:
		return "", noop, "", validationErr(KindEmptySource)
	}
}

func inferNameFromURL(rawURL string) string {
	parsed, err := validateSourceURL(rawURL)
	if err != nil {
		return ""
	}
	base := strings.TrimSpace(path.Base(parsed.Path))
	if base == "" || base == "." || base == "/" {
		return ""
	}
	return base
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// crossCheckMime compares the extension-derived mime against the sniffed
// content; a file claiming to be an image must look like one.
func crossCheckMime(localPath, extMime string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return err
	}
	detected := http.DetectContentType(head[:n])
	if isImageMime(extMime) && mimeMajor(detected) != "image" {
		return validationErr(KindMimeNotAllowed, mimeMajor(detected))
	}
	return nil
}

// GetObject loads a live object by id, via the cache when possible.
func GetObject(ctx context.Context, id uint64) (*model.Object, error) {
	if cached, ok := utils.GetObjectFromCache(ctx, id); ok && cached != nil {
		return cached, nil
	}
	var obj model.Object
	err := repo.Db.Where("id = ?", id).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	cacheObject(ctx, &obj)
	return &obj, nil
}

// GetObjectByFilename loads a live object by bucket id and storage
// filename.
func GetObjectByFilename(bucketID uint64, filename string) (*model.Object, error) {
	var obj model.Object
	err := repo.Db.Where("bucket_id = ? AND filename = ?", bucketID, filename).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// ListObjects returns a page of live objects in a bucket.
func ListObjects(bucketID uint64, page, pageSize int) ([]model.Object, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	var total int64
	query := repo.Db.Model(&model.Object{}).Where("bucket_id = ?", bucketID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var objects []model.Object
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&objects).Error
	return objects, total, err
}

func toTrash(obj *model.Object, actor string, now time.Time) *model.TrashObject {
	return &model.TrashObject{
		ID:              obj.ID,
		BucketID:        obj.BucketID,
		Filename:        obj.Filename,
		FilenameDisplay: obj.FilenameDisplay,
		Mime:            obj.Mime,
		Size:            obj.Size,
		Hash:            obj.Hash,
		IsImage:         obj.IsImage,
		ImgWidth:        obj.ImgWidth,
		ImgHeight:       obj.ImgHeight,
		Orientation:     obj.Orientation,
		IsAnimated:      obj.IsAnimated,
		ServeCount:      obj.ServeCount,
		DownloadCount:   obj.DownloadCount,
		ThumbCount:      obj.ThumbCount,
		ScaleCount:      obj.ScaleCount,
		Driver:          obj.Driver,
		CreatedBy:       obj.CreatedBy,
		ModifiedBy:      obj.ModifiedBy,
		CreatedAt:       obj.CreatedAt,
		UpdatedAt:       obj.UpdatedAt,
		TrashedAt:       now,
		TrashedBy:       actor,
	}
}

func fromTrash(trash *model.TrashObject) *model.Object {
	return &model.Object{
		ID:              trash.ID,
		BucketID:        trash.BucketID,
		Filename:        trash.Filename,
		FilenameDisplay: trash.FilenameDisplay,
		Mime:            trash.Mime,
		Size:            trash.Size,
		Hash:            trash.Hash,
		IsImage:         trash.IsImage,
		ImgWidth:        trash.ImgWidth,
		ImgHeight:       trash.ImgHeight,
		Orientation:     trash.Orientation,
		IsAnimated:      trash.IsAnimated,
		ServeCount:      trash.ServeCount,
		DownloadCount:   trash.DownloadCount,
		ThumbCount:      trash.ThumbCount,
		ScaleCount:      trash.ScaleCount,
		Driver:          trash.Driver,
		CreatedBy:       trash.CreatedBy,
		ModifiedBy:      trash.ModifiedBy,
		CreatedAt:       trash.CreatedAt,
		UpdatedAt:       trash.UpdatedAt,
	}
}

// ObjectDelete moves the object row into the trash table, same id, without
// touching the bytes.
func ObjectDelete(ctx context.Context, id uint64, actor string) error {
	var trashed model.Object
	err := repo.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&trashed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrObjectNotFound
			}
			return err
		}
		if err := tx.Create(toTrash(&trashed, actor, time.Now())).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Object{}, trashed.ID).Error
	})
	if err != nil {
		return err
	}
	_ = utils.InvalidateObjectCache(ctx, id)
	if trashed.BucketID != nil {
		if bucket, err := GetBucketByID(*trashed.BucketID); err == nil {
			_ = utils.InvalidateObjectNameCache(ctx, bucket.Slug, trashed.Filename)
		}
	}
	return nil
}

// ObjectRestore moves a trashed row back to the live table. Fails with
// ErrObjectNotTrashed when the row was already purged (or never trashed).
func ObjectRestore(ctx context.Context, id uint64) error {
	err := repo.Db.Transaction(func(tx *gorm.DB) error {
		var trash model.TrashObject
		if err := tx.Where("id = ?", id).First(&trash).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrObjectNotTrashed
			}
			return err
		}
		if err := tx.Create(fromTrash(&trash)).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TrashObject{}, trash.ID).Error
	})
	if err != nil {
		return err
	}
	_ = utils.InvalidateObjectCache(ctx, id)
	return nil
}

// GetTrash loads a trashed object by id.
func GetTrash(id uint64) (*model.TrashObject, error) {
	var trash model.TrashObject
	err := repo.Db.Where("id = ?", id).First(&trash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrObjectNotTrashed
	}
	if err != nil {
		return nil, err
	}
	return &trash, nil
}

// ListTrash returns trashed objects, newest first.
func ListTrash(page, pageSize int) ([]model.TrashObject, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	var total int64
	if err := repo.Db.Model(&model.TrashObject{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.TrashObject
	err := repo.Db.Order("trashed_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// PurgeTrash permanently deletes trashed objects: bytes first, then the
// metadata row. A byte-delete failure leaves the row intact for retry.
// Already-purged ids are a no-op success.
func PurgeTrash(ctx context.Context, ids []uint64) error {
	for _, id := range ids {
		var trash model.TrashObject
		err := repo.Db.Where("id = ?", id).First(&trash).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		bucketSlug, err := trashBucketSlug(&trash)
		if err != nil {
			return err
		}
		if bucketSlug != "" {
			// the driver treats already-absent bytes as success
			if err := storage.Default.ObjectDestroy(ctx, bucketSlug, trash.Filename); err != nil {
				return fmt.Errorf("purge object %d: %w", id, err)
			}
		}
		if err := repo.Db.Delete(&model.TrashObject{}, id).Error; err != nil {
			return err
		}
		_ = utils.InvalidateObjectCache(ctx, id)
	}
	return nil
}

// trashBucketSlug resolves the storage namespace for a trashed row. Rows
// whose bucket was destroyed have no bytes left to delete.
func trashBucketSlug(trash *model.TrashObject) (string, error) {
	if trash.BucketID == nil {
		return "", nil
	}
	bucket, err := GetBucketByID(*trash.BucketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return bucket.Slug, nil
}

// ListExpiredTrash returns trashed rows older than the retention cutoff.
func ListExpiredTrash(retentionDays int) ([]model.TrashObject, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	var items []model.TrashObject
	err := repo.Db.Where("trashed_at < ?", cutoff).Order("trashed_at").Find(&items).Error
	return items, err
}
