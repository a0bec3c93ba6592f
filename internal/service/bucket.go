package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"mediavault/config"
	"mediavault/internal/repo"
	"mediavault/internal/storage"
	"mediavault/model"

	"gorm.io/gorm"
)

// Bucket slugs double as backend namespace names, so they follow the usual
// object-storage rules: 3-63 chars, lowercase alphanumeric plus hyphens.
var bucketSlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$|^[a-z0-9]{3}$`)

// BucketInput carries optional settings for bucket creation.
type BucketInput struct {
	Slug         string
	Label        string
	AllowedTypes []string
	MaxSize      *int64
	DiskQuota    *int64
	IsHidden     bool
	CreatedBy    string
}

// CreateBucket validates the slug, provisions the backend namespace and
// records the bucket row.
func CreateBucket(ctx context.Context, in BucketInput) (*model.Bucket, error) {
	slug := strings.TrimSpace(strings.ToLower(in.Slug))
	if !bucketSlugPattern.MatchString(slug) {
		return nil, validationErr(KindBucketSlug, in.Slug)
	}
	var existing model.Bucket
	err := repo.Db.Where("slug = ?", slug).First(&existing).Error
	if err == nil {
		return nil, validationErr(KindBucketExists, slug)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := storage.Default.BucketCreate(ctx, slug); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = slug
	}
	bucket := &model.Bucket{
		Slug:         slug,
		Label:        label,
		AllowedTypes: strings.Join(normalizeExtensions(in.AllowedTypes), ","),
		MaxSize:      in.MaxSize,
		DiskQuota:    in.DiskQuota,
		IsHidden:     in.IsHidden,
		CreatedBy:    in.CreatedBy,
		ModifiedBy:   in.CreatedBy,
	}
	if err := repo.Db.Create(bucket).Error; err != nil {
		return nil, err
	}
	return bucket, nil
}

// GetBucketBySlug loads a bucket by its slug.
func GetBucketBySlug(slug string) (*model.Bucket, error) {
	var bucket model.Bucket
	err := repo.Db.Where("slug = ?", strings.TrimSpace(strings.ToLower(slug))).First(&bucket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationErr(KindBucketNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

// GetBucketByID loads a bucket by its id.
func GetBucketByID(id uint64) (*model.Bucket, error) {
	var bucket model.Bucket
	if err := repo.Db.Where("id = ?", id).First(&bucket).Error; err != nil {
		return nil, err
	}
	return &bucket, nil
}

// ListBuckets returns buckets, optionally including hidden ones.
func ListBuckets(includeHidden bool) ([]model.Bucket, error) {
	var buckets []model.Bucket
	query := repo.Db.Order("slug")
	if !includeHidden {
		query = query.Where("is_hidden = 0")
	}
	err := query.Find(&buckets).Error
	return buckets, err
}

// BucketUsage returns the summed size of live objects in the bucket.
func BucketUsage(bucketID uint64) (int64, error) {
	var used int64
	err := repo.Db.Model(&model.Object{}).
		Where("bucket_id = ?", bucketID).
		Select("COALESCE(SUM(size), 0)").
		Scan(&used).Error
	return used, err
}

// DestroyBucket removes the backend namespace (and all contained bytes),
// detaches live and trashed object rows from the bucket, and deletes the
// bucket row.
func DestroyBucket(ctx context.Context, slug string) error {
	bucket, err := GetBucketBySlug(slug)
	if err != nil {
		return err
	}
	if err := storage.Default.BucketDestroy(ctx, bucket.Slug); err != nil {
		return err
	}
	return repo.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Object{}).
			Where("bucket_id = ?", bucket.ID).
			Update("bucket_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.TrashObject{}).
			Where("bucket_id = ?", bucket.ID).
			Update("bucket_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Bucket{}, bucket.ID).Error
	})
}

// allowedExtensionsFor returns the bucket's extension allow-list, falling
// back to the global default when the bucket does not set one.
func allowedExtensionsFor(bucket *model.Bucket) []string {
	if bucket.AllowedTypes != "" {
		return normalizeExtensions(strings.Split(bucket.AllowedTypes, ","))
	}
	return normalizeExtensions(config.AppConfig.BucketDefaultAllowedTypes)
}

// maxSizeFor returns the bucket's object size limit, falling back to the
// global default.
func maxSizeFor(bucket *model.Bucket) int64 {
	if bucket.MaxSize != nil && *bucket.MaxSize > 0 {
		return *bucket.MaxSize
	}
	return config.AppConfig.BucketDefaultMaxSize
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if ext == "" {
			continue
		}
		out = append(out, ext)
	}
	return out
}

func extensionAllowed(ext string, allowed []string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
