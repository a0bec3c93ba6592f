package service

import (
	"context"
	"fmt"
	"strings"

	"mediavault/config"
	"mediavault/internal/repo"
	"mediavault/internal/storage"
	"mediavault/model"

	"gorm.io/gorm"
)

// checkDimensions enforces the transform allow-list. In production a
// disallowed size behaves exactly like a missing object so the allow-list
// cannot be probed; elsewhere the caller gets a descriptive error.
func checkDimensions(width, height int) error {
	if config.AppConfig.AllowDangerousTransform {
		return nil
	}
	want := fmt.Sprintf("%dx%d", width, height)
	for _, dim := range config.AppConfig.PermittedDimensions {
		if strings.TrimSpace(dim) == want {
			return nil
		}
	}
	if config.AppConfig.IsProduction() {
		return ErrObjectNotFound
	}
	return &DimensionError{Width: width, Height: height}
}

// CheckDimensions exposes the allow-list check to the serving layer,
// which receives dimensions from the URL rather than generating them.
func CheckDimensions(width, height int) error {
	return checkDimensions(width, height)
}

// bumpCounter increments a usage counter without touching updated_at.
// Counter writes are best effort.
func bumpCounter(id uint64, column string) {
	repo.Db.Model(&model.Object{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
}

func objectBucketSlug(obj *model.Object) (string, error) {
	if obj.BucketID == nil {
		return "", validationErr(KindBucketDestroyed)
	}
	bucket, err := GetBucketByID(*obj.BucketID)
	if err != nil {
		return "", err
	}
	return bucket.Slug, nil
}

// URLServe returns the canonical serving URL for a live object. With
// download set, a disposition hint is appended and the download counter
// bumps instead of the serve counter.
func URLServe(ctx context.Context, id uint64, download bool) (string, error) {
	obj, err := GetObject(ctx, id)
	if err != nil {
		return "", err
	}
	slug, err := objectBucketSlug(obj)
	if err != nil {
		return "", err
	}
	raw := storage.Default.URLServe(slug, obj.Filename)
	if download {
		raw += "?dl=1"
		bumpCounter(id, "download_count")
	} else {
		bumpCounter(id, "serve_count")
	}
	return raw, nil
}

// URLServeZipped returns a URL that streams the named objects as a single
// zip archive. Every id must resolve to a live object.
func URLServeZipped(ctx context.Context, ids []uint64, archiveName string) (string, error) {
	if len(ids) == 0 {
		return "", ErrObjectNotFound
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := GetObject(ctx, id); err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	if archiveName == "" {
		archiveName = "download.zip"
	}
	if !strings.HasSuffix(strings.ToLower(archiveName), ".zip") {
		archiveName += ".zip"
	}
	return storage.Default.URLServeZipped(strings.Join(parts, "-"), archiveName), nil
}

// URLCrop returns a URL serving the object centre-cropped to exactly
// width by height.
func URLCrop(ctx context.Context, id uint64, width, height int) (string, error) {
	obj, err := GetObject(ctx, id)
	if err != nil {
		return "", err
	}
	if !obj.IsImage {
		return "", validationErr(KindMimeNotAllowed, obj.Mime)
	}
	if err := checkDimensions(width, height); err != nil {
		return "", err
	}
	slug, err := objectBucketSlug(obj)
	if err != nil {
		return "", err
	}
	bumpCounter(id, "thumb_count")
	return storage.Default.URLCrop(slug, obj.Filename, width, height), nil
}

// URLScale returns a URL serving the object scaled to fit within width by
// height.
func URLScale(ctx context.Context, id uint64, width, height int) (string, error) {
	obj, err := GetObject(ctx, id)
	if err != nil {
		return "", err
	}
	if !obj.IsImage {
		return "", validationErr(KindMimeNotAllowed, obj.Mime)
	}
	if err := checkDimensions(width, height); err != nil {
		return "", err
	}
	slug, err := objectBucketSlug(obj)
	if err != nil {
		return "", err
	}
	bumpCounter(id, "scale_count")
	return storage.Default.URLScale(slug, obj.Filename, width, height), nil
}

// URLPlaceholder returns a URL for a generated grey placeholder image.
func URLPlaceholder(width, height, border int) (string, error) {
	if err := checkDimensions(width, height); err != nil {
		return "", err
	}
	return storage.Default.URLPlaceholder(width, height, border), nil
}

// URLBlankAvatar returns a URL for the default avatar image. sex selects a
// variant; anything unrecognized falls back to the neutral one.
func URLBlankAvatar(width, height int, sex string) (string, error) {
	if err := checkDimensions(width, height); err != nil {
		return "", err
	}
	sex = strings.ToLower(strings.TrimSpace(sex))
	switch sex {
	case "male", "female":
	default:
		sex = "neutral"
	}
	return storage.Default.URLBlankAvatar(width, height, sex), nil
}

// URLExpiring returns a short-lived signed URL for a live object.
func URLExpiring(ctx context.Context, id uint64, download bool) (string, error) {
	obj, err := GetObject(ctx, id)
	if err != nil {
		return "", err
	}
	slug, err := objectBucketSlug(obj)
	if err != nil {
		return "", err
	}
	return storage.Default.URLExpiring(slug, obj.Filename, download)
}
