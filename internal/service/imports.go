package service

import (
	"context"
	"errors"
	"time"

	"mediavault/internal/mq"
	"mediavault/internal/repo"
	"mediavault/model"

	"gorm.io/gorm"
)

// EnqueueImport validates the source URL with a HEAD probe and records a
// PENDING import. The probed mime and size are stored for later
// comparison but do not gate enqueueing beyond reachability.
func EnqueueImport(ctx context.Context, bucketSlug, sourceURL, requestedBy string) (*model.ImportItem, error) {
	bucket, err := GetBucketBySlug(bucketSlug)
	if err != nil {
		return nil, err
	}
	mime, size, err := probeRemote(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	item := &model.ImportItem{
		BucketID:     bucket.ID,
		SourceURL:    sourceURL,
		ExpectedMime: mime,
		ExpectedSize: size,
		Status:       model.ImportStatusPending,
		RequestedBy:  requestedBy,
	}
	if err := repo.Db.Create(item).Error; err != nil {
		return nil, err
	}
	mq.PublishImportEvent(mq.ImportEvent{
		ImportID:  item.ID,
		Status:    item.Status,
		SourceURL: item.SourceURL,
	})
	return item, nil
}

// GetImport loads an import item by id.
func GetImport(id uint64) (*model.ImportItem, error) {
	var item model.ImportItem
	err := repo.Db.Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListImports returns imports filtered by status (empty means all),
// newest first.
func ListImports(status string, page, pageSize int) ([]model.ImportItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	query := repo.Db.Model(&model.ImportItem{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.ImportItem
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// CancelImport moves a PENDING import to CANCELLED. Items that a worker
// has already claimed cannot be cancelled.
func CancelImport(id uint64) error {
	res := repo.Db.Model(&model.ImportItem{}).
		Where("id = ? AND status = ?", id, model.ImportStatusPending).
		Update("status", model.ImportStatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		mq.PublishImportEvent(mq.ImportEvent{ImportID: id, Status: model.ImportStatusCancelled})
		return nil
	}
	if _, err := GetImport(id); err != nil {
		return err
	}
	return ErrImportCannotCancel
}

// ClaimNextImport atomically claims the oldest PENDING import for this
// worker. The conditional update means concurrent workers never claim the
// same item; a lost race retries with the next candidate. Returns nil when
// the queue is empty.
func ClaimNextImport() (*model.ImportItem, error) {
	for {
		var item model.ImportItem
		err := repo.Db.Where("status = ?", model.ImportStatusPending).
			Order("id").
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		now := time.Now()
		res := repo.Db.Model(&model.ImportItem{}).
			Where("id = ? AND status = ?", item.ID, model.ImportStatusPending).
			Updates(map[string]interface{}{
				"status":     model.ImportStatusInProgress,
				"started_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// another worker got there first
			continue
		}
		item.Status = model.ImportStatusInProgress
		item.StartedAt = &now
		mq.PublishImportEvent(mq.ImportEvent{
			ImportID:  item.ID,
			Status:    item.Status,
			SourceURL: item.SourceURL,
		})
		return &item, nil
	}
}

// CompleteImport marks a claimed import COMPLETE and links the created
// object. Returns ErrImportNotClaimed when the row is no longer
// IN_PROGRESS, for example after a stale-reset raced the worker; no
// event is published in that case.
func CompleteImport(id, objectID uint64) error {
	now := time.Now()
	res := repo.Db.Model(&model.ImportItem{}).
		Where("id = ? AND status = ?", id, model.ImportStatusInProgress).
		Updates(map[string]interface{}{
			"status":      model.ImportStatusComplete,
			"object_id":   objectID,
			"finished_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrImportNotClaimed
	}
	mq.PublishImportEvent(mq.ImportEvent{ImportID: id, Status: model.ImportStatusComplete, ObjectID: objectID})
	return nil
}

// FailImport marks a claimed import ERROR with a caller-displayable
// message. Like CompleteImport, a row that already left IN_PROGRESS is
// not touched and yields ErrImportNotClaimed.
func FailImport(id uint64, reason string) error {
	now := time.Now()
	res := repo.Db.Model(&model.ImportItem{}).
		Where("id = ? AND status = ?", id, model.ImportStatusInProgress).
		Updates(map[string]interface{}{
			"status":      model.ImportStatusError,
			"error_msg":   reason,
			"finished_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrImportNotClaimed
	}
	mq.PublishImportEvent(mq.ImportEvent{ImportID: id, Status: model.ImportStatusError, Error: reason})
	return nil
}

// ProcessImport downloads a claimed item's source and creates the object.
// Returns the created object; the caller records completion or failure.
func ProcessImport(ctx context.Context, item *model.ImportItem) (*model.Object, error) {
	bucket, err := GetBucketByID(item.BucketID)
	if err != nil {
		return nil, err
	}
	return ObjectCreate(ctx, CreateInput{
		RemoteURL: item.SourceURL,
		CreatedBy: item.RequestedBy,
	}, bucket.Slug)
}

// ResetStuckImports returns IN_PROGRESS items older than the cutoff to
// PENDING. Operator tool for recovering after a worker crash; never run it
// while workers are live.
func ResetStuckImports(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := repo.Db.Model(&model.ImportItem{}).
		Where("status = ? AND started_at < ?", model.ImportStatusInProgress, cutoff).
		Updates(map[string]interface{}{
			"status":     model.ImportStatusPending,
			"started_at": nil,
		})
	return res.RowsAffected, res.Error
}
