package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"mediavault/internal/repo"
	"mediavault/internal/storage"
	"mediavault/model"

	"gorm.io/gorm"
)

// UsageDetail is one place an object is referenced from.
type UsageDetail struct {
	Monitor string `json:"monitor"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
}

// Monitor reports and rewrites references to objects held elsewhere in the
// system. Implementations that cannot rewrite return
// ErrMonitorNotSupported from Delete/Replace.
type Monitor interface {
	Name() string
	Locate(objectID uint64) ([]UsageDetail, error)
	Delete(objectID uint64) error
	Replace(oldID, newID uint64) error
}

var monitors []Monitor

// RegisterMonitor adds a monitor to the registry. Call during startup,
// before any scan or locate runs.
func RegisterMonitor(m Monitor) {
	monitors = append(monitors, m)
}

// LocateUsages asks every registered monitor where the object is used.
func LocateUsages(objectID uint64) ([]UsageDetail, error) {
	var all []UsageDetail
	for _, m := range monitors {
		details, err := m.Locate(objectID)
		if err != nil {
			return nil, fmt.Errorf("monitor %s: %w", m.Name(), err)
		}
		all = append(all, details...)
	}
	return all, nil
}

// DeleteUsages clears every reference to the object.
func DeleteUsages(objectID uint64) error {
	for _, m := range monitors {
		if err := m.Delete(objectID); err != nil {
			return fmt.Errorf("monitor %s: %w", m.Name(), err)
		}
	}
	return nil
}

// ReplaceUsages rewrites every reference from oldID to newID.
func ReplaceUsages(oldID, newID uint64) error {
	for _, m := range monitors {
		if err := m.Replace(oldID, newID); err != nil {
			return fmt.Errorf("monitor %s: %w", m.Name(), err)
		}
	}
	return nil
}

// TableMonitor watches a single nullable foreign-key column. Covers the
// common case of app tables that reference objects by id.
type TableMonitor struct {
	MonitorName string
	Table       string
	Column      string
}

func (m TableMonitor) Name() string {
	return m.MonitorName
}

func (m TableMonitor) Locate(objectID uint64) ([]UsageDetail, error) {
	var count int64
	err := repo.Db.Table(m.Table).
		Where(m.Column+" = ?", objectID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return []UsageDetail{{
		Monitor: m.MonitorName,
		Label:   fmt.Sprintf("%s.%s", m.Table, m.Column),
		Count:   count,
	}}, nil
}

func (m TableMonitor) Delete(objectID uint64) error {
	return repo.Db.Table(m.Table).
		Where(m.Column+" = ?", objectID).
		Update(m.Column, nil).Error
}

func (m TableMonitor) Replace(oldID, newID uint64) error {
	return repo.Db.Table(m.Table).
		Where(m.Column+" = ?", oldID).
		Update(m.Column, newID).Error
}

const scanLockKey = "cdn:scan:unused"
const scanLockTTL = 2 * time.Hour

// ScanUnused walks every live object and writes the ids nobody references
// to outPath, one per line. When redis is configured a lock prevents
// overlapping runs; force breaks a stale lock first. Returns the number
// of unused objects found. Cancelling ctx aborts the walk between rows.
func ScanUnused(ctx context.Context, outPath string, force bool) (int, error) {
	if repo.Redis != nil {
		lock := repo.NewRedisLock(repo.Redis, scanLockKey, scanLockTTL)
		if force {
			_ = lock.ForceUnlock(ctx)
		}
		if err := lock.Lock(ctx); err != nil {
			if errors.Is(err, repo.ErrLockBusy) {
				return 0, ErrScanAlreadyRunning
			}
			return 0, err
		}
		defer lock.Unlock(ctx)
	}

	tmp, err := os.CreateTemp("", "cdn-scan-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	found := 0
	var batch []model.Object
	err = repo.Db.WithContext(ctx).Model(&model.Object{}).
		Select("id").
		FindInBatches(&batch, 500, func(tx *gorm.DB, batchNo int) error {
			for i := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				usages, err := LocateUsages(batch[i].ID)
				if err != nil {
					return err
				}
				if len(usages) == 0 {
					if _, err := fmt.Fprintf(tmp, "%d\n", batch[i].ID); err != nil {
						return err
					}
					found++
				}
			}
			log.Printf("scan unused: batch %d done, %d candidates so far", batchNo, found)
			return nil
		}).Error
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		// cross-device fallback
		if err := copyReport(tmp.Name(), outPath); err != nil {
			return 0, err
		}
	}
	return found, nil
}

func copyReport(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return storage.WriteCacheFile(dst, bytes.NewReader(data))
}
