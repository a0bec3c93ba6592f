package model

import "time"

type Bucket struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	// Slug doubles as the storage path segment; it must not change once
	// objects exist in the bucket.
	Slug  string `gorm:"column:slug;size:64;uniqueIndex;not null" json:"slug"`
	Label string `gorm:"column:label;size:255;not null" json:"label"`

	// AllowedTypes is a comma-separated extension allow-list. Empty means
	// the global default applies.
	AllowedTypes string `gorm:"column:allowed_types;size:512" json:"allowed_types,omitempty"`

	MaxSize   *int64 `gorm:"column:max_size" json:"max_size,omitempty"`
	DiskQuota *int64 `gorm:"column:disk_quota" json:"disk_quota,omitempty"`

	IsHidden bool `gorm:"column:is_hidden;not null;default:false" json:"is_hidden,omitempty"`

	CreatedBy  string    `gorm:"column:created_by;size:64" json:"created_by,omitempty"`
	ModifiedBy string    `gorm:"column:modified_by;size:64" json:"modified_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Bucket) TableName() string {
	return "cdn_bucket"
}
