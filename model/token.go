package model

import "time"

// UploadToken permits unauthenticated object creation against specific
// buckets until it expires. Only the bcrypt hash of the secret is stored.
type UploadToken struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	TokenID    string `gorm:"column:token_id;size:36;uniqueIndex;not null" json:"token_id"`
	SecretHash string `gorm:"column:secret_hash;size:255;not null" json:"-"`

	// BucketSlugs is a comma-separated list of buckets the token may write
	// to. Empty means any visible bucket.
	BucketSlugs string `gorm:"column:bucket_slugs;size:512" json:"bucket_slugs,omitempty"`

	ExpiresAt time.Time `gorm:"column:expires_at;index;not null" json:"expires_at"`

	CreatedBy string    `gorm:"column:created_by;size:64" json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (UploadToken) TableName() string {
	return "cdn_upload_token"
}
