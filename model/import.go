package model

import "time"

// Import statuses. PENDING rows may be claimed or cancelled; IN_PROGRESS
// rows terminate in COMPLETE or ERROR; terminal states never transition.
const (
	ImportStatusPending    = "PENDING"
	ImportStatusInProgress = "IN_PROGRESS"
	ImportStatusComplete   = "COMPLETE"
	ImportStatusError      = "ERROR"
	ImportStatusCancelled  = "CANCELLED"
)

type ImportItem struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	BucketID uint64 `gorm:"column:bucket_id;index;not null" json:"bucket_id"`
	Bucket   Bucket `gorm:"foreignKey:BucketID;references:ID" json:"-"`

	SourceURL string `gorm:"column:source_url;type:text;not null" json:"source_url"`

	// Probed from the HEAD request at enqueue time.
	ExpectedMime string `gorm:"column:expected_mime;size:127" json:"expected_mime,omitempty"`
	ExpectedSize int64  `gorm:"column:expected_size;default:0" json:"expected_size,omitempty"`

	Status   string `gorm:"column:status;size:32;index;not null" json:"status"`
	ErrorMsg string `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`

	// ObjectID is set once the import completes.
	ObjectID *uint64 `gorm:"column:object_id" json:"object_id,omitempty"`

	RequestedBy string     `gorm:"column:requested_by;size:255" json:"requested_by,omitempty"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (ImportItem) TableName() string {
	return "cdn_import"
}
