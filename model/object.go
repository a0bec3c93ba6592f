package model

import "time"

// Orientation classifies image objects by aspect.
type Orientation string

const (
	OrientationSquare    Orientation = "SQUARE"
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

type Object struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	// BucketID is nullable so rows survive bucket destruction.
	BucketID *uint64 `gorm:"column:bucket_id;index" json:"bucket_id,omitempty"`
	Bucket   *Bucket `gorm:"foreignKey:BucketID;references:ID;constraint:OnDelete:SET NULL" json:"bucket,omitempty"`

	// Filename is the generated on-storage name; FilenameDisplay is what
	// the user sees.
	Filename        string `gorm:"column:filename;size:255;not null;index" json:"filename"`
	FilenameDisplay string `gorm:"column:filename_display;size:255;not null" json:"filename_display"`

	Mime string `gorm:"column:mime;size:127;not null" json:"mime"`
	Size int64  `gorm:"column:size;not null" json:"size"`
	Hash string `gorm:"column:hash;size:64;index" json:"hash,omitempty"`

	IsImage     bool        `gorm:"column:is_image;not null;default:false" json:"is_image,omitempty"`
	ImgWidth    int         `gorm:"column:img_width;default:0" json:"img_width,omitempty"`
	ImgHeight   int         `gorm:"column:img_height;default:0" json:"img_height,omitempty"`
	Orientation Orientation `gorm:"column:orientation;size:16" json:"orientation,omitempty"`
	IsAnimated  bool        `gorm:"column:is_animated;not null;default:false" json:"is_animated,omitempty"`

	// Advisory counters, incremented best-effort on URL generation.
	ServeCount    int64 `gorm:"column:serve_count;not null;default:0" json:"serve_count,omitempty"`
	DownloadCount int64 `gorm:"column:download_count;not null;default:0" json:"download_count,omitempty"`
	ThumbCount    int64 `gorm:"column:thumb_count;not null;default:0" json:"thumb_count,omitempty"`
	ScaleCount    int64 `gorm:"column:scale_count;not null;default:0" json:"scale_count,omitempty"`

	// Driver records which storage backend holds the bytes.
	Driver string `gorm:"column:driver;size:32;not null" json:"driver"`

	CreatedBy  string    `gorm:"column:created_by;size:64" json:"created_by,omitempty"`
	ModifiedBy string    `gorm:"column:modified_by;size:64" json:"modified_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Object) TableName() string {
	return "cdn_object"
}
