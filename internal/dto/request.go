package dto

type CreateBucketRequest struct {
	Slug         string   `json:"slug" binding:"required"`
	Label        string   `json:"label"`
	AllowedTypes []string `json:"allowed_types"`
	MaxSize      *int64   `json:"max_size"`
	DiskQuota    *int64   `json:"disk_quota"`
	IsHidden     bool     `json:"is_hidden"`
}

type ImportURLRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	URL    string `json:"url" binding:"required"`
}

type ObjectFromURLRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	URL    string `json:"url" binding:"required"`
	Name   string `json:"name"`
}

type PurgeTrashRequest struct {
	ObjectIDs []uint64 `json:"object_ids" binding:"required"`
}

type ReplaceUsagesRequest struct {
	OldObjectID uint64 `json:"old_object_id" binding:"required"`
	NewObjectID uint64 `json:"new_object_id" binding:"required"`
}

type CreateTokenRequest struct {
	Buckets []string `json:"buckets"`
	TTLDays int      `json:"ttl_days"`
}

type ZipURLRequest struct {
	ObjectIDs []uint64 `json:"object_ids" binding:"required"`
	Name      string   `json:"name"`
}
