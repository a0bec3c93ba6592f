package dto

import "mediavault/model"

type ObjectListResponse struct {
	Objects []model.Object `json:"objects"`
	Total   int64          `json:"total"`
}

type TrashListResponse struct {
	Objects []model.TrashObject `json:"objects"`
	Total   int64               `json:"total"`
}

type ImportListResponse struct {
	Imports []model.ImportItem `json:"imports"`
	Total   int64              `json:"total"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type ObjectURLsResponse struct {
	Serve    string `json:"serve"`
	Download string `json:"download"`
	Expiring string `json:"expiring,omitempty"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type BucketUsageResponse struct {
	Bucket string `json:"bucket"`
	Used   int64  `json:"used"`
}
