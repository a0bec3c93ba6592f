package handler

import (
	"mediavault/internal/dto"
	"mediavault/internal/service"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

// CreateBucket provisions a new bucket.
func CreateBucket(c *gin.Context) {
	var req dto.CreateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	bucket, err := service.CreateBucket(c.Request.Context(), service.BucketInput{
		Slug:         req.Slug,
		Label:        req.Label,
		AllowedTypes: req.AllowedTypes,
		MaxSize:      req.MaxSize,
		DiskQuota:    req.DiskQuota,
		IsHidden:     req.IsHidden,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, bucket)
}

// ListBuckets returns visible buckets; ?all=1 includes hidden ones.
func ListBuckets(c *gin.Context) {
	buckets, err := service.ListBuckets(c.Query("all") == "1")
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, buckets)
}

// BucketUsage returns the summed live object size for a bucket.
func BucketUsage(c *gin.Context) {
	bucket, err := service.GetBucketBySlug(c.Param("slug"))
	if err != nil {
		respondErr(c, err)
		return
	}
	used, err := service.BucketUsage(bucket.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.BucketUsageResponse{Bucket: bucket.Slug, Used: used})
}

// DestroyBucket removes a bucket, its bytes, and detaches its object rows.
func DestroyBucket(c *gin.Context) {
	if err := service.DestroyBucket(c.Request.Context(), c.Param("slug")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}
