package handler

import (
	"mediavault/internal/dto"
	"mediavault/internal/service"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

// EnqueueImport validates a source URL and records a pending import.
func EnqueueImport(c *gin.Context) {
	var req dto.ImportURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	_, actor := tokenActor(c)
	item, err := service.EnqueueImport(c.Request.Context(), req.Bucket, req.URL, actor)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, item)
}

// GetImport returns one import item.
func GetImport(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	item, err := service.GetImport(id)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, item)
}

// ListImports returns imports, optionally filtered by ?status=.
func ListImports(c *gin.Context) {
	items, total, err := service.ListImports(c.Query("status"), queryInt(c, "page", 1), queryInt(c, "page_size", 50))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.ImportListResponse{Imports: items, Total: total})
}

// CancelImport cancels a pending import.
func CancelImport(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := service.CancelImport(id); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}
