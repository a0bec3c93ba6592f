package handler

import (
	"mediavault/internal/dto"
	"mediavault/internal/service"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

// LocateUsages lists where an object is referenced across the system.
func LocateUsages(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	usages, err := service.LocateUsages(id)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, usages)
}

// DeleteUsages clears every reference to an object.
func DeleteUsages(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := service.DeleteUsages(id); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

// ReplaceUsages rewrites references from one object to another.
func ReplaceUsages(c *gin.Context) {
	var req dto.ReplaceUsagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	if err := service.ReplaceUsages(req.OldObjectID, req.NewObjectID); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}
