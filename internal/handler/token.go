package handler

import (
	"time"

	"mediavault/internal/dto"
	"mediavault/internal/service"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

// CreateToken mints an upload token. The secret appears only in this
// response.
func CreateToken(c *gin.Context) {
	var req dto.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	ttlDays := req.TTLDays
	if ttlDays <= 0 {
		ttlDays = 7
	}
	wire, token, err := service.CreateUploadToken(req.Buckets, time.Duration(ttlDays)*24*time.Hour, "")
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.TokenResponse{
		Token:     wire,
		ExpiresAt: token.ExpiresAt.Format(time.RFC3339),
	})
}

// RevokeToken deletes an upload token by its public id.
func RevokeToken(c *gin.Context) {
	if err := service.RevokeUploadToken(c.Param("token_id")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}
