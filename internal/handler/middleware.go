package handler

import (
	"net/http"

	"mediavault/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderToken carries the wire-form upload token "tokenID.secret".
	HeaderToken = "X-Cdn-Token"
	// HeaderBucket names the target bucket when the request body cannot,
	// e.g. raw binary uploads.
	HeaderBucket = "X-Cdn-Bucket"
)

// UploadTokenMiddleware validates the X-Cdn-Token header and stores the
// token row in the request context.
func UploadTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderToken)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		token, err := service.ValidateUploadToken(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Set("upload_token", token)
		c.Next()
	}
}
