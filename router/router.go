package router

import (
	"mediavault/internal/handler"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API and serving routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/token", handler.CreateToken)
		api.DELETE("/token/:token_id", handler.RevokeToken)
		api.GET("/placeholder-url", handler.PlaceholderURL)
		api.GET("/blank-avatar-url", handler.BlankAvatarURL)

		bucket := api.Group("/bucket")
		{
			bucket.POST("", handler.CreateBucket)
			bucket.GET("", handler.ListBuckets)
			bucket.GET("/:slug/usage", handler.BucketUsage)
			bucket.GET("/:slug/objects", handler.ListObjects)
			bucket.DELETE("/:slug", handler.DestroyBucket)
		}

		object := api.Group("/object")
		object.Use(handler.UploadTokenMiddleware())
		{
			object.POST("", handler.CreateObject)
			object.POST("/url", handler.CreateObjectFromURL)
			object.GET("/:id", handler.GetObject)
			object.DELETE("/:id", handler.DeleteObject)
			object.POST("/:id/restore", handler.RestoreObject)
			object.GET("/:id/urls", handler.ObjectURLs)
			object.GET("/:id/crop-url", handler.ObjectCropURL)
			object.GET("/:id/scale-url", handler.ObjectScaleURL)
			object.GET("/:id/usages", handler.LocateUsages)
			object.DELETE("/:id/usages", handler.DeleteUsages)
			object.POST("/usages/replace", handler.ReplaceUsages)
			object.POST("/zip-url", handler.ZipURL)
		}

		trash := api.Group("/trash")
		trash.Use(handler.UploadTokenMiddleware())
		{
			trash.GET("", handler.ListTrash)
			trash.POST("/purge", handler.PurgeTrash)
		}

		imports := api.Group("/import")
		imports.Use(handler.UploadTokenMiddleware())
		{
			imports.POST("", handler.EnqueueImport)
			imports.GET("", handler.ListImports)
			imports.GET("/:id", handler.GetImport)
			imports.POST("/:id/cancel", handler.CancelImport)
		}
	}

	cdn := r.Group("/cdn")
	{
		cdn.GET("/serve/:bucket/:filename", handler.Serve)
		cdn.GET("/serve-expiring/:token", handler.ServeExpiring)
		cdn.GET("/zip/:ids/:filename", handler.Zip)
		cdn.GET("/crop/:width/:height/:bucket/:filename", handler.Crop)
		cdn.GET("/scale/:width/:height/:bucket/:filename", handler.Scale)
		cdn.GET("/placeholder/:width/:height/:border", handler.Placeholder)
		cdn.GET("/blank-avatar/:width/:height/:sex", handler.BlankAvatar)
	}

	return r
}
