package handler

import (
	"context"
	"errors"
	"net/http"

	"mediavault/internal/dto"
	"mediavault/internal/service"
	"mediavault/internal/storage"
	"mediavault/model"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

func tokenActor(c *gin.Context) (*model.UploadToken, string) {
	val, ok := c.Get("upload_token")
	if !ok {
		return nil, ""
	}
	token := val.(*model.UploadToken)
	return token, token.TokenID
}

// uploadBucket resolves the target bucket from the form field or, for
// clients that cannot set form fields, the X-Cdn-Bucket header.
func uploadBucket(c *gin.Context) string {
	if bucket := c.PostForm("bucket"); bucket != "" {
		return bucket
	}
	return c.GetHeader(HeaderBucket)
}

// CreateObject stores a multipart file upload.
func CreateObject(c *gin.Context) {
	token, actor := tokenActor(c)
	bucket := uploadBucket(c)
	if bucket == "" {
		utils.FailStatus(c, http.StatusBadRequest, errors.New("no bucket specified"))
		return
	}
	if token != nil && !service.TokenAllowsBucket(token, bucket) {
		utils.FailStatus(c, http.StatusForbidden, errors.New("token may not write to this bucket"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer file.Close()

	obj, err := service.ObjectCreate(c.Request.Context(), service.CreateInput{
		Reader:      file,
		Size:        fileHeader.Size,
		DisplayName: fileHeader.Filename,
		CreatedBy:   actor,
	}, bucket)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, obj)
}

// CreateObjectFromURL stores an object fetched synchronously from a URL.
// For large or slow sources, enqueue an import instead.
func CreateObjectFromURL(c *gin.Context) {
	var req dto.ObjectFromURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	token, actor := tokenActor(c)
	if token != nil && !service.TokenAllowsBucket(token, req.Bucket) {
		utils.FailStatus(c, http.StatusForbidden, errors.New("token may not write to this bucket"))
		return
	}
	obj, err := service.ObjectCreate(c.Request.Context(), service.CreateInput{
		RemoteURL:   req.URL,
		DisplayName: req.Name,
		CreatedBy:   actor,
	}, req.Bucket)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, obj)
}

// GetObject returns a live object's metadata.
func GetObject(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	obj, err := service.GetObject(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, obj)
}

// ListObjects returns a page of a bucket's live objects.
func ListObjects(c *gin.Context) {
	bucket, err := service.GetBucketBySlug(c.Param("slug"))
	if err != nil {
		respondErr(c, err)
		return
	}
	objects, total, err := service.ListObjects(bucket.ID, queryInt(c, "page", 1), queryInt(c, "page_size", 50))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.ObjectListResponse{Objects: objects, Total: total})
}

// DeleteObject moves an object to the trash.
func DeleteObject(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	_, actor := tokenActor(c)
	if err := service.ObjectDelete(c.Request.Context(), id, actor); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

// RestoreObject moves a trashed object back to the live table.
func RestoreObject(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := service.ObjectRestore(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

// ListTrash returns a page of trashed objects.
func ListTrash(c *gin.Context) {
	items, total, err := service.ListTrash(queryInt(c, "page", 1), queryInt(c, "page_size", 50))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.TrashListResponse{Objects: items, Total: total})
}

// PurgeTrash permanently deletes trashed objects by id.
func PurgeTrash(c *gin.Context) {
	var req dto.PurgeTrashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	if err := service.PurgeTrash(c.Request.Context(), req.ObjectIDs); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

// ObjectURLs returns the serve, download and expiring URLs for an object.
func ObjectURLs(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	serve, err := service.URLServe(ctx, id, false)
	if err != nil {
		respondErr(c, err)
		return
	}
	download, err := service.URLServe(ctx, id, true)
	if err != nil {
		respondErr(c, err)
		return
	}
	resp := dto.ObjectURLsResponse{Serve: secureURL(c, serve), Download: secureURL(c, download)}
	if expiring, err := service.URLExpiring(ctx, id, false); err == nil {
		resp.Expiring = secureURL(c, expiring)
	}
	utils.Success(c, resp)
}

// requestIsSecure reports whether the caller reached us over HTTPS,
// directly or via a terminating proxy.
func requestIsSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}

// secureURL rewrites a generated URL onto the secure origin when the
// caller itself arrived over HTTPS.
func secureURL(c *gin.Context, raw string) string {
	if requestIsSecure(c) {
		return storage.MakeSecure(raw)
	}
	return raw
}

// ObjectCropURL returns a crop URL for an image object.
func ObjectCropURL(c *gin.Context) {
	objectTransformURL(c, service.URLCrop)
}

// ObjectScaleURL returns a scale URL for an image object.
func ObjectScaleURL(c *gin.Context) {
	objectTransformURL(c, service.URLScale)
}

func objectTransformURL(c *gin.Context, build func(ctx context.Context, id uint64, w, h int) (string, error)) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	width := queryInt(c, "width", 0)
	height := queryInt(c, "height", 0)
	if width <= 0 || height <= 0 {
		utils.FailStatus(c, http.StatusBadRequest, errors.New("width and height are required"))
		return
	}
	url, err := build(c.Request.Context(), id, width, height)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.URLResponse{URL: secureURL(c, url)})
}

// PlaceholderURL returns a URL for a generated placeholder image.
func PlaceholderURL(c *gin.Context) {
	width := queryInt(c, "width", 0)
	height := queryInt(c, "height", 0)
	border := queryInt(c, "border", 0)
	if width <= 0 || height <= 0 {
		utils.FailStatus(c, http.StatusBadRequest, errors.New("width and height are required"))
		return
	}
	url, err := service.URLPlaceholder(width, height, border)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.URLResponse{URL: secureURL(c, url)})
}

// BlankAvatarURL returns a URL for the default avatar image.
func BlankAvatarURL(c *gin.Context) {
	width := queryInt(c, "width", 0)
	height := queryInt(c, "height", 0)
	if width <= 0 || height <= 0 {
		utils.FailStatus(c, http.StatusBadRequest, errors.New("width and height are required"))
		return
	}
	url, err := service.URLBlankAvatar(width, height, c.Query("sex"))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.URLResponse{URL: secureURL(c, url)})
}

// ZipURL returns a URL serving the named objects as one archive.
func ZipURL(c *gin.Context) {
	var req dto.ZipURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, err)
		return
	}
	url, err := service.URLServeZipped(c.Request.Context(), req.ObjectIDs, req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, dto.URLResponse{URL: secureURL(c, url)})
}
