package handler

import (
	"archive/zip"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mediavault/config"
	"mediavault/internal/service"
	"mediavault/internal/storage"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

func serveNotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "not found")
}

// resolveObject maps the URL's bucket slug and storage filename to an
// object row. Hot path for every byte served, so resolved names are cached.
func resolveObject(c *gin.Context) (bucketSlug, filename string, ok bool) {
	bucketSlug = c.Param("bucket")
	filename = c.Param("filename")
	ctx := c.Request.Context()
	if _, hit := utils.GetObjectIDByName(ctx, bucketSlug, filename); hit {
		return bucketSlug, filename, true
	}
	bucket, err := service.GetBucketBySlug(bucketSlug)
	if err != nil {
		serveNotFound(c)
		return "", "", false
	}
	obj, err := service.GetObjectByFilename(bucket.ID, filename)
	if err != nil {
		serveNotFound(c)
		return "", "", false
	}
	_ = utils.SetObjectIDByName(ctx, bucket.Slug, filename, obj.ID, 5*time.Minute)
	return bucket.Slug, filename, true
}

func streamObject(c *gin.Context, bucketSlug, filename string, download bool) {
	localPath, err := storage.Default.ObjectLocalPath(c.Request.Context(), bucketSlug, filename)
	if err != nil {
		serveNotFound(c)
		return
	}
	if download {
		c.FileAttachment(localPath, utils.SanitizeHeaderFilename(filename))
		return
	}
	c.File(localPath)
}

// Serve streams an object's original bytes. ?dl=1 forces a download
// disposition.
func Serve(c *gin.Context) {
	bucketSlug, filename, ok := resolveObject(c)
	if !ok {
		return
	}
	streamObject(c, bucketSlug, filename, c.Query("dl") == "1")
}

// ServeExpiring validates a signed token and serves the object it grants.
// The MinIO driver short-circuits to a backend presigned URL.
func ServeExpiring(c *gin.Context) {
	claims, err := storage.ParseExpiringToken(c.Param("token"))
	if err != nil {
		c.String(http.StatusForbidden, "link expired or invalid")
		return
	}
	if presigned, err := storage.Default.PresignedURL(
		c.Request.Context(),
		claims.Bucket,
		claims.Object,
		utils.SanitizeHeaderFilename(claims.Object),
		config.AppConfig.ExpiringURLDuration,
	); err == nil {
		c.Redirect(http.StatusFound, presigned)
		return
	} else if !errors.Is(err, storage.ErrPresignNotSupported) {
		serveNotFound(c)
		return
	}
	streamObject(c, claims.Bucket, claims.Object, claims.Download)
}

// dimensionsPermitted writes the rejection response for a disallowed
// size and reports whether the request may proceed. Outside production
// the descriptive message is surfaced; production callers see 404.
func dimensionsPermitted(c *gin.Context, width, height int) bool {
	err := service.CheckDimensions(width, height)
	if err == nil {
		return true
	}
	var dimErr *service.DimensionError
	if errors.As(err, &dimErr) {
		c.String(http.StatusBadRequest, err.Error())
		return false
	}
	serveNotFound(c)
	return false
}

// transform materializes a cached crop or scale variant and serves it.
func transform(c *gin.Context, variant string, apply func(image.Image, int, int) image.Image) {
	width, werr := strconv.Atoi(c.Param("width"))
	height, herr := strconv.Atoi(c.Param("height"))
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		serveNotFound(c)
		return
	}
	if !dimensionsPermitted(c, width, height) {
		return
	}
	bucketSlug, filename, ok := resolveObject(c)
	if !ok {
		return
	}

	cachePath := storage.CachePath(bucketSlug, filename, fmt.Sprintf("%s-%dx%d", variant, width, height))
	if _, err := os.Stat(cachePath); err != nil {
		localPath, err := storage.Default.ObjectLocalPath(c.Request.Context(), bucketSlug, filename)
		if err != nil {
			serveNotFound(c)
			return
		}
		img, format, err := service.DecodeImageFile(localPath)
		if err != nil {
			serveNotFound(c)
			return
		}
		out := apply(img, width, height)
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(service.EncodeImage(pw, out, format))
		}()
		if err := storage.WriteCacheFile(cachePath, pr); err != nil {
			serveNotFound(c)
			return
		}
	}
	c.File(cachePath)
}

// Crop serves the object centre-cropped to exactly the requested size.
func Crop(c *gin.Context) {
	transform(c, "crop", func(img image.Image, w, h int) image.Image {
		return service.CropImage(img, w, h)
	})
}

// Scale serves the object scaled to fit within the requested size.
func Scale(c *gin.Context) {
	transform(c, "scale", func(img image.Image, w, h int) image.Image {
		return service.ScaleImage(img, w, h)
	})
}

// Zip streams the named objects as a single archive. The id list is
// hyphen-separated, matching the generated URL scheme.
func Zip(c *gin.Context) {
	parts := strings.Split(c.Param("ids"), "-")
	type entry struct {
		bucket   string
		filename string
		display  string
	}
	var entries []entry
	for _, part := range parts {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			serveNotFound(c)
			return
		}
		obj, err := service.GetObject(c.Request.Context(), id)
		if err != nil {
			serveNotFound(c)
			return
		}
		if obj.BucketID == nil {
			serveNotFound(c)
			return
		}
		bucket, err := service.GetBucketByID(*obj.BucketID)
		if err != nil {
			serveNotFound(c)
			return
		}
		entries = append(entries, entry{
			bucket:   bucket.Slug,
			filename: obj.Filename,
			display:  obj.FilenameDisplay,
		})
	}
	if len(entries) == 0 {
		serveNotFound(c)
		return
	}

	archiveName := utils.SanitizeHeaderFilename(c.Param("filename"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", archiveName))
	zw := zip.NewWriter(c.Writer)
	defer zw.Close()
	seen := make(map[string]int)
	for _, e := range entries {
		base := e.display
		if base == "" {
			base = e.filename
		}
		name := base
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%d-%s", n, base)
		}
		seen[base]++
		localPath, err := storage.Default.ObjectLocalPath(c.Request.Context(), e.bucket, e.filename)
		if err != nil {
			return
		}
		w, err := zw.Create(name)
		if err != nil {
			return
		}
		f, err := os.Open(localPath)
		if err != nil {
			return
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			return
		}
	}
}

// Placeholder serves a generated grey rectangle with an optional border.
func Placeholder(c *gin.Context) {
	width, werr := strconv.Atoi(c.Param("width"))
	height, herr := strconv.Atoi(c.Param("height"))
	border, berr := strconv.Atoi(c.Param("border"))
	if werr != nil || herr != nil || berr != nil || width <= 0 || height <= 0 || border < 0 {
		serveNotFound(c)
		return
	}
	if !dimensionsPermitted(c, width, height) {
		return
	}
	fill := color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
	edge := color.RGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < border || y < border || x >= width-border || y >= height-border {
				img.Set(x, y, edge)
			} else {
				img.Set(x, y, fill)
			}
		}
	}
	c.Header("Content-Type", "image/png")
	_ = png.Encode(c.Writer, img)
}

// BlankAvatar serves a generated default avatar: a light disc on a grey
// field, tinted per variant.
func BlankAvatar(c *gin.Context) {
	width, werr := strconv.Atoi(c.Param("width"))
	height, herr := strconv.Atoi(c.Param("height"))
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		serveNotFound(c)
		return
	}
	if !dimensionsPermitted(c, width, height) {
		return
	}
	var tint color.RGBA
	switch strings.ToLower(c.Param("sex")) {
	case "male":
		tint = color.RGBA{R: 0xB3, G: 0xC7, B: 0xE6, A: 0xFF}
	case "female":
		tint = color.RGBA{R: 0xE6, G: 0xB3, B: 0xC7, A: 0xFF}
	default:
		tint = color.RGBA{R: 0xC7, G: 0xC7, B: 0xC7, A: 0xFF}
	}
	bg := color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cx, cy := width/2, height*2/5
	r := width / 5
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			inHead := dx*dx+dy*dy <= r*r
			inBody := y > height*3/5 && abs(dx) < width*3/10
			if inHead || inBody {
				img.Set(x, y, tint)
			} else {
				img.Set(x, y, bg)
			}
		}
	}
	c.Header("Content-Type", "image/png")
	_ = png.Encode(c.Writer, img)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
