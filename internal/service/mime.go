package service

import (
	"path"
	"strings"
)

// ContentTypeForName returns the mime type implied by a filename's
// extension.
func ContentTypeForName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".tar":
		return "application/x-tar"
	case ".gz":
		return "application/gzip"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// mimeMajor returns the part before the slash, e.g. "image".
func mimeMajor(mime string) string {
	if i := strings.Index(mime, "/"); i > 0 {
		return mime[:i]
	}
	return mime
}

// isImageMime reports whether the mime type is a raster image this module
// can probe and transform.
func isImageMime(mime string) bool {
	switch strings.SplitN(mime, ";", 2)[0] {
	case "image/jpeg", "image/png", "image/gif":
		return true
	}
	return false
}
