package service

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"mediavault/model"
)

// ImageInfo is the probed metadata recorded on image objects.
type ImageInfo struct {
	Width       int
	Height      int
	Orientation model.Orientation
	IsAnimated  bool
}

// ProbeImage reads image dimensions, orientation and the animated flag
// from a local file. Returns nil for files that do not decode as images.
func ProbeImage(path, mime string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, nil
	}

	info := &ImageInfo{
		Width:  cfg.Width,
		Height: cfg.Height,
	}
	switch {
	case cfg.Width == cfg.Height:
		info.Orientation = model.OrientationSquare
	case cfg.Width > cfg.Height:
		info.Orientation = model.OrientationLandscape
	default:
		info.Orientation = model.OrientationPortrait
	}

	if format == "gif" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return info, nil
		}
		if g, err := gif.DecodeAll(f); err == nil && len(g.Image) > 1 {
			info.IsAnimated = true
		}
	}
	return info, nil
}

// resample produces a w×h image from src using nearest-neighbour
// sampling. Small and dependency-free; quality is acceptable for thumbs.
func resample(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/h
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/w
			out.Set(x, y, src.At(sx, sy))
		}
	}
	return out
}

// ScaleImage shrinks src so neither dimension exceeds maxW×maxH,
// preserving aspect ratio. Images already inside the box pass through.
func ScaleImage(src image.Image, maxW, maxH int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return src
	}
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return resample(src, outW, outH)
}

// CropImage produces an exactly w×h image: src is scaled to cover the box
// and then centre-cropped.
func CropImage(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scaleW := float64(w) / float64(srcW)
	scaleH := float64(h) / float64(srcH)
	scale := scaleW
	if scaleH > scale {
		scale = scaleH
	}
	coverW := int(float64(srcW) * scale)
	coverH := int(float64(srcH) * scale)
	if coverW < w {
		coverW = w
	}
	if coverH < h {
		coverH = h
	}
	covered := resample(src, coverW, coverH)

	offX := (coverW - w) / 2
	offY := (coverH - h) / 2
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, covered.At(offX+x, offY+y))
		}
	}
	return out
}

// DecodeImageFile decodes a local image file.
func DecodeImageFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// EncodeImage writes img in the named format (as returned by
// image.Decode).
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 85})
	case "gif":
		return gif.Encode(w, img, nil)
	case "png", "":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}
