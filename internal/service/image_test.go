package service

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mediavault/model"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 0xFF})
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbeImageOrientation(t *testing.T) {
	cases := []struct {
		w, h int
		want model.Orientation
	}{
		{100, 100, model.OrientationSquare},
		{200, 100, model.OrientationLandscape},
		{100, 200, model.OrientationPortrait},
	}
	for _, tc := range cases {
		path := writeTestPNG(t, tc.w, tc.h)
		info, err := ProbeImage(path, "image/png")
		if err != nil {
			t.Fatal(err)
		}
		if info == nil {
			t.Fatalf("%dx%d: probe returned nil", tc.w, tc.h)
		}
		if info.Width != tc.w || info.Height != tc.h || info.Orientation != tc.want {
			t.Errorf("%dx%d: got %+v", tc.w, tc.h, info)
		}
		if info.IsAnimated {
			t.Errorf("%dx%d: PNG cannot be animated", tc.w, tc.h)
		}
	}
}

func TestProbeImageNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := ProbeImage(path, "text/plain")
	if err != nil || info != nil {
		t.Fatalf("info = %v, err = %v", info, err)
	}
}

func TestScaleImageFitsBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := ScaleImage(src, 100, 100)
	b := out.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("scaled to %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestScaleImageNoUpscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 50))
	out := ScaleImage(src, 100, 100)
	b := out.Bounds()
	if b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("small image should pass through, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCropImageExactSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := CropImage(src, 100, 100)
	b := out.Bounds()
	if b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("cropped to %dx%d, want 100x100", b.Dx(), b.Dy())
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	path := writeTestPNG(t, 10, 10)
	img, format, err := DecodeImageFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Fatalf("format = %q", format)
	}
	out, err := os.Create(filepath.Join(t.TempDir(), "out.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := EncodeImage(out, img, format); err != nil {
		t.Fatal(err)
	}
}
