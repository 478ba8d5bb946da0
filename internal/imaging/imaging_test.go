package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessCoverDownscales(t *testing.T) {
	data := encodePNG(t, 1600, 2400)

	cover, err := ProcessCover(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessCover: %v", err)
	}
	if cover.MIME != "image/jpeg" {
		t.Errorf("expected JPEG output, got %q", cover.MIME)
	}

	img, err := jpeg.Decode(bytes.NewReader(cover.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dy() != MaxDimension {
		t.Errorf("expected height %d, got %d", MaxDimension, bounds.Dy())
	}
	if bounds.Dx() > MaxDimension {
		t.Errorf("expected width within %d, got %d", MaxDimension, bounds.Dx())
	}
}

func TestProcessCoverKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 300, 450)

	cover, err := ProcessCover(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessCover: %v", err)
	}

	img, _ := jpeg.Decode(bytes.NewReader(cover.Data))
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 450 {
		t.Errorf("expected dimensions preserved, got %v", img.Bounds())
	}
}

func TestProcessCoverRejectsNonImages(t *testing.T) {
	if _, err := ProcessCover(bytes.NewReader([]byte("not an image at all"))); err == nil {
		t.Fatal("expected rejection of non-image data")
	}
}
