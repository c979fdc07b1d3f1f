//go:build cgo

package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"codeberg.org/snonux/screentrans/internal/preprocess"
)

func TestTesseractBackend_Blank(t *testing.T) {
	backend := NewTesseractBackend("")
	if err := backend.Available(); err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}

	g := image.NewGray(image.Rect(0, 0, 80, 40))
	draw.Draw(g, g.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	img := &preprocess.Image{Gray: g, Fingerprint: preprocess.Fingerprint(g)}

	raw, err := backend.Recognize(context.Background(), img, "eng")
	if err != nil {
		t.Skipf("Tesseract could not run: %v", err)
	}
	if len(CleanLines(raw.Text)) != 0 {
		t.Errorf("Expected no text on a blank image, got %q", raw.Text)
	}
}
