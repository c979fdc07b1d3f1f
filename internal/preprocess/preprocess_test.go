package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"codeberg.org/snonux/screentrans/internal/capture"
)

// textImage draws a filled "text" bar onto a plain background
func textImage(w, h int, bg, fg color.Color) *capture.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	bar := image.Rect(w/5, h/3, w*4/5, h*2/3)
	draw.Draw(img, bar, image.NewUniform(fg), image.Point{}, draw.Src)
	return capture.FromImage(img)
}

func TestProcessDeterministic(t *testing.T) {
	p := New(DefaultOptions())
	raw := textImage(120, 30, color.White, color.Black)

	first, err := p.Process(raw)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	second, err := p.Process(raw)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !bytes.Equal(first.Gray.Pix, second.Gray.Pix) {
		t.Error("Expected byte-identical output for identical input")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("Expected equal fingerprints, got %s and %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestProcessDifferentInputsDiffer(t *testing.T) {
	p := New(DefaultOptions())

	a, err := p.Process(textImage(120, 30, color.White, color.Black))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	b, err := p.Process(textImage(120, 60, color.White, color.Black))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if a.Fingerprint == b.Fingerprint {
		t.Error("Expected different fingerprints for different captures")
	}
}

func TestProcessEmptyInput(t *testing.T) {
	p := New(DefaultOptions())

	tests := []struct {
		name string
		raw  *capture.Image
	}{
		{"nil", nil},
		{"no pixels", &capture.Image{Width: 10, Height: 10}},
		{"zero size", capture.FromImage(image.NewRGBA(image.Rect(0, 0, 0, 0)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Process(tt.raw); !errors.Is(err, ErrEmptyImage) {
				t.Errorf("Expected ErrEmptyImage, got %v", err)
			}
		})
	}
}

func TestProcessBinarizes(t *testing.T) {
	p := New(DefaultOptions())
	out, err := p.Process(textImage(120, 60, color.RGBA{200, 200, 200, 255}, color.RGBA{40, 40, 40, 255}))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	for i, v := range out.Gray.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("Expected binary output, found %d at %d", v, i)
		}
	}
	if got := out.Gray.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("Expected light background to become white, got %d", got)
	}
	if got := out.Gray.GrayAt(60, 30).Y; got != 0 {
		t.Errorf("Expected dark text to become black, got %d", got)
	}
}

func TestProcessAutoInvert(t *testing.T) {
	dark := textImage(120, 60, color.Black, color.White)

	inverted, err := New(DefaultOptions()).Process(dark)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := inverted.Gray.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("Expected dark background inverted to white, got %d", got)
	}
	if got := inverted.Gray.GrayAt(60, 30).Y; got != 0 {
		t.Errorf("Expected light text inverted to black, got %d", got)
	}

	opts := DefaultOptions()
	opts.AutoInvert = false
	plain, err := New(opts).Process(dark)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := plain.Gray.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Expected background kept dark without auto-invert, got %d", got)
	}
}

func TestProcessUpscalesSmallText(t *testing.T) {
	opts := DefaultOptions()
	opts.UpscaleBelow = 40

	small, err := New(opts).Process(textImage(50, 20, color.White, color.Black))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if small.Width() != 100 || small.Height() != 40 {
		t.Errorf("Expected 100x40 after upscale, got %dx%d", small.Width(), small.Height())
	}

	large, err := New(opts).Process(textImage(50, 60, color.White, color.Black))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if large.Width() != 50 || large.Height() != 60 {
		t.Errorf("Expected size kept at 50x60, got %dx%d", large.Width(), large.Height())
	}
}

func TestProcessWithoutBinarize(t *testing.T) {
	opts := Options{}
	raw := textImage(20, 20, color.RGBA{100, 100, 100, 255}, color.RGBA{100, 100, 100, 255})

	out, err := New(opts).Process(raw)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := out.Gray.GrayAt(5, 5).Y; got != 100 {
		t.Errorf("Expected plain grayscale value 100, got %d", got)
	}
}

func TestFingerprintIgnoresStride(t *testing.T) {
	big := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range big.Pix {
		big.Pix[i] = uint8(i)
	}
	sub := big.SubImage(image.Rect(2, 2, 6, 6)).(*image.Gray)

	compact := image.NewGray(image.Rect(0, 0, 4, 4))
	draw.Draw(compact, compact.Bounds(), sub, sub.Bounds().Min, draw.Src)

	if Fingerprint(sub) != Fingerprint(compact) {
		t.Error("Expected sub-image and compact copy to share a fingerprint")
	}
}

func TestEncodePNG(t *testing.T) {
	out, err := New(DefaultOptions()).Process(textImage(60, 60, color.White, color.Black))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	var buf bytes.Buffer
	if err := out.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}

	out.Release()
	if err := out.EncodePNG(&buf); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage after release, got %v", err)
	}
	if out.Fingerprint == "" {
		t.Error("Fingerprint should survive release")
	}
}
