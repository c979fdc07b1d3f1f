package capture

import (
	"context"
	"image"
	"image/draw"
)

// Image is a raw RGBA capture. The owning job releases it once recognition
// has finished or the job was cancelled.
type Image struct {
	Width  int
	Height int
	// Depth is the color depth in bits per pixel
	Depth  int
	Pixels *image.RGBA
}

// FromImage copies any image into a capture Image
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Depth:  32,
		Pixels: rgba,
	}
}

// Empty reports whether there is no pixel data
func (i *Image) Empty() bool {
	return i == nil || i.Pixels == nil || i.Width <= 0 || i.Height <= 0 || len(i.Pixels.Pix) == 0
}

// Release drops the pixel buffer
func (i *Image) Release() {
	if i != nil {
		i.Pixels = nil
	}
}

// Source supplies a raw bitmap for a region
type Source interface {
	Capture(ctx context.Context, region Region) (*Image, error)
}
