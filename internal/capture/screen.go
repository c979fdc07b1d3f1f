package capture

import (
	"context"
	"errors"
	"image"

	"github.com/kbinani/screenshot"
)

var errNoDisplays = errors.New("no active displays")

// ScreenSource captures regions of the active displays
type ScreenSource struct {
	offsetX int
	offsetY int
	scale   float64

	// replaced in tests
	bounds func() []image.Rectangle
	grab   func(image.Rectangle) (*image.RGBA, error)
}

// NewScreenSource creates a source for the live screen. The offset and
// scale correct for display scaling and calibration.
func NewScreenSource(offsetX, offsetY int, scale float64) *ScreenSource {
	return &ScreenSource{
		offsetX: offsetX,
		offsetY: offsetY,
		scale:   scale,
		bounds:  displayBounds,
		grab:    screenshot.CaptureRect,
	}
}

func displayBounds() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// Capture grabs the region from the screen
func (s *ScreenSource) Capture(ctx context.Context, region Region) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	adjusted := region.Adjust(s.offsetX, s.offsetY, s.scale)
	if adjusted.Width < MinRegionSize || adjusted.Height < MinRegionSize {
		return nil, &Error{Kind: RegionInvalid, Region: region}
	}

	rect := adjusted.Rect()
	var desktop image.Rectangle
	for _, b := range s.bounds() {
		desktop = desktop.Union(b)
	}
	if desktop.Empty() {
		return nil, &Error{Kind: PermissionDenied, Region: region, Err: errNoDisplays}
	}
	if !rect.In(desktop) {
		return nil, &Error{Kind: RegionInvalid, Region: region}
	}

	img, err := s.grab(rect)
	if err != nil {
		return nil, &Error{Kind: PermissionDenied, Region: region, Err: err}
	}

	return FromImage(img), nil
}
