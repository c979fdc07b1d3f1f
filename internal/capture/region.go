package capture

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinRegionSize is the smallest accepted width and height in pixels
const MinRegionSize = 5

// Region is a screen rectangle given by its origin and size
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// Normalize flips negative sizes so the origin is the top-left corner.
// Selection widgets report drags towards the top-left this way.
func (r Region) Normalize() Region {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// IsZero reports whether the region has no extent at all
func (r Region) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Adjust maps a logical region to physical pixels: normalize, scale by the
// display factor, then shift by the calibration offset.
func (r Region) Adjust(offsetX, offsetY int, scale float64) Region {
	r = r.Normalize()
	if scale > 0 && scale != 1 {
		r.X = int(math.Round(float64(r.X) * scale))
		r.Y = int(math.Round(float64(r.Y) * scale))
		r.Width = int(math.Round(float64(r.Width) * scale))
		r.Height = int(math.Round(float64(r.Height) * scale))
	}
	r.X += offsetX
	r.Y += offsetY
	return r
}

// ParseRegion parses "x,y,width,height". Spaces around numbers are allowed.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("invalid region %q: expected x,y,width,height", s)
	}

	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = n
	}

	return Region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// Request is one user trigger. It is never mutated; a newer request
// supersedes it instead.
type Request struct {
	ID          string
	Seq         uint64
	Region      Region
	RequestedAt time.Time
}

// NewRequest creates a request with a fresh identifier
func NewRequest(seq uint64, region Region) Request {
	return Request{
		ID:          uuid.NewString(),
		Seq:         seq,
		Region:      region,
		RequestedAt: time.Now(),
	}
}
