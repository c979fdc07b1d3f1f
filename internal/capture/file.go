package capture

import (
	"context"

	"github.com/disintegration/imaging"
)

// FileSource serves regions of an image file, reloading it on every capture
// so an externally refreshed screenshot is picked up.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Capture crops region out of the file. A zero region selects the whole image.
func (s *FileSource) Capture(ctx context.Context, region Region) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(s.path)
	if err != nil {
		return nil, &Error{Kind: SourceUnavailable, Region: region, Err: err}
	}

	bounds := img.Bounds()
	if region.IsZero() {
		return FromImage(img), nil
	}

	region = region.Normalize()
	if region.Width < MinRegionSize || region.Height < MinRegionSize {
		return nil, &Error{Kind: RegionInvalid, Region: region}
	}
	rect := region.Rect().Add(bounds.Min)
	if !rect.In(bounds) {
		return nil, &Error{Kind: RegionInvalid, Region: region}
	}

	return FromImage(imaging.Crop(img, rect)), nil
}

var _ Source = (*FileSource)(nil)
