package preprocess

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"image"
	"image/draw"
	"io"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"codeberg.org/snonux/screentrans/internal/capture"
)

// ErrEmptyImage is returned for nil, zero-sized or bufferless input
var ErrEmptyImage = errors.New("preprocess: empty image")

// Options controls the enhancement steps
type Options struct {
	// Contrast is the imaging contrast percentage in [-100,100]
	Contrast float64
	// SharpenSigma of 0 disables sharpening
	SharpenSigma float64
	// Binarize applies an Otsu threshold as the last step
	Binarize bool
	// AutoInvert turns light-on-dark text into dark-on-light
	AutoInvert bool
	// UpscaleBelow doubles images shorter than this many pixels; 0 disables
	UpscaleBelow int
}

// DefaultOptions returns the settings used for typical UI text
func DefaultOptions() Options {
	return Options{
		Contrast:     50,
		SharpenSigma: 1.0,
		Binarize:     true,
		AutoInvert:   true,
		UpscaleBelow: 40,
	}
}

// Image is the processed 8-bit grayscale image plus its content fingerprint
type Image struct {
	Gray        *image.Gray
	Fingerprint string
}

// Width returns the image width in pixels
func (i *Image) Width() int {
	if i == nil || i.Gray == nil {
		return 0
	}
	return i.Gray.Bounds().Dx()
}

// Height returns the image height in pixels
func (i *Image) Height() int {
	if i == nil || i.Gray == nil {
		return 0
	}
	return i.Gray.Bounds().Dy()
}

// Release drops the pixel buffer but keeps the fingerprint
func (i *Image) Release() {
	if i != nil {
		i.Gray = nil
	}
}

// EncodePNG writes the image as PNG, the format OCR engines accept
func (i *Image) EncodePNG(w io.Writer) error {
	if i == nil || i.Gray == nil {
		return ErrEmptyImage
	}
	return imaging.Encode(w, i.Gray, imaging.PNG)
}

// Preprocessor applies the configured enhancement chain
type Preprocessor struct {
	opts Options
}

// New creates a preprocessor
func New(opts Options) *Preprocessor {
	return &Preprocessor{opts: opts}
}

// Process runs grayscale, optional inversion, upscaling, contrast,
// sharpening and optional binarization, in that order.
func (p *Preprocessor) Process(raw *capture.Image) (*Image, error) {
	if raw.Empty() {
		return nil, ErrEmptyImage
	}

	img := imaging.Grayscale(raw.Pixels)

	if p.opts.AutoInvert && isDarkBackground(img) {
		img = imaging.Invert(img)
	}

	if b := img.Bounds(); p.opts.UpscaleBelow > 0 && b.Dy() < p.opts.UpscaleBelow {
		img = imaging.Resize(img, b.Dx()*2, b.Dy()*2, imaging.Lanczos)
	}

	if p.opts.Contrast != 0 {
		img = imaging.AdjustContrast(img, p.opts.Contrast)
	}

	if p.opts.SharpenSigma > 0 {
		img = imaging.Sharpen(img, p.opts.SharpenSigma)
	}

	var gray *image.Gray
	if p.opts.Binarize {
		gray = segment.Threshold(img, otsuLevel(img))
	} else {
		gray = image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	return &Image{Gray: gray, Fingerprint: Fingerprint(gray)}, nil
}

// Fingerprint hashes the dimensions and pixel rows of a gray image.
// Stride padding is excluded so equal pixels always hash equally.
func Fingerprint(g *image.Gray) string {
	h := sha256.New()
	b := g.Bounds()

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(dims[4:8], uint32(b.Dy()))
	h.Write(dims[:])

	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := g.PixOffset(b.Min.X, y)
		h.Write(g.Pix[start : start+b.Dx()])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// isDarkBackground samples the perceptual lightness of a grayscale image.
// Mostly dark pixels mean light text on a dark theme.
func isDarkBackground(img *image.NRGBA) bool {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	step := total / 4096
	if step < 1 {
		step = 1
	}

	var sum float64
	var n int
	for i := 0; i < total; i += step {
		x := b.Min.X + i%b.Dx()
		y := b.Min.Y + i/b.Dx()
		off := img.PixOffset(x, y)
		c := colorful.Color{
			R: float64(img.Pix[off]) / 255,
			G: float64(img.Pix[off+1]) / 255,
			B: float64(img.Pix[off+2]) / 255,
		}
		l, _, _ := c.Lab()
		sum += l
		n++
	}

	return n > 0 && sum/float64(n) < 0.5
}

// otsuLevel picks the threshold maximizing between-class variance of the
// gray histogram. The returned level is the first value counted as white.
func otsuLevel(img *image.NRGBA) uint8 {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[img.Pix[img.PixOffset(x, y)]]++
		}
	}

	total := b.Dx() * b.Dy()
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumBg, best float64
	var weightBg int
	threshold := 0
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			threshold = t
		}
	}

	if threshold >= 255 {
		return 255
	}
	return uint8(threshold + 1)
}
