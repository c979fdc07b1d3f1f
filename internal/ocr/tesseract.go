//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"codeberg.org/snonux/screentrans/internal/preprocess"
)

// TesseractBackend recognizes text through the native Tesseract library
type TesseractBackend struct {
	// TessdataPrefix overrides the trained data location when set
	TessdataPrefix string
}

// NewTesseractBackend creates a Tesseract backend
func NewTesseractBackend(tessdataPrefix string) *TesseractBackend {
	return &TesseractBackend{TessdataPrefix: tessdataPrefix}
}

// Name returns the backend name
func (b *TesseractBackend) Name() string {
	return "tesseract"
}

// Available checks that the Tesseract library reports a version
func (b *TesseractBackend) Available() error {
	if v := gosseract.Version(); v == "" {
		return &Error{Kind: EngineUnavailable, Err: fmt.Errorf("tesseract library not found")}
	}
	return nil
}

// Recognize runs Tesseract on the PNG encoding of img. A fresh client is
// created per call; gosseract clients are not safe for concurrent use.
func (b *TesseractBackend) Recognize(ctx context.Context, img *preprocess.Image, language string) (Raw, error) {
	if err := ctx.Err(); err != nil {
		return Raw{}, err
	}

	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		return Raw{}, &Error{Kind: EngineFault, Err: fmt.Errorf("failed to encode image: %w", err)}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if b.TessdataPrefix != "" {
		client.SetTessdataPrefix(b.TessdataPrefix)
	}
	if err := client.SetLanguage(language); err != nil {
		return Raw{}, &Error{Kind: EngineUnavailable, Err: fmt.Errorf("failed to set language %q: %w", language, err)}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Raw{}, &Error{Kind: EngineFault, Err: fmt.Errorf("failed to set image: %w", err)}
	}

	text, err := client.Text()
	if err != nil {
		if isInitError(err) {
			return Raw{}, &Error{Kind: EngineUnavailable, Err: err}
		}
		return Raw{}, &Error{Kind: EngineFault, Err: fmt.Errorf("text extraction failed: %w", err)}
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Raw{}, &Error{Kind: EngineFault, Err: fmt.Errorf("failed to get word confidences: %w", err)}
	}

	var sum float64
	var words int
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		sum += box.Confidence
		words++
	}

	var confidence float64
	if words > 0 {
		// Tesseract reports 0-100
		confidence = sum / float64(words) / 100
	}

	return Raw{Text: text, Confidence: confidence, Language: language}, nil
}

// isInitError recognizes the errors gosseract returns when the engine or
// its trained data cannot be loaded.
func isInitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "failed to initialize") || strings.Contains(msg, "traineddata")
}
