//go:build !cgo

package ocr

import (
	"context"
	"fmt"

	"codeberg.org/snonux/screentrans/internal/preprocess"
)

// TesseractBackend is unavailable in builds without cgo
type TesseractBackend struct {
	TessdataPrefix string
}

// NewTesseractBackend creates a backend that always reports EngineUnavailable
func NewTesseractBackend(tessdataPrefix string) *TesseractBackend {
	return &TesseractBackend{TessdataPrefix: tessdataPrefix}
}

// Name returns the backend name
func (b *TesseractBackend) Name() string {
	return "tesseract"
}

// Available always fails without cgo
func (b *TesseractBackend) Available() error {
	return &Error{Kind: EngineUnavailable, Err: fmt.Errorf("tesseract requires a cgo build")}
}

// Recognize always fails without cgo
func (b *TesseractBackend) Recognize(ctx context.Context, img *preprocess.Image, language string) (Raw, error) {
	return Raw{}, b.Available()
}
