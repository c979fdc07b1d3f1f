package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertContains checks that s contains substr
func AssertContains(t *testing.T, s, substr string) {
	t.Helper()

	if !strings.Contains(s, substr) {
		t.Errorf("Expected %q to contain %q", s, substr)
	}
}

// TextImage returns a white image with black bars standing in for text.
// Different variants produce different pixels and thus different cache keys.
func TextImage(width, height, variant int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	bars := variant%4 + 1
	barWidth := width / (2*bars + 1)
	for i := 0; i < bars; i++ {
		x := barWidth * (2*i + 1)
		bar := image.Rect(x, height/3, x+barWidth, height*2/3)
		draw.Draw(img, bar, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	// Offset a marker by variant so variants beyond four still differ
	marker := image.Rect(variant%width, 0, variant%width+2, 2)
	draw.Draw(img, marker, image.NewUniform(color.Black), image.Point{}, draw.Src)

	return img
}

// WriteImage saves img as PNG under dir and returns the path
func WriteImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to save image %s: %v", path, err)
	}
	return path
}
