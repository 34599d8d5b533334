// Package imgutil loads and normalizes reference images before they
// are handed to a provider.
package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // keep for decoding pngs
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // keep for decoding webp references
)

const (
	// maxDimension bounds reference image width/height before upload.
	maxDimension = 1920
	jpegQuality  = 90
)

// LoadReference reads a reference image from disk and normalizes it.
func LoadReference(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reference image not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read reference image %s: %w", path, err)
	}
	return Normalize(data)
}

// Normalize checks if an image is larger than 1920x1920 and resizes it
// if necessary. Oversized or webp images are re-encoded as JPEG; small
// png/jpeg inputs pass through untouched.
func Normalize(imgBytes []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	needsResize := width > maxDimension || height > maxDimension
	needsConversion := format == "webp"

	if !needsResize && !needsConversion {
		return imgBytes, nil
	}

	processed := img
	if needsResize {
		processed = resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image to jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
