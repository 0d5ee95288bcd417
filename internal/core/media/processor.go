package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Processor normalises uploaded images before they are stored.
type Processor interface {
	// ToPNG decodes data, shrinks it to fit within the configured bounds and
	// returns PNG bytes.
	ToPNG(data []byte) ([]byte, error)
}

// ImageProcessor implements Processor with the imaging library.
type ImageProcessor struct {
	maxWidth  int
	maxHeight int
}

// NewProcessor creates a processor. A zero bound leaves that dimension unconstrained.
func NewProcessor(maxWidth, maxHeight int) *ImageProcessor {
	return &ImageProcessor{maxWidth: maxWidth, maxHeight: maxHeight}
}

// ToPNG decodes JPEG, PNG or WebP input and re-encodes it as PNG.
// Images larger than the bounds are scaled down preserving aspect ratio; smaller
// images are never upscaled.
func (p *ImageProcessor) ToPNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrProcessingFailed, err)
	}
	if format != "jpeg" && format != "png" && format != "webp" {
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedFormat, format)
	}

	img = p.fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: failed to encode PNG: %v", ErrProcessingFailed, err)
	}
	return buf.Bytes(), nil
}

func (p *ImageProcessor) fit(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	maxW, maxH := p.maxWidth, p.maxHeight
	if maxW <= 0 {
		maxW = w
	}
	if maxH <= 0 {
		maxH = h
	}
	if w <= maxW && h <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
