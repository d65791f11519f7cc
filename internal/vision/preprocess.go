package vision

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// EnhanceForOCR sharpens a photographed screen before text detection:
// grayscale for contrast, contrast and brightness boosts, then a sharpen
// pass. The returned image is a new buffer; the input is untouched.
func EnhanceForOCR(src image.Image) image.Image {
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	return img
}

// DecodeAndEnhance decodes uploaded image bytes and returns both the
// original decoded image (needed for color-sign sampling) and a PNG
// encoding of the enhanced version to submit for detection.
func DecodeAndEnhance(data []byte) (original image.Image, enhanced []byte, err error) {
	original, err = imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("vision: decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, EnhanceForOCR(original), imaging.PNG); err != nil {
		return nil, nil, fmt.Errorf("vision: encode enhanced image: %w", err)
	}
	return original, buf.Bytes(), nil
}
