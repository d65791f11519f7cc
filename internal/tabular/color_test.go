package tabular

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// paintedImage fills an 8x8 black canvas with n red and m green pixels.
func paintedImage(red, green int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{A: 255})
		}
	}
	i := 0
	for ; i < red; i++ {
		img.Set(i%8, i/8, color.NRGBA{R: 255, A: 255})
	}
	for j := 0; j < green; j++ {
		img.Set((i+j)%8, (i+j)/8, color.NRGBA{G: 255, A: 255})
	}
	return img
}

func fullPolygon() []Point {
	return []Point{{0, 0}, {7, 0}, {7, 7}, {0, 7}}
}

func TestColorSignerSign(t *testing.T) {
	tests := []struct {
		name  string
		red   int
		green int
		want  int
	}{
		{name: "red dominant over threshold", red: 6, green: 0, want: 1},
		{name: "green dominant over threshold", red: 0, green: 6, want: -1},
		{name: "balanced counts are neutral", red: 3, green: 3, want: 0},
		{name: "dominant but under threshold", red: 4, green: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := NewColorSigner(paintedImage(tt.red, tt.green), 5)
			assert.Equal(t, tt.want, signer.Sign(fullPolygon()))
		})
	}
}

func TestColorSignerNilImage(t *testing.T) {
	signer := NewColorSigner(nil, 5)
	assert.Equal(t, 0, signer.Sign(fullPolygon()))
}

func TestColorSignerEmptyPolygon(t *testing.T) {
	signer := NewColorSigner(paintedImage(6, 0), 5)
	assert.Equal(t, 0, signer.Sign(nil))
}

func TestRGBToHSV(t *testing.T) {
	h, s, v := rgbToHSV(1, 0, 0)
	assert.InDelta(t, 0, h, 0.01)
	assert.InDelta(t, 1, s, 0.01)
	assert.InDelta(t, 1, v, 0.01)

	h, _, _ = rgbToHSV(0, 1, 0)
	assert.InDelta(t, 120, h, 0.01)

	h, _, _ = rgbToHSV(0, 0, 1)
	assert.InDelta(t, 240, h, 0.01)
}
