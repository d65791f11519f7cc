package tabular

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Default threshold below which a crop is considered color-neutral.
const defaultColorPixelThreshold = 5

// ColorSigner samples the image region under a token polygon and
// classifies its dominant hue. Brokerage UIs encode the profit sign purely
// by text color (red up, green down in the Taiwan convention), so this is
// the only way to recover it.
type ColorSigner struct {
	img       image.Image
	threshold int
}

// NewColorSigner builds a signer over a decoded image. A nil image yields
// a signer that always reports neutral, which keeps the pipeline usable in
// tests and environments without image decoding.
func NewColorSigner(img image.Image, threshold int) *ColorSigner {
	if threshold <= 0 {
		threshold = defaultColorPixelThreshold
	}
	return &ColorSigner{img: img, threshold: threshold}
}

// Sign returns +1 when red pixels strictly outnumber green ones and exceed
// the pixel-count threshold, -1 in the symmetric green-dominant case, and
// 0 otherwise.
func (s *ColorSigner) Sign(polygon []Point) int {
	if s == nil || s.img == nil || len(polygon) == 0 {
		return 0
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range polygon {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	// 1px margin around the bounding region.
	rect := image.Rect(int(minX)-1, int(minY)-1, int(maxX)+1, int(maxY)+1)
	crop := imaging.Crop(s.img, rect)
	bounds := crop.Bounds()
	if bounds.Empty() {
		return 0
	}

	var red, green int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := crop.At(x, y).RGBA()
			h, sat, v := rgbToHSV(float64(r)/65535, float64(g)/65535, float64(b)/65535)
			if sat < 0.25 || v < 0.2 {
				continue
			}
			switch {
			case h < 20 || h >= 340:
				red++
			case h >= 80 && h < 180:
				green++
			}
		}
	}

	switch {
	case red > green && red > s.threshold:
		return 1
	case green > red && green > s.threshold:
		return -1
	default:
		return 0
	}
}

// rgbToHSV converts normalized RGB to hue (degrees), saturation and value.
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	delta := max - min
	if max > 0 {
		s = delta / max
	}
	if delta == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
