package tabular

import "strings"

// Point is one vertex of a bounding polygon in pixel coordinates, origin at
// the upper-left corner of the image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawAnnotation is the collaborator contract: one recognized text fragment
// with its bounding polygon, as returned by the text-detection service.
type RawAnnotation struct {
	Text    string  `json:"text"`
	Polygon []Point `json:"polygon"`
}

// Token is a normalized annotation with its derived center point. Tokens are
// created once per extraction and never mutated.
type Token struct {
	Text    string
	CenterX float64
	CenterY float64
	Polygon []Point
}

// NormalizeTokens converts raw annotations into tokens, computing polygon
// centers and discarding fragments whose text is empty after trimming.
func NormalizeTokens(annotations []RawAnnotation) []Token {
	tokens := make([]Token, 0, len(annotations))
	for _, ann := range annotations {
		text := strings.TrimSpace(ann.Text)
		if text == "" || len(ann.Polygon) == 0 {
			continue
		}
		var sumX, sumY float64
		for _, p := range ann.Polygon {
			sumX += p.X
			sumY += p.Y
		}
		n := float64(len(ann.Polygon))
		tokens = append(tokens, Token{
			Text:    text,
			CenterX: sumX / n,
			CenterY: sumY / n,
			Polygon: ann.Polygon,
		})
	}
	return tokens
}
