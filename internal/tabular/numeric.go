package tabular

import (
	"regexp"
	"strconv"
	"strings"
)

// NumericCandidate is a parsed numeric value extracted from a token,
// carrying the source token's x position and color-derived sign for field
// assignment. Candidates are scoped to one row.
type NumericCandidate struct {
	Value     float64
	XPosition float64
	ColorSign int
	Raw       string
}

// IsInteger reports whether the candidate was written without a fraction.
func (c NumericCandidate) IsInteger() bool {
	return !strings.Contains(c.Raw, ".")
}

var numericPattern = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)

// numericBackTolerance admits tokens slightly left of the symbol token so
// trailing digits merged into the symbol's OCR block still count.
const numericBackTolerance = 5.0

// SignFunc classifies the color under a token polygon: +1 red-dominant,
// -1 green-dominant, 0 neutral or unknown.
type SignFunc func(polygon []Point) int

// ExtractNumerics collects every maximal numeric substring from tokens at
// or right of the symbol token, after stripping thousands separators. A
// substring that exactly reproduces the symbol's digit string is discarded
// so the code is never re-captured as a data value. Unparsable substrings
// are skipped; the row continues.
func ExtractNumerics(row Row, symbol string, symbolIdx int, sign SignFunc) []NumericCandidate {
	anchorX := row.Tokens[symbolIdx].CenterX

	var candidates []NumericCandidate
	for _, tok := range row.Tokens {
		if tok.CenterX < anchorX-numericBackTolerance {
			continue
		}
		text := strings.ReplaceAll(tok.Text, ",", "")
		for _, raw := range numericPattern.FindAllString(text, -1) {
			digits := strings.TrimLeft(raw, "+-")
			if digits == symbol {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			colorSign := 0
			if sign != nil {
				colorSign = sign(tok.Polygon)
			}
			candidates = append(candidates, NumericCandidate{
				Value:     value,
				XPosition: tok.CenterX,
				ColorSign: colorSign,
				Raw:       raw,
			})
		}
	}
	return candidates
}
