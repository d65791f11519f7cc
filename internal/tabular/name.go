package tabular

import (
	"strings"
	"unicode"

	"stockwatch/pkg/contracts/domain"
)

// Transaction-type qualifiers brokerage UIs prepend to the instrument name.
// Checked by exact match first, then prefix, longest first.
var nameQualifiers = []string{
	"現股當沖", "融資", "融券", "現股", "零股", "興櫃", "現", "資", "券",
}

// nameForwardTolerance admits tokens slightly right of the symbol token so
// a name merged into the same OCR block is not lost.
const nameForwardTolerance = 5.0

// ExtractName assembles a display name from the tokens at or left of the
// symbol token. The symbol digits are removed, transaction-type qualifiers
// and leading bracket punctuation are stripped, and only fragments that
// still contain ideographic characters survive. An empty result reports
// domain.UnknownName.
func ExtractName(row Row, symbol string, symbolIdx int) string {
	anchorX := row.Tokens[symbolIdx].CenterX

	var parts []string
	for _, tok := range row.Tokens {
		if tok.CenterX > anchorX+nameForwardTolerance {
			continue
		}
		text := strings.ReplaceAll(tok.Text, symbol, "")
		text = stripQualifiers(text)
		text = strings.TrimLeft(text, "[]|()（）【】 ")
		if containsHan(text) {
			parts = append(parts, keepHan(text))
		}
	}
	if len(parts) == 0 {
		return domain.UnknownName
	}
	return strings.Join(parts, "")
}

func stripQualifiers(text string) string {
	for _, q := range nameQualifiers {
		if text == q {
			return ""
		}
	}
	for _, q := range nameQualifiers {
		if strings.HasPrefix(text, q) && len(text) > len(q) {
			return text[len(q):]
		}
	}
	return text
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// keepHan drops everything but ideographs and the connecting hyphen some
// warrant names carry.
func keepHan(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
