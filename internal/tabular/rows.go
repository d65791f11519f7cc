package tabular

import (
	"math"
	"sort"
)

// Row is a vertically-banded cluster of tokens interpreted as one table
// record. Tokens are ordered left-to-right; rows top-to-bottom.
type Row struct {
	Tokens []Token
	meanY  float64
}

// text returns the row's token texts joined by a single space.
func (r Row) text() string {
	var b []byte
	for i, tok := range r.Tokens {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, tok.Text...)
	}
	return string(b)
}

// ClusterRows groups tokens into rows by vertical proximity. Tokens are
// sorted by center y, then walked with a current-row accumulator: a token
// joins the row while its center y stays within tolerance of the row's
// running mean. A token with no vertical neighbour becomes a singleton row;
// it is only dropped later if it fails symbol detection.
func ClusterRows(tokens []Token, tolerance float64) []Row {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CenterY < sorted[j].CenterY
	})

	var rows []Row
	current := Row{Tokens: []Token{sorted[0]}, meanY: sorted[0].CenterY}
	sumY := sorted[0].CenterY

	for _, tok := range sorted[1:] {
		if math.Abs(tok.CenterY-current.meanY) < tolerance {
			current.Tokens = append(current.Tokens, tok)
			sumY += tok.CenterY
			current.meanY = sumY / float64(len(current.Tokens))
			continue
		}
		rows = append(rows, closeRow(current))
		current = Row{Tokens: []Token{tok}, meanY: tok.CenterY}
		sumY = tok.CenterY
	}
	rows = append(rows, closeRow(current))

	return rows
}

// closeRow freezes a row by re-sorting its tokens left-to-right.
func closeRow(r Row) Row {
	sort.SliceStable(r.Tokens, func(i, j int) bool {
		return r.Tokens[i].CenterX < r.Tokens[j].CenterX
	})
	return r
}
