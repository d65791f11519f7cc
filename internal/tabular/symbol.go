package tabular

// digitRun is a maximal run of contiguous digits inside one token.
type digitRun struct {
	text     string
	tokenIdx int
}

// LocateSymbol finds the instrument code in a row: a maximal run of exactly
// 4 digits, or exactly 6 digits for warrants. A 6-digit match wins over any
// 4-digit one because a warrant code cannot be a truncation of a stock
// code, while the reverse confusion does happen. The returned index is the
// token containing the match; ok is false when the row has no code.
func LocateSymbol(row Row) (symbol string, tokenIdx int, ok bool) {
	var runs []digitRun
	for i, tok := range row.Tokens {
		start := -1
		text := tok.Text
		for j := 0; j <= len(text); j++ {
			if j < len(text) && text[j] >= '0' && text[j] <= '9' {
				if start < 0 {
					start = j
				}
				continue
			}
			if start >= 0 {
				runs = append(runs, digitRun{text: text[start:j], tokenIdx: i})
				start = -1
			}
		}
	}

	for _, r := range runs {
		if len(r.text) == 6 {
			return r.text, r.tokenIdx, true
		}
	}
	for _, r := range runs {
		if len(r.text) == 4 {
			return r.text, r.tokenIdx, true
		}
	}
	return "", 0, false
}
