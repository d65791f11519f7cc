package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockwatch/pkg/contracts/domain"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []Token
		symbol    string
		symbolIdx int
		want      string
	}{
		{
			name:      "name token left of the symbol",
			tokens:    []Token{tok("台積電", 10, 0), tok("2330", 80, 0), tok("100", 200, 0)},
			symbol:    "2330",
			symbolIdx: 1,
			want:      "台積電",
		},
		{
			name:      "name merged into the symbol token",
			tokens:    []Token{tok("台積電2330", 40, 0), tok("100", 200, 0)},
			symbol:    "2330",
			symbolIdx: 0,
			want:      "台積電",
		},
		{
			name:      "margin qualifier stripped",
			tokens:    []Token{tok("融資", 10, 0), tok("鴻海", 50, 0), tok("2317", 120, 0)},
			symbol:    "2317",
			symbolIdx: 2,
			want:      "鴻海",
		},
		{
			name:      "qualifier prefix stripped from merged token",
			tokens:    []Token{tok("現股台積電", 10, 0), tok("2330", 120, 0)},
			symbol:    "2330",
			symbolIdx: 1,
			want:      "台積電",
		},
		{
			name:      "tokens right of the symbol ignored",
			tokens:    []Token{tok("2330", 10, 0), tok("多頭參考", 300, 0)},
			symbol:    "2330",
			symbolIdx: 0,
			want:      domain.UnknownName,
		},
		{
			name:      "nothing ideographic left",
			tokens:    []Token{tok("2330", 10, 0), tok("100", 200, 0)},
			symbol:    "2330",
			symbolIdx: 0,
			want:      domain.UnknownName,
		},
		{
			name:      "leading pipe punctuation removed",
			tokens:    []Token{tok("|台積電", 10, 0), tok("2330", 80, 0)},
			symbol:    "2330",
			symbolIdx: 1,
			want:      "台積電",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractName(Row{Tokens: tt.tokens}, tt.symbol, tt.symbolIdx)
			assert.Equal(t, tt.want, got)
		})
	}
}
