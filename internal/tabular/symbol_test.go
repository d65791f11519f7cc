package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocateSymbol(t *testing.T) {
	tests := []struct {
		name       string
		tokens     []Token
		wantSymbol string
		wantIdx    int
		wantOK     bool
	}{
		{
			name:       "plain four digit code",
			tokens:     []Token{tok("台積電", 10, 0), tok("2330", 60, 0), tok("100", 120, 0)},
			wantSymbol: "2330",
			wantIdx:    1,
			wantOK:     true,
		},
		{
			name:       "six digit warrant beats four digit decoy",
			tokens:     []Token{tok("2330", 10, 0), tok("056303", 60, 0)},
			wantSymbol: "056303",
			wantIdx:    1,
			wantOK:     true,
		},
		{
			name:       "code merged into a larger token",
			tokens:     []Token{tok("台積電2330", 10, 0)},
			wantSymbol: "2330",
			wantIdx:    0,
			wantOK:     true,
		},
		{
			name:   "five digit run matches nothing",
			tokens: []Token{tok("12345", 10, 0)},
			wantOK: false,
		},
		{
			name:   "row with no digits",
			tokens: []Token{tok("現股", 10, 0), tok("庫存", 60, 0)},
			wantOK: false,
		},
		{
			name:       "first four digit run wins among equals",
			tokens:     []Token{tok("2330", 10, 0), tok("2317", 60, 0)},
			wantSymbol: "2330",
			wantIdx:    0,
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, idx, ok := LocateSymbol(Row{Tokens: tt.tokens})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantSymbol, symbol)
				assert.Equal(t, tt.wantIdx, idx)
			}
		})
	}
}
