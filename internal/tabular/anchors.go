package tabular

import "strings"

// Field identifies a semantic column of the holdings table.
type Field string

const (
	FieldSymbol   Field = "symbol"
	FieldQuantity Field = "quantity"
	FieldProfit   Field = "profit"
	FieldPrice    Field = "price"
)

// Anchors maps each detected field to the expected horizontal position of
// its column, learned from header-row keyword matches. A partial or empty
// map is a valid, expected state.
type Anchors map[Field]float64

// Header keyword sets per field. Wording varies between brokerage apps, so
// membership is a substring check, mirroring how column headers are matched
// in daily-report sheets.
var headerKeywords = map[Field][]string{
	FieldSymbol:   {"商品", "股名", "名稱", "代號", "代碼"},
	FieldQuantity: {"股數", "庫存量", "庫存", "持股", "數量"},
	FieldProfit:   {"損益", "盈虧", "報酬", "未實現"},
	FieldPrice:    {"成本", "均價", "付出"},
}

// anchorFields fixes the match order so a token that happens to contain
// keywords for two fields resolves the same way on every call.
var anchorFields = []Field{FieldSymbol, FieldQuantity, FieldProfit, FieldPrice}

// DetectAnchors scans the first scanLimit rows for header keywords and
// records each matching token's center x as the field's anchor. A later
// match overwrites an earlier one, so the last header row wins.
func DetectAnchors(rows []Row, scanLimit int) Anchors {
	anchors := make(Anchors)
	limit := scanLimit
	if limit > len(rows) {
		limit = len(rows)
	}
	for _, row := range rows[:limit] {
		for _, tok := range row.Tokens {
			for _, field := range anchorFields {
				for _, kw := range headerKeywords[field] {
					if strings.Contains(tok.Text, kw) {
						anchors[field] = tok.CenterX
						break
					}
				}
			}
		}
	}
	return anchors
}
