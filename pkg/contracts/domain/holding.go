package domain

import (
	"regexp"
	"time"
)

// UnknownName is reported when no display name could be recovered for a
// holding. Brokerage screenshots frequently truncate the name column, so
// this is an expected value, not an error marker.
const UnknownName = "未知名稱"

// symbolPattern matches Taiwan instrument codes: 4 contiguous digits for
// listed stocks, 6 for warrants and other derivatives.
var symbolPattern = regexp.MustCompile(`^(\d{4}|\d{6})$`)

// HoldingRecord is one reconstructed row of a brokerage holdings table.
// Quantity is always a magnitude; Profit carries the sign recovered from
// the numeral or from text color.
type HoldingRecord struct {
	Symbol   string  `json:"symbol" db:"symbol" validate:"required,numeric"`
	Name     string  `json:"name" db:"name"`
	Quantity int64   `json:"quantity" db:"quantity" validate:"min=0"`
	AvgPrice float64 `json:"avg_price" db:"avg_price"`
	Profit   int64   `json:"profit" db:"profit"`
}

// ValidSymbol reports whether s matches the instrument-code grammar.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// IsWarrant reports whether the record's symbol is a 6-digit derivative code.
func (h HoldingRecord) IsWarrant() bool {
	return len(h.Symbol) == 6
}

// WatchStatus represents the alert state of a watched instrument.
type WatchStatus string

const (
	WatchStatusNormal  WatchStatus = "normal"
	WatchStatusAlerted WatchStatus = "alerted"
	WatchStatusMuted   WatchStatus = "muted"
)

// WatchItem is one monitored instrument with its alert band.
type WatchItem struct {
	Symbol       string      `json:"symbol" db:"symbol" validate:"required"`
	Name         string      `json:"name" db:"name"`
	CurrentPrice float64     `json:"current_price" db:"current_price"`
	HighAlert    float64     `json:"high_alert,omitempty" db:"high_alert"`
	LowAlert     float64     `json:"low_alert,omitempty" db:"low_alert"`
	Status       WatchStatus `json:"status" db:"status"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// HasBounds reports whether at least one alert bound is configured.
func (w WatchItem) HasBounds() bool {
	return w.HighAlert > 0 || w.LowAlert > 0
}
