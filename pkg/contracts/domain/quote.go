package domain

import "time"

// Quote is the latest known price for an instrument.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Close     float64   `json:"close"`
	FetchedAt time.Time `json:"fetched_at"`
}

// DailyStats summarises one trading day for an instrument, including the
// 20-day moving average when enough history was available.
type DailyStats struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
	MA20   float64 `json:"ma20,omitempty"`
}

// ChangePercent returns the close-to-open move as a percentage.
func (d DailyStats) ChangePercent() float64 {
	if d.Open == 0 {
		return 0
	}
	return (d.Close - d.Open) / d.Open * 100
}

// AboveMA20 reports whether the close sits on or above the 20-day average.
// Returns false when the average could not be computed.
func (d DailyStats) AboveMA20() bool {
	return d.MA20 > 0 && d.Close >= d.MA20
}

// AlertKind distinguishes which bound an alert crossed.
type AlertKind string

const (
	AlertKindHigh AlertKind = "high"
	AlertKindLow  AlertKind = "low"
)

// AlertEvent is pushed to WebSocket subscribers when a watched instrument
// crosses one of its bounds.
type AlertEvent struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Kind      AlertKind `json:"kind"`
	Price     float64   `json:"price"`
	Bound     float64   `json:"bound"`
	Timestamp time.Time `json:"timestamp"`
}
