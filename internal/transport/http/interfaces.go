package http

import (
	"context"

	"stockwatch/internal/tabular"
	"stockwatch/pkg/contracts/domain"
)

// TextDetector runs OCR over an image and returns raw annotations.
// Satisfied by *vision.Client.
type TextDetector interface {
	Detect(ctx context.Context, imageBytes []byte) ([]tabular.RawAnnotation, error)
}

// HoldingsStore persists extracted holdings. Satisfied by *store.Store.
type HoldingsStore interface {
	UpsertHoldings(ctx context.Context, records []domain.HoldingRecord) error
	ListHoldings(ctx context.Context) ([]domain.HoldingRecord, error)
}

// WatchStore is the watchlist slice of the store.
type WatchStore interface {
	AddWatch(ctx context.Context, item domain.WatchItem) error
	ListWatch(ctx context.Context) ([]domain.WatchItem, error)
	GetWatch(ctx context.Context, symbol string) (domain.WatchItem, error)
	SetAlertBounds(ctx context.Context, symbol string, high, low float64) error
	SetStatus(ctx context.Context, symbol string, status domain.WatchStatus) error
	RemoveWatch(ctx context.Context, symbol string) error
}

// QuoteSource serves price data. Satisfied by *pricing.Client.
type QuoteSource interface {
	LastPrice(ctx context.Context, symbol string) (domain.Quote, error)
	FullStats(ctx context.Context, symbol string, offset int) (domain.DailyStats, error)
	Invalidate(symbol string)
}

// RefreshBroadcaster notifies connected clients that server-side data
// changed. Satisfied by *websocket.Hub.
type RefreshBroadcaster interface {
	BroadcastRefresh(source string, components []string)
}
