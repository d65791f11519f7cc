// Package monitor polls watched instruments during Taiwan trading hours
// and raises alerts when prices cross their configured bounds.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockwatch/internal/config"
	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/infrastructure"
	"stockwatch/pkg/contracts/domain"
)

// PriceSource supplies the latest close for a symbol.
type PriceSource interface {
	LastPrice(ctx context.Context, symbol string) (domain.Quote, error)
}

// WatchStore is the slice of the persistence layer the monitor needs.
type WatchStore interface {
	ListWatch(ctx context.Context) ([]domain.WatchItem, error)
	UpdateQuote(ctx context.Context, symbol string, price float64, status domain.WatchStatus) error
	SetStatus(ctx context.Context, symbol string, status domain.WatchStatus) error
}

// Broadcaster pushes alert events to connected subscribers.
type Broadcaster interface {
	BroadcastAlert(event domain.AlertEvent)
}

// Monitor drives the polling loop.
type Monitor struct {
	store        WatchStore
	prices       PriceSource
	broadcaster  Broadcaster
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	interval     time.Duration
	allowOutside bool
	location     *time.Location
	now          func() time.Time
}

// New creates a monitor. The broadcaster may be nil when no live
// subscribers exist, such as in the CLI.
func New(store WatchStore, prices PriceSource, broadcaster Broadcaster,
	metrics *infrastructure.BusinessMetrics, cfg config.MonitorConfig, logger *slog.Logger) (*Monitor, error) {

	loc, err := time.LoadLocation(config.MarketTimezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}

	return &Monitor{
		store:        store,
		prices:       prices,
		broadcaster:  broadcaster,
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "monitor")),
		interval:     cfg.Interval,
		allowOutside: cfg.AllowOutside,
		location:     loc,
		now:          time.Now,
	}, nil
}

// Run polls until the context is cancelled. One check runs immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "monitor started",
		slog.Duration("interval", m.interval),
		slog.Bool("allow_outside", m.allowOutside))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		switch err := m.CheckOnce(ctx); {
		case err == nil:
		case errors.Is(err, apierrors.ErrMarketClosed):
			m.logger.DebugContext(ctx, "market closed, skipping poll")
		default:
			m.logger.ErrorContext(ctx, "poll cycle failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "monitor stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// CheckOnce runs a single poll cycle over the watchlist. Outside market
// hours it returns ErrMarketClosed without touching the provider, unless
// configured otherwise.
func (m *Monitor) CheckOnce(ctx context.Context) error {
	if !m.MarketOpen() {
		return fmt.Errorf("taiwan exchange outside trading window: %w", apierrors.ErrMarketClosed)
	}

	if m.metrics != nil {
		m.metrics.PollCyclesTotal.Add(ctx, 1)
	}

	items, err := m.store.ListWatch(ctx)
	if err != nil {
		return fmt.Errorf("list watchlist: %w", err)
	}
	if len(items) == 0 {
		m.logger.DebugContext(ctx, "watchlist empty")
		return nil
	}

	for _, item := range items {
		if err := m.checkItem(ctx, item); err != nil {
			// One bad symbol must not starve the rest of the list.
			m.logger.WarnContext(ctx, "watch check failed",
				slog.String("symbol", item.Symbol),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (m *Monitor) checkItem(ctx context.Context, item domain.WatchItem) error {
	quote, err := m.prices.LastPrice(ctx, item.Symbol)
	if err != nil {
		return fmt.Errorf("fetch price: %w", err)
	}
	price := quote.Close

	kind, triggered := evaluate(item, price)

	status := domain.WatchStatusNormal
	switch {
	case triggered && item.Status == domain.WatchStatusMuted:
		// Stay muted while the price remains out of band.
		status = domain.WatchStatusMuted
	case triggered:
		status = domain.WatchStatusAlerted
	}

	if triggered && status == domain.WatchStatusAlerted {
		m.fireAlert(ctx, item, kind, price)
	}
	if !triggered && item.Status == domain.WatchStatusMuted {
		// Price back in band: unmute so the next crossing alerts again.
		m.logger.InfoContext(ctx, "price back in band, unmuting",
			slog.String("symbol", item.Symbol))
	}

	return m.store.UpdateQuote(ctx, item.Symbol, price, status)
}

func (m *Monitor) fireAlert(ctx context.Context, item domain.WatchItem, kind domain.AlertKind, price float64) {
	bound := item.HighAlert
	if kind == domain.AlertKindLow {
		bound = item.LowAlert
	}

	event := domain.AlertEvent{
		Symbol:    item.Symbol,
		Name:      item.Name,
		Kind:      kind,
		Price:     price,
		Bound:     bound,
		Timestamp: m.now(),
	}

	m.logger.InfoContext(ctx, "alert fired",
		slog.String("symbol", item.Symbol),
		slog.String("kind", string(kind)),
		slog.Float64("price", price),
		slog.Float64("bound", bound))

	infrastructure.RecordAlertFired(ctx, m.metrics, item.Symbol, string(kind))

	if m.broadcaster != nil {
		m.broadcaster.BroadcastAlert(event)
	}
}

// evaluate reports whether a price sits outside the item's alert band.
// The high bound wins when both are crossed.
func evaluate(item domain.WatchItem, price float64) (domain.AlertKind, bool) {
	if item.HighAlert > 0 && price >= item.HighAlert {
		return domain.AlertKindHigh, true
	}
	if item.LowAlert > 0 && price <= item.LowAlert {
		return domain.AlertKindLow, true
	}
	return "", false
}

// MarketOpen reports whether the Taiwan exchange is currently in its
// trading window, Monday through Friday 09:00 to 13:35 local time. The
// close carries a few minutes of buffer past the official 13:30 auction.
func (m *Monitor) MarketOpen() bool {
	if m.allowOutside {
		return true
	}

	now := m.now().In(m.location)
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := now.Hour()*60 + now.Minute()
	openAt := config.MarketOpenHour*60 + config.MarketOpenMinute
	closeAt := config.MarketCloseHour*60 + config.MarketCloseMinute
	return minutes >= openAt && minutes <= closeAt
}
