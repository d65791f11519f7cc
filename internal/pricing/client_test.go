package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/infrastructure"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeProvider serves a fixed daily history and counts requests.
func fakeProvider(t *testing.T, rows []dailyRow, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, datasetDaily, r.URL.Query().Get("dataset"))
		assert.NotEmpty(t, r.URL.Query().Get("data_id"))
		json.NewEncoder(w).Encode(apiResponse{Msg: "success", Status: 200, Data: rows})
	}))
}

func history(days int, base float64) []dailyRow {
	rows := make([]dailyRow, days)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = dailyRow{
			Date:          start.AddDate(0, 0, i).Format("2006-01-02"),
			StockID:       "2330",
			TradingVolume: 1000,
			Open:          base + float64(i) - 0.5,
			Max:           base + float64(i) + 1,
			Min:           base + float64(i) - 1,
			Close:         base + float64(i),
		}
	}
	return rows
}

func TestLastPrice(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, history(30, 500), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger())
	quote, err := client.LastPrice(context.Background(), "2330")
	require.NoError(t, err)

	assert.Equal(t, "2330", quote.Symbol)
	assert.Equal(t, 529.0, quote.Close)
	assert.False(t, quote.FetchedAt.IsZero())
}

func TestLastPrice_EmptyHistory(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, nil, &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger())
	_, err := client.LastPrice(context.Background(), "9999")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamPricing)
}

func TestFullStats_MA20(t *testing.T) {
	var hits atomic.Int64
	// Closes 500..529; the trailing 20 closes are 510..529, mean 519.5.
	srv := fakeProvider(t, history(30, 500), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger())
	stats, err := client.FullStats(context.Background(), "2330", 0)
	require.NoError(t, err)

	assert.Equal(t, "2330", stats.Symbol)
	assert.Equal(t, 529.0, stats.Close)
	assert.Equal(t, 530.0, stats.High)
	assert.Equal(t, 528.0, stats.Low)
	assert.Equal(t, int64(1000), stats.Volume)
	assert.Equal(t, 519.5, stats.MA20)
	assert.True(t, stats.AboveMA20())
}

func TestFullStats_Offset(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, history(30, 500), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger())

	prev, err := client.FullStats(context.Background(), "2330", 1)
	require.NoError(t, err)
	assert.Equal(t, 528.0, prev.Close)
	// MA20 over closes 509..528.
	assert.Equal(t, 518.5, prev.MA20)
}

func TestFullStats_ShortHistoryHasNoMA20(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, history(10, 100), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger())
	stats, err := client.FullStats(context.Background(), "2330", 0)
	require.NoError(t, err)
	assert.Zero(t, stats.MA20)
	assert.False(t, stats.AboveMA20())
}

func TestFullStats_OffsetBeyondHistory(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, history(3, 100), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger())
	_, err := client.FullStats(context.Background(), "2330", 5)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamPricing)

	_, err = client.FullStats(context.Background(), "2330", -1)
	assert.Error(t, err)
}

func TestDailyRows_Cached(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, history(30, 500), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger(), WithCacheTTL(time.Minute))

	_, err := client.LastPrice(context.Background(), "2330")
	require.NoError(t, err)
	_, err = client.FullStats(context.Background(), "2330", 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load(), "second read should come from cache")

	client.Invalidate("2330")
	_, err = client.LastPrice(context.Background(), "2330")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestDailyRows_RecordsCacheMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var hits atomic.Int64
	srv := fakeProvider(t, history(30, 500), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger(),
		WithCacheTTL(time.Minute), WithMetrics(metrics))

	_, err = client.LastPrice(context.Background(), "2330")
	require.NoError(t, err)
	_, err = client.LastPrice(context.Background(), "2330")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := counterTotals(rm)
	assert.Equal(t, int64(1), totals["quote_cache_misses_total"])
	assert.Equal(t, int64(1), totals["quote_cache_hits_total"])
	assert.Equal(t, int64(1), totals["quote_fetches_total"])
}

func counterTotals(rm metricdata.ResourceMetrics) map[string]int64 {
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestDailyRows_CacheDisabled(t *testing.T) {
	var hits atomic.Int64
	srv := fakeProvider(t, history(30, 500), &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "", testLogger(), WithCacheTTL(0))

	for i := 0; i < 3; i++ {
		_, err := client.LastPrice(context.Background(), "2330")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), hits.Load())
}

func TestDailyRows_TokenForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.URL.Query().Get("token"))
		json.NewEncoder(w).Encode(apiResponse{Status: 200, Data: history(5, 100)})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token", testLogger())
	_, err := client.LastPrice(context.Background(), "2330")
	require.NoError(t, err)
}

func TestDailyRows_UpstreamFailure(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "", testLogger())
		_, err := client.LastPrice(context.Background(), "2330")
		assert.ErrorIs(t, err, apperrors.ErrUpstreamPricing)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrTypePricing, appErr.Type)
	})

	t.Run("provider status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(apiResponse{Msg: "token quota exceeded", Status: 402})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "", testLogger())
		_, err := client.LastPrice(context.Background(), "2330")
		assert.ErrorIs(t, err, apperrors.ErrUpstreamPricing)
		assert.Contains(t, err.Error(), "token quota exceeded")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json")
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "", testLogger())
		_, err := client.LastPrice(context.Background(), "2330")
		assert.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
	})
}

func TestMovingAverage(t *testing.T) {
	rows := history(25, 100)
	assert.Equal(t, 114.5, movingAverage(rows, 20))
	assert.Zero(t, movingAverage(rows[:10], 20))
}
