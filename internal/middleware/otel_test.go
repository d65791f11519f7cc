package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"

	"stockwatch/internal/infrastructure"
)

func newTestOTelMiddleware(t *testing.T) (*OTelMiddleware, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	m, err := NewOTelMiddleware(&infrastructure.OTelProviders{
		Tracer: noop.NewTracerProvider().Tracer("test"),
		Meter:  mp.Meter("test"),
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return m, reader
}

func collectCounters(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

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

func TestOTelMiddleware_CountsRequests(t *testing.T) {
	m, reader := newTestOTelMiddleware(t)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	totals := collectCounters(t, reader)
	assert.Equal(t, int64(1), totals["http_requests_total"])
	assert.Zero(t, totals["system_errors_total"])
}

func TestOTelMiddleware_CountsServerErrors(t *testing.T) {
	m, reader := newTestOTelMiddleware(t)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/holdings", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// A client error must not count as a system error.
	rec = httptest.NewRecorder()
	handler2 := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	handler2.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/holdings", nil))

	totals := collectCounters(t, reader)
	assert.Equal(t, int64(1), totals["system_errors_total"])
	assert.Equal(t, int64(2), totals["http_requests_total"])
}
