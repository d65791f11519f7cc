package infrastructure

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestDefaultOTelConfig(t *testing.T) {
	cfg := DefaultOTelConfig()
	assert.Equal(t, "stockwatch", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.True(t, cfg.EnableTracing)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:    "stockwatch-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableTracing:  true,
		EnableMetrics:  true,
	}

	providers, err := InitializeOTel(cfg, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := &OTelConfig{
		TraceExporter: "jaeger",
		EnableTracing: true,
	}
	_, err := InitializeOTel(cfg, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestCreateBusinessMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.ExtractionsTotal)
	assert.NotNil(t, metrics.AlertsFired)

	// Recording helpers tolerate nil metrics.
	RecordExtractionMetrics(context.Background(), nil, "upload", 0, 0, nil)
	RecordAlertFired(context.Background(), nil, "2330", "high")
	RecordQuoteCache(context.Background(), nil, "2330", true)
	RecordQuoteFetch(context.Background(), nil, "2330")

	RecordExtractionMetrics(context.Background(), metrics, "upload", 3, 0, nil)
	RecordAlertFired(context.Background(), metrics, "2330", "high")
	RecordQuoteCache(context.Background(), metrics, "2330", false)
	RecordQuoteFetch(context.Background(), metrics, "2330")
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
