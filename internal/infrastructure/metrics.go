package infrastructure

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Extraction metrics
	ExtractionsTotal   metric.Int64Counter
	ExtractionDuration metric.Float64Histogram
	RecordsParsed      metric.Int64Counter
	ExtractionErrors   metric.Int64Counter

	// OCR metrics
	OCRRequestsTotal metric.Int64Counter
	OCRErrors        metric.Int64Counter

	// Monitor metrics
	PollCyclesTotal metric.Int64Counter
	AlertsFired     metric.Int64Counter
	QuoteFetches    metric.Int64Counter
	QuoteCacheHits  metric.Int64Counter
	QuoteCacheMiss  metric.Int64Counter

	// System metrics
	SystemErrors metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	extractionsTotal, err := meter.Int64Counter(
		"holdings_extractions_total",
		metric.WithDescription("Total number of holdings extraction runs"),
	)
	if err != nil {
		return nil, err
	}

	extractionDuration, err := meter.Float64Histogram(
		"holdings_extraction_duration_seconds",
		metric.WithDescription("Holdings extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsParsed, err := meter.Int64Counter(
		"holdings_records_parsed_total",
		metric.WithDescription("Total number of holding records reconstructed"),
	)
	if err != nil {
		return nil, err
	}

	extractionErrors, err := meter.Int64Counter(
		"holdings_extraction_errors_total",
		metric.WithDescription("Total number of failed extraction runs"),
	)
	if err != nil {
		return nil, err
	}

	ocrRequestsTotal, err := meter.Int64Counter(
		"ocr_requests_total",
		metric.WithDescription("Total number of OCR API requests"),
	)
	if err != nil {
		return nil, err
	}

	ocrErrors, err := meter.Int64Counter(
		"ocr_errors_total",
		metric.WithDescription("Total number of OCR API errors"),
	)
	if err != nil {
		return nil, err
	}

	pollCyclesTotal, err := meter.Int64Counter(
		"monitor_poll_cycles_total",
		metric.WithDescription("Total number of monitor poll cycles"),
	)
	if err != nil {
		return nil, err
	}

	alertsFired, err := meter.Int64Counter(
		"monitor_alerts_fired_total",
		metric.WithDescription("Total number of price alerts fired"),
	)
	if err != nil {
		return nil, err
	}

	quoteFetches, err := meter.Int64Counter(
		"quote_fetches_total",
		metric.WithDescription("Total number of quote fetches"),
	)
	if err != nil {
		return nil, err
	}

	quoteCacheHits, err := meter.Int64Counter(
		"quote_cache_hits_total",
		metric.WithDescription("Total number of quote cache hits"),
	)
	if err != nil {
		return nil, err
	}

	quoteCacheMiss, err := meter.Int64Counter(
		"quote_cache_misses_total",
		metric.WithDescription("Total number of quote cache misses"),
	)
	if err != nil {
		return nil, err
	}

	systemErrors, err := meter.Int64Counter(
		"system_errors_total",
		metric.WithDescription("Total number of system errors"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,

		ExtractionsTotal:   extractionsTotal,
		ExtractionDuration: extractionDuration,
		RecordsParsed:      recordsParsed,
		ExtractionErrors:   extractionErrors,

		OCRRequestsTotal: ocrRequestsTotal,
		OCRErrors:        ocrErrors,

		PollCyclesTotal: pollCyclesTotal,
		AlertsFired:     alertsFired,
		QuoteFetches:    quoteFetches,
		QuoteCacheHits:  quoteCacheHits,
		QuoteCacheMiss:  quoteCacheMiss,

		SystemErrors: systemErrors,
	}, nil
}

// RecordExtractionMetrics records metrics for one extraction run
func RecordExtractionMetrics(ctx context.Context, metrics *BusinessMetrics, source string, records int, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", source),
	}

	metrics.ExtractionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
		metrics.ExtractionErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		metrics.RecordsParsed.Add(ctx, int64(records), metric.WithAttributes(attrs...))
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.ExtractionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("extraction.metrics_recorded",
			trace.WithAttributes(
				attribute.String("source", source),
				attribute.Int("records", records),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordAlertFired records a fired price alert
func RecordAlertFired(ctx context.Context, metrics *BusinessMetrics, symbol, kind string) {
	if metrics == nil {
		return
	}

	metrics.AlertsFired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("kind", kind),
	))
}

// RecordQuoteCache records the outcome of a quote cache lookup.
func RecordQuoteCache(ctx context.Context, metrics *BusinessMetrics, symbol string, hit bool) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("symbol", symbol))
	if hit {
		metrics.QuoteCacheHits.Add(ctx, 1, attrs)
		return
	}
	metrics.QuoteCacheMiss.Add(ctx, 1, attrs)
}

// RecordQuoteFetch records one round trip to the pricing provider.
func RecordQuoteFetch(ctx context.Context, metrics *BusinessMetrics, symbol string) {
	if metrics == nil {
		return
	}
	metrics.QuoteFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}

// OCRUsageCounter tracks OCR API request counts against the monthly free
// quota. The in-memory total resets on restart; the otel counter survives
// as a monotonic series.
type OCRUsageCounter struct {
	total   atomic.Int64
	metrics *BusinessMetrics
}

// NewOCRUsageCounter returns a counter wired to the business metrics.
// A nil metrics value is allowed and leaves only the in-memory total.
func NewOCRUsageCounter(metrics *BusinessMetrics) *OCRUsageCounter {
	return &OCRUsageCounter{metrics: metrics}
}

// Inc records one OCR API request.
func (c *OCRUsageCounter) Inc() {
	c.total.Add(1)
	if c.metrics != nil {
		c.metrics.OCRRequestsTotal.Add(context.Background(), 1)
	}
}

// IncError records one failed OCR API request.
func (c *OCRUsageCounter) IncError() {
	if c.metrics != nil {
		c.metrics.OCRErrors.Add(context.Background(), 1)
	}
}

// Total returns the number of requests recorded since startup.
func (c *OCRUsageCounter) Total() int64 {
	return c.total.Load()
}
