// Package vision wraps the Google Cloud Vision text-detection call behind
// the narrow collaborator contract the extraction core expects: image bytes
// in, positioned text fragments out, empty result on failure.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/tabular"
)

// UsageCounter tracks text-detection invocations and failures against the
// provider's monthly quota. Injected so quota policy stays out of this
// client.
type UsageCounter interface {
	Inc()
	IncError()
	Total() int64
}

// nopCounter is used when no counter is injected.
type nopCounter struct{}

func (nopCounter) Inc()         {}
func (nopCounter) IncError()    {}
func (nopCounter) Total() int64 { return 0 }

// Client calls the images:annotate endpoint with TEXT_DETECTION.
type Client struct {
	svc          *vision.Service
	usage        UsageCounter
	monthlyQuota int64
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMonthlyQuota caps text-detection calls per counter period. Zero
// disables the cap.
func WithMonthlyQuota(n int64) Option {
	return func(c *Client) { c.monthlyQuota = n }
}

// NewClient builds a Vision client authenticated by API key. counter may
// be nil.
func NewClient(ctx context.Context, apiKey string, counter UsageCounter, logger *slog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vision: api key is required")
	}
	svc, err := vision.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("vision: create service: %w", err)
	}
	if counter == nil {
		counter = nopCounter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		svc:    svc,
		usage:  counter,
		logger: logger.With(slog.String("component", "vision_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Detect runs text detection over the encoded image and returns one raw
// annotation per recognized fragment. The whole-image summary annotation
// the API puts first is skipped. An image with no recognizable text yields
// an empty slice and no error.
func (c *Client) Detect(ctx context.Context, imageBytes []byte) ([]tabular.RawAnnotation, error) {
	if c.monthlyQuota > 0 && c.usage.Total() >= c.monthlyQuota {
		return nil, fmt.Errorf("vision: %d of %d detection calls used: %w",
			c.usage.Total(), c.monthlyQuota, apperrors.ErrOCRQuotaExceeded)
	}
	c.usage.Inc()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(imageBytes)},
			Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		c.usage.IncError()
		return nil, apperrors.NewOCRError("text detection request failed", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	r := resp.Responses[0]
	if r.Error != nil {
		c.usage.IncError()
		return nil, apperrors.NewOCRError(r.Error.Message, nil).
			WithContext("code", r.Error.Code)
	}

	annotations := FromEntityAnnotations(r.TextAnnotations)
	c.logger.DebugContext(ctx, "text detection complete",
		slog.Int("fragments", len(annotations)),
		slog.Int64("usage_total", c.usage.Total()))
	return annotations, nil
}

// FromEntityAnnotations converts Vision API entities into the core's raw
// annotation form, dropping the leading whole-image entry.
func FromEntityAnnotations(entities []*vision.EntityAnnotation) []tabular.RawAnnotation {
	if len(entities) <= 1 {
		return nil
	}
	out := make([]tabular.RawAnnotation, 0, len(entities)-1)
	for _, e := range entities[1:] {
		if e == nil || e.BoundingPoly == nil {
			continue
		}
		poly := make([]tabular.Point, 0, len(e.BoundingPoly.Vertices))
		for _, v := range e.BoundingPoly.Vertices {
			if v == nil {
				continue
			}
			poly = append(poly, tabular.Point{X: float64(v.X), Y: float64(v.Y)})
		}
		out = append(out, tabular.RawAnnotation{Text: e.Description, Polygon: poly})
	}
	return out
}
