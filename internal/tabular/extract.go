package tabular

import (
	"image"

	"stockwatch/pkg/contracts/domain"
)

// config holds the tunable pipeline constants. They are options rather
// than hidden globals so callers and tests can calibrate per source.
type config struct {
	rowTolerance        float64
	headerScanLimit     int
	colorPixelThreshold int
	assigner            Assigner
}

// Option adjusts one pipeline constant.
type Option func(*config)

// WithRowTolerance sets the vertical clustering tolerance in pixels.
func WithRowTolerance(px float64) Option {
	return func(c *config) { c.rowTolerance = px }
}

// WithHeaderScanLimit bounds how many leading rows are scanned for header
// keywords, so data rows are never mistaken for a header.
func WithHeaderScanLimit(rows int) Option {
	return func(c *config) { c.headerScanLimit = rows }
}

// WithColorPixelThreshold sets the minimum pixel count for a color-sign
// classification.
func WithColorPixelThreshold(n int) Option {
	return func(c *config) { c.colorPixelThreshold = n }
}

// WithAssigner swaps the field-assignment strategy.
func WithAssigner(a Assigner) Option {
	return func(c *config) { c.assigner = a }
}

func defaultConfig() config {
	return config{
		rowTolerance:        18,
		headerScanLimit:     6,
		colorPixelThreshold: defaultColorPixelThreshold,
		assigner:            DefaultAssigner(),
	}
}

// Extract reconstructs holding records from raw text annotations. img may
// be nil, in which case profit signs rely on the parsed numerals alone.
// The call is pure: no I/O, no retained state, records in row order. An
// empty annotation list yields an empty result; a row without an
// instrument code is silently dropped; every other per-row failure
// degrades to default field values.
func Extract(annotations []RawAnnotation, img image.Image, opts ...Option) []domain.HoldingRecord {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tokens := NormalizeTokens(annotations)
	if len(tokens) == 0 {
		return nil
	}

	rows := ClusterRows(tokens, cfg.rowTolerance)
	anchors := DetectAnchors(rows, cfg.headerScanLimit)
	signer := NewColorSigner(img, cfg.colorPixelThreshold)

	var records []domain.HoldingRecord
	for _, row := range rows {
		symbol, symbolIdx, ok := LocateSymbol(row)
		if !ok {
			continue
		}
		name := ExtractName(row, symbol, symbolIdx)
		candidates := ExtractNumerics(row, symbol, symbolIdx, signer.Sign)
		fields := cfg.assigner.Assign(candidates, anchors)

		records = append(records, domain.HoldingRecord{
			Symbol:   symbol,
			Name:     name,
			Quantity: fields.Quantity,
			AvgPrice: fields.AvgPrice,
			Profit:   fields.Profit,
		})
	}
	return records
}
