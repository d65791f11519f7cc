package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"stockwatch/internal/config"
	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/infrastructure"
	"stockwatch/internal/tabular"
	"stockwatch/internal/vision"
)

// maxUploadSize bounds the multipart image payload.
const maxUploadSize = 10 << 20

// HoldingsHandler serves the extraction endpoint and the stored holdings.
type HoldingsHandler struct {
	detector     TextDetector
	store        HoldingsStore
	broadcaster  RefreshBroadcaster
	metrics      *infrastructure.BusinessMetrics
	extractCfg   config.ExtractConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewHoldingsHandler creates a holdings handler.
func NewHoldingsHandler(
	detector TextDetector,
	store HoldingsStore,
	broadcaster RefreshBroadcaster,
	metrics *infrastructure.BusinessMetrics,
	extractCfg config.ExtractConfig,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *HoldingsHandler {
	return &HoldingsHandler{
		detector:     detector,
		store:        store,
		broadcaster:  broadcaster,
		metrics:      metrics,
		extractCfg:   extractCfg,
		logger:       logger.With(slog.String("component", "holdings_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the holdings routes.
func (h *HoldingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/extract", h.Extract)

	return r
}

// ExtractResponse is the body returned by POST /api/holdings/extract.
type ExtractResponse struct {
	Records  []RecordJSON `json:"records"`
	Count    int          `json:"count"`
	Duration string       `json:"duration"`
}

// RecordJSON mirrors a holding record on the wire.
type RecordJSON struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
	Profit   int64   `json:"profit"`
}

// Extract handles POST /api/holdings/extract. It accepts a multipart
// upload with an "image" field, runs OCR and table reconstruction, and
// upserts the resulting records.
func (h *HoldingsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidImage)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "MISSING_PARAMETER",
			"Required parameter is missing",
			map[string]interface{}{"parameter": "image"}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	h.logger.InfoContext(ctx, "extraction started",
		slog.String("filename", header.Filename),
		slog.Int("size", len(data)))

	original, enhanced, err := vision.DecodeAndEnhance(data)
	if err != nil {
		infrastructure.RecordExtractionMetrics(ctx, h.metrics, "upload", 0, time.Since(start), err)
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidImage)
		return
	}

	annotations, err := h.detector.Detect(ctx, enhanced)
	if err != nil {
		infrastructure.RecordExtractionMetrics(ctx, h.metrics, "upload", 0, time.Since(start), err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records := tabular.Extract(annotations, original,
		tabular.WithRowTolerance(h.extractCfg.RowTolerance),
		tabular.WithHeaderScanLimit(h.extractCfg.HeaderScanLimit),
		tabular.WithColorPixelThreshold(h.extractCfg.ColorPixelThreshold),
	)
	if len(records) == 0 {
		infrastructure.RecordExtractionMetrics(ctx, h.metrics, "upload", 0, time.Since(start), apierrors.ErrNoSymbolInRow)
		h.errorHandler.HandleError(w, r, apierrors.ErrNoRecordsFound)
		return
	}

	if err := h.store.UpsertHoldings(ctx, records); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("holdings upsert", err))
		return
	}

	elapsed := time.Since(start)
	infrastructure.RecordExtractionMetrics(ctx, h.metrics, "upload", len(records), elapsed, nil)

	if h.broadcaster != nil {
		h.broadcaster.BroadcastRefresh("extract", []string{"holdings"})
	}

	h.logger.InfoContext(ctx, "extraction completed",
		slog.Int("records", len(records)),
		slog.Duration("duration", elapsed))

	out := ExtractResponse{
		Records:  make([]RecordJSON, 0, len(records)),
		Count:    len(records),
		Duration: elapsed.Round(time.Millisecond).String(),
	}
	for _, rec := range records {
		out.Records = append(out.Records, RecordJSON{
			Symbol:   rec.Symbol,
			Name:     rec.Name,
			Quantity: rec.Quantity,
			AvgPrice: rec.AvgPrice,
			Profit:   rec.Profit,
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, out)
}

// List handles GET /api/holdings.
func (h *HoldingsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListHoldings(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("holdings list", err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"holdings": records,
		"count":    len(records),
	})
}
