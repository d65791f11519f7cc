package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/exporter"
)

// ReportsHandler builds closing reports and holdings exports on demand.
type ReportsHandler struct {
	watch        WatchStore
	holdings     HoldingsStore
	quotes       QuoteSource
	reporter     *exporter.Reporter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(
	watch WatchStore,
	holdings HoldingsStore,
	quotes QuoteSource,
	reporter *exporter.Reporter,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *ReportsHandler {
	return &ReportsHandler{
		watch:        watch,
		holdings:     holdings,
		quotes:       quotes,
		reporter:     reporter,
		logger:       logger.With(slog.String("component", "reports_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the report routes.
func (h *ReportsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/closing", h.Closing)
	r.Post("/holdings", h.HoldingsExport)

	return r
}

// Closing handles POST /api/reports/closing. It fetches daily statistics
// for every watched instrument and writes the closing workbook.
func (h *ReportsHandler) Closing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.watch.ListWatch(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("watchlist list", err))
		return
	}
	if len(items) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("watchlist"))
		return
	}

	rows := make([]exporter.ClosingRow, 0, len(items))
	for _, item := range items {
		stats, err := h.quotes.FullStats(ctx, item.Symbol, 0)
		if err != nil {
			// One symbol failing should not sink the whole report.
			h.logger.WarnContext(ctx, "stats fetch failed, skipping symbol",
				slog.String("symbol", item.Symbol),
				slog.String("error", err.Error()))
			continue
		}
		rows = append(rows, exporter.ClosingRow{Name: item.Name, Stats: stats})
	}
	if len(rows) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrPricingUpstream)
		return
	}

	// Holdings are a nice-to-have in the workbook; a read failure only
	// costs the second sheet.
	holdings, err := h.holdings.ListHoldings(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "holdings read failed, omitting sheet",
			slog.String("error", err.Error()))
		holdings = nil
	}

	date := h.now().Format("2006-01-02")
	path, err := h.reporter.WriteClosingReport(date, rows, holdings)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("closing report", err))
		return
	}

	h.logger.InfoContext(ctx, "closing report written",
		slog.String("path", path),
		slog.Int("rows", len(rows)))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"path": path,
		"date": date,
		"rows": len(rows),
	})
}

// HoldingsExport handles POST /api/reports/holdings.
func (h *ReportsHandler) HoldingsExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.holdings.ListHoldings(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("holdings list", err))
		return
	}
	if len(records) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("holdings"))
		return
	}

	fileName := "holdings_" + h.now().Format("2006-01-02") + ".csv"
	path, err := h.reporter.ExportHoldingsCSV(fileName, records)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("holdings export", err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"path":  path,
		"count": len(records),
	})
}
