package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "stockwatch/internal/errors"
	"stockwatch/pkg/contracts/domain"
)

// QuotesHandler serves price and daily-statistics lookups.
type QuotesHandler struct {
	quotes       QuoteSource
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQuotesHandler creates a quotes handler.
func NewQuotesHandler(quotes QuoteSource, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QuotesHandler {
	return &QuotesHandler{
		quotes:       quotes,
		logger:       logger.With(slog.String("component", "quotes_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the quote routes.
func (h *QuotesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Get("/", h.Latest)
		r.Get("/stats", h.Stats)
	})

	return r
}

// SymbolCtx validates the symbol URL parameter.
func (h *QuotesHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.ValidSymbol(chi.URLParam(r, "symbol")) {
			h.errorHandler.HandleError(w, r, apierrors.ErrInvalidSymbol)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Latest handles GET /api/quotes/{symbol}.
func (h *QuotesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	quote, err := h.quotes.LastPrice(r.Context(), symbol)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, quote)
}

// Stats handles GET /api/quotes/{symbol}/stats. An optional offset query
// parameter selects an earlier trading day, 0 being the latest.
func (h *QuotesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.errorHandler.HandleError(w, r,
				apierrors.ErrValidation("offset", "offset must be a non-negative integer"))
			return
		}
		offset = parsed
	}

	stats, err := h.quotes.FullStats(r.Context(), symbol, offset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}
