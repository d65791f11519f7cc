package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/middleware"
	"stockwatch/pkg/contracts/domain"
)

// WatchlistHandler serves the watchlist CRUD and alert-band endpoints.
type WatchlistHandler struct {
	store        WatchStore
	quotes       QuoteSource
	validation   *middleware.ValidationMiddleware
	broadcaster  RefreshBroadcaster
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewWatchlistHandler creates a watchlist handler.
func NewWatchlistHandler(
	store WatchStore,
	quotes QuoteSource,
	validation *middleware.ValidationMiddleware,
	broadcaster RefreshBroadcaster,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *WatchlistHandler {
	return &WatchlistHandler{
		store:        store,
		quotes:       quotes,
		validation:   validation,
		broadcaster:  broadcaster,
		logger:       logger.With(slog.String("component", "watchlist_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the watchlist routes.
func (h *WatchlistHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Add)

	r.Route("/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Remove)
		r.Put("/alerts", h.SetAlerts)
		r.Post("/mute", h.Mute)
		r.Post("/unmute", h.Unmute)
	})

	return r
}

// SymbolCtx validates the symbol URL parameter.
func (h *WatchlistHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if !domain.ValidSymbol(symbol) {
			h.errorHandler.HandleError(w, r, apierrors.ErrInvalidSymbol)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddWatchRequest is the body for POST /api/watchlist.
type AddWatchRequest struct {
	Symbol    string  `json:"symbol" validate:"required,twsymbol"`
	Name      string  `json:"name"`
	HighAlert float64 `json:"high_alert" validate:"gte=0"`
	LowAlert  float64 `json:"low_alert" validate:"gte=0"`
}

// AlertBoundsRequest is the body for PUT /api/watchlist/{symbol}/alerts.
type AlertBoundsRequest struct {
	HighAlert float64 `json:"high_alert" validate:"gte=0"`
	LowAlert  float64 `json:"low_alert" validate:"gte=0"`
}

// List handles GET /api/watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListWatch(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("watchlist list", err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"watchlist": items,
		"count":     len(items),
	})
}

// Add handles POST /api/watchlist.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	item := domain.WatchItem{
		Symbol:    req.Symbol,
		Name:      req.Name,
		HighAlert: req.HighAlert,
		LowAlert:  req.LowAlert,
		Status:    domain.WatchStatusNormal,
	}
	if err := h.store.AddWatch(r.Context(), item); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.StorageError("watchlist add", err))
		return
	}

	h.logger.InfoContext(r.Context(), "watch added",
		slog.String("symbol", req.Symbol),
		slog.Float64("high_alert", req.HighAlert),
		slog.Float64("low_alert", req.LowAlert))

	if h.broadcaster != nil {
		h.broadcaster.BroadcastRefresh("watchlist", []string{"watchlist"})
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

// Get handles GET /api/watchlist/{symbol}.
func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	item, err := h.store.GetWatch(r.Context(), symbol)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

// Remove handles DELETE /api/watchlist/{symbol}.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := h.store.RemoveWatch(r.Context(), symbol); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.quotes.Invalidate(symbol)
	if h.broadcaster != nil {
		h.broadcaster.BroadcastRefresh("watchlist", []string{"watchlist"})
	}

	render.NoContent(w, r)
}

// SetAlerts handles PUT /api/watchlist/{symbol}/alerts.
func (h *WatchlistHandler) SetAlerts(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var req AlertBoundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if req.HighAlert > 0 && req.LowAlert > 0 && req.LowAlert >= req.HighAlert {
		h.errorHandler.HandleError(w, r,
			apierrors.ErrValidation("low_alert", "low_alert must be below high_alert"))
		return
	}

	if err := h.store.SetAlertBounds(r.Context(), symbol, req.HighAlert, req.LowAlert); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Bounds changed, so the cached quote must not mask a crossing.
	h.quotes.Invalidate(symbol)

	h.logger.InfoContext(r.Context(), "alert bounds updated",
		slog.String("symbol", symbol),
		slog.Float64("high_alert", req.HighAlert),
		slog.Float64("low_alert", req.LowAlert))

	item, err := h.store.GetWatch(r.Context(), symbol)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

// Mute handles POST /api/watchlist/{symbol}/mute.
func (h *WatchlistHandler) Mute(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.WatchStatusMuted)
}

// Unmute handles POST /api/watchlist/{symbol}/unmute.
func (h *WatchlistHandler) Unmute(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.WatchStatusNormal)
}

func (h *WatchlistHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.WatchStatus) {
	symbol := chi.URLParam(r, "symbol")
	if err := h.store.SetStatus(r.Context(), symbol, status); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "watch status changed",
		slog.String("symbol", symbol),
		slog.String("status", string(status)))

	item, err := h.store.GetWatch(r.Context(), symbol)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}
