package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stockwatch/internal/config"
)

// HubStats exposes websocket hub counters to the health endpoint.
type HubStats interface {
	Stats() map[string]interface{}
}

// HealthHandler reports process health and version.
type HealthHandler struct {
	hub       HubStats
	logger    *slog.Logger
	startedAt time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(hub HubStats, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		hub:       hub,
		logger:    logger.With(slog.String("handler", "health")),
		startedAt: time.Now(),
	}
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"app":     config.AppName,
		"version": config.AppVersion,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.hub != nil {
		body["websocket"] = h.hub.Stats()
	}
	render.JSON(w, r, body)
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"app":     config.AppName,
		"version": config.AppVersion,
	})
}
