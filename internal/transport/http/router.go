package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"stockwatch/internal/config"
	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/exporter"
	"stockwatch/internal/infrastructure"
	"stockwatch/internal/middleware"
	"stockwatch/internal/websocket"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Providers    *infrastructure.OTelProviders
	OTel         *middleware.OTelMiddleware
	ErrorHandler *apierrors.ErrorHandler
	Validation   *middleware.ValidationMiddleware

	Detector TextDetector
	Holdings HoldingsStore
	Watch    WatchStore
	Quotes   QuoteSource
	Reporter *exporter.Reporter
	Hub      *websocket.Hub
}

// NewRouter assembles the chi router with the full middleware chain and
// all API routes.
func NewRouter(deps RouterDeps) chi.Router {
	cfg := deps.Config
	logger := deps.Logger

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(deps.OTel.Handler)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	r.Use(middleware.StripSlashes)
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.Security.AllowedOrigins,
		Logger:         logger,
	}))

	rateLimiter := middleware.NewRateLimiter(
		cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst, logger)

	metrics := deps.OTel.Metrics()

	holdingsHandler := NewHoldingsHandler(
		deps.Detector, deps.Holdings, deps.Hub, metrics,
		cfg.Extract, logger, deps.ErrorHandler)
	watchlistHandler := NewWatchlistHandler(
		deps.Watch, deps.Quotes, deps.Validation, deps.Hub, logger, deps.ErrorHandler)
	quotesHandler := NewQuotesHandler(deps.Quotes, logger, deps.ErrorHandler)
	reportsHandler := NewReportsHandler(
		deps.Watch, deps.Holdings, deps.Quotes, deps.Reporter, logger, deps.ErrorHandler)
	healthHandler := NewHealthHandler(deps.Hub, logger)

	apiLogging := apierrors.NewErrorMiddleware(deps.ErrorHandler, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Handler)
		r.Use(middleware.Timeout(60*time.Second, logger))
		r.Use(apiLogging.Handler)
		r.Use(deps.Validation.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/holdings", holdingsHandler.Routes())
		r.Mount("/watchlist", watchlistHandler.Routes())
		r.Mount("/quotes", quotesHandler.Routes())
		r.Mount("/reports", reportsHandler.Routes())

		r.NotFound(deps.ErrorHandler.NotFound)
		r.MethodNotAllowed(deps.ErrorHandler.MethodNotAllowed)
	})

	if deps.Providers != nil && deps.Providers.PrometheusHTTP != nil {
		r.Handle("/metrics", deps.Providers.PrometheusHTTP)
	}

	r.With(middleware.WebSocketTraceMiddleware(logger)).
		Get("/ws", serveWebSocket(deps.Hub, cfg, logger))

	return r
}

// serveWebSocket upgrades the connection and hands it to the hub.
func serveWebSocket(hub *websocket.Hub, cfg *config.Config, logger *slog.Logger) http.HandlerFunc {
	upgrader := gorillaws.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range cfg.Security.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.ErrorContext(r.Context(), "websocket upgrade failed",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr))
			return
		}
		websocket.ServeWS(hub, conn, infrastructure.GetTraceID(r.Context()), logger)
	}
}
