package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"stockwatch/internal/config"
	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/exporter"
	"stockwatch/internal/infrastructure"
	"stockwatch/internal/middleware"
	"stockwatch/internal/monitor"
	"stockwatch/internal/pricing"
	"stockwatch/internal/store"
	handlers "stockwatch/internal/transport/http"
	"stockwatch/internal/vision"
	ws "stockwatch/internal/websocket"
)

// Application is the assembled service.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Store   *store.Store
	Pricing *pricing.Client
	Vision  *vision.Client
	Hub     *ws.Hub
	Monitor *monitor.Monitor

	Router chi.Router
	Server *http.Server
}

// NewApplication loads configuration and builds all components.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize opentelemetry: %w", err)
	}

	otelMiddleware, err := middleware.NewOTelMiddleware(otelProviders)
	if err != nil {
		return nil, fmt.Errorf("initialize otel middleware: %w", err)
	}
	metrics := otelMiddleware.Metrics()

	errorHandler := apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug")
	validation := middleware.NewValidationMiddleware(logger, errorHandler)

	st, err := store.New(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	pricingClient := pricing.NewClient(cfg.Pricing.BaseURL, cfg.Pricing.Token, logger,
		pricing.WithHTTPClient(&http.Client{Timeout: cfg.Pricing.Timeout}),
		pricing.WithRateLimit(cfg.Pricing.RPS, cfg.Pricing.Burst),
		pricing.WithCacheTTL(cfg.Pricing.CacheTTL),
		pricing.WithMetrics(metrics),
	)

	usage := infrastructure.NewOCRUsageCounter(metrics)
	visionClient, err := vision.NewClient(ctx, cfg.Vision.APIKey, usage, logger,
		vision.WithMonthlyQuota(cfg.Vision.MonthlyQuota))
	if err != nil {
		return nil, fmt.Errorf("initialize vision client: %w", err)
	}

	hub := ws.NewHub(logger)

	mon, err := monitor.New(st, pricingClient, hub, metrics, cfg.Monitor, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize monitor: %w", err)
	}

	reporter := exporter.NewReporter(config.DefaultReportsDir, logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:       cfg,
		Logger:       logger,
		Providers:    otelProviders,
		OTel:         otelMiddleware,
		ErrorHandler: errorHandler,
		Validation:   validation,
		Detector:     visionClient,
		Holdings:     st,
		Watch:        st,
		Quotes:       pricingClient,
		Reporter:     reporter,
		Hub:          hub,
	})

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Store:         st,
		Pricing:       pricingClient,
		Vision:        visionClient,
		Hub:           hub,
		Monitor:       mon,
		Router:        router,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}

	return app, nil
}

// Run starts the server, the websocket hub and the price monitor, and
// blocks until an interrupt arrives or a component fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Hub.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.Monitor.Run(gctx); err != nil && err != context.Canceled {
			return fmt.Errorf("monitor: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	err := g.Wait()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func (a *Application) shutdown() error {
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	a.Hub.Stop()

	if err := a.Store.Close(); err != nil {
		a.Logger.Error("store close error", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("opentelemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()

	a.Logger.Info("shutdown complete")
	return nil
}

// WaitUntilReady polls the health endpoint until the server answers or
// the deadline passes. Used by the CLI after starting the server.
func (a *Application) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	url := fmt.Sprintf("http://localhost:%d/api/health", a.Config.Server.Port)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %s", timeout)
}
