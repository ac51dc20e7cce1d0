package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"macrocli/internal/config"
	apierrors "macrocli/internal/errors"
	"macrocli/internal/infrastructure"
	customMiddleware "macrocli/internal/middleware"
	"macrocli/internal/services"
	handlers "macrocli/internal/transport/http"
)

// Application represents the read-only API server container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Services      *ServiceContainer
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Data   *services.DatasetService
	Health *services.HealthService
}

// NewApplication wires services, handlers and middleware. The caller owns
// the logger and the OTel providers and shuts them down after Run returns.
func NewApplication(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		return nil, errors.New("otel providers are required")
	}

	paths, err := config.GetPaths(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        infrastructure.WithComponent(logger, "server"),
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}
	a.Services = &ServiceContainer{
		Data:   services.NewDatasetService(paths, logger),
		Health: services.NewHealthService(config.AppVersion, paths, logger),
	}

	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

// setupRouter builds the middleware chain:
// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimiter
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	metrics, err := infrastructure.CreatePipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create http metrics: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrapes stay outside the instrumented group
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewQueryValidator()
	dataHandler := handlers.NewDataHandler(a.Services.Data, a.Logger, a.ErrorHandler, validator)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/datasets", dataHandler.Routes())
		r.Get("/analysis", dataHandler.Analysis)
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully within ShutdownTimeout.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Paths.LogPathResolution()
	if health := a.Services.Health.HealthCheck(ctx); health.Status != "ok" {
		a.Logger.WarnContext(ctx, "startup_health_check",
			slog.String("status", health.Status),
			slog.String("processed_dir", a.Paths.ProcessedDir))
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.Server.Serve(ln)
	}()

	a.Logger.InfoContext(ctx, "server_started",
		slog.String("address", ln.Addr().String()),
		slog.String("version", config.AppVersion),
		slog.Bool("rate_limit", a.Config.Server.RateLimit.Enabled),
		slog.Bool("metrics", a.OTelProviders.PrometheusHTTP != nil))

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	return a.Stop(context.WithoutCancel(ctx))
}

// Stop gracefully stops the server
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "server_stopping")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Logger.InfoContext(ctx, "server_stopped")
	return nil
}
