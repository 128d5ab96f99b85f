package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	database "github.com/FACorreiaa/go-vietspot-suggestions/app/db"
	appLogger "github.com/FACorreiaa/go-vietspot-suggestions/app/logger"
	appMiddleware "github.com/FACorreiaa/go-vietspot-suggestions/app/middleware"
	"github.com/FACorreiaa/go-vietspot-suggestions/app/tracer"
	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	_ "github.com/FACorreiaa/go-vietspot-suggestions/docs"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/container"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/router"
)

var version = "dev"

// @title        VietSpot API
// @version      1.0
// @description  Travel discovery chat and itinerary planning for Vietnam.
// @host         localhost:8000
// @BasePath     /api/v1
func main() {
	// standard log until slog is configured
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.New(cfg.Mode, os.Stdout)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := tracer.InitTracingAndMetrics(version)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Handlers.Prometheus.Enabled {
		go tracer.ServeMetrics(ctx, cfg.Handlers.Prometheus.Port, logger)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}
	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to build application container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		logger.Error("Database not ready after waiting, exiting")
		os.Exit(1)
	}

	apiRouter := router.SetupRouter(&router.Config{
		ChatHandler:         c.ChatHandler,
		ItineraryHandler:    c.ItineraryHandler,
		AuthMiddleware:      appMiddleware.OptionalAuth(c.KeyProvider, "", logger),
		RateLimitMiddleware: c.RateLimiter.Middleware,
		CORSOrigins:         cfg.Server.CORSOrigins,
	})

	timeout := cfg.Server.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", apiRouter)

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      otelhttp.NewHandler(r, "vietspot-http"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
	}
	logger.Info("Application shut down complete")
}
