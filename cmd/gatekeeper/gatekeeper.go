package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatekeeper/internal/admission"
	"gatekeeper/internal/api"
	"gatekeeper/internal/config"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/observability"
	"gatekeeper/internal/storage"
	"gatekeeper/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.GetInfo()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize the decision audit store
	store, err := storage.New(storage.Config{
		Type:         cfg.Storage.Type,
		Path:         cfg.Storage.Path,
		DSN:          cfg.Storage.Database.DSN,
		MaxOpenConns: cfg.Storage.Database.MaxOpenConns,
		MaxIdleConns: cfg.Storage.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Wrap storage with instrumentation if metrics are enabled
	var activeStore storage.Store = store
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStore(store)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStore = instrumented
	}

	// The admission controller is constructed here and injected everywhere
	// it is needed; there is no package-level instance.
	controller := admission.NewController(admission.Config{
		PerClientCooldown:    cfg.Admission.PerClientCooldown,
		GlobalMaxTokens:      cfg.Admission.GlobalMaxTokens,
		GlobalRefillInterval: cfg.Admission.GlobalRefillInterval,
		StaleEntryTTL:        cfg.Admission.StaleEntryTTL,
	})

	var gate admission.Gate = controller
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedGate(controller)
		if err != nil {
			slog.Error("Failed to create instrumented gate", "error", err)
			os.Exit(1)
		}
		gate = instrumented
	}

	// Background purge of stale cooldown entries, stopped on shutdown.
	janitor := admission.NewJanitor(gate, cfg.Admission.MaintenanceInterval)
	defer janitor.Close()

	// Audit trail retention; a zero retention keeps records forever.
	if cfg.Storage.Retention > 0 {
		purger := storage.NewPurger(activeStore, cfg.Storage.Retention, cfg.Admission.MaintenanceInterval)
		defer purger.Close()
	}

	handlers := api.NewHandlers(gate, activeStore)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr,
			"global_max_tokens", cfg.Admission.GlobalMaxTokens,
			"per_client_cooldown", cfg.Admission.PerClientCooldown.String(),
		)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}
