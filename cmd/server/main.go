// Command main is the entry point for the app feed API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appfeed/internal/config"
	"appfeed/internal/jobs"
	"appfeed/internal/middleware"
	"appfeed/internal/observability"
	"appfeed/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := middleware.NewLogger(cfg.Env)
	middleware.Logger = logger
	observability.SetGlobalLogger(logger)

	exporter := "stdout"
	if cfg.OTLPEndpoint != "" {
		exporter = "otlp"
	}
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "appfeed-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       exporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1.0,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Create server with dependency injection
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	audit, err := jobs.NewScheduler(cfg.OrphanAuditSchedule, jobs.NewOrphanAudit(srv.Replies()))
	if err != nil {
		log.Fatalf("Failed to schedule orphan audit: %v", err)
	}
	audit.Start()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		audit.Stop(ctx)

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server resource shutdown error", "error", err.Error())
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("Tracing shutdown error", "error", err.Error())
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
