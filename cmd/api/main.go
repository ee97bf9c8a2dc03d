package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timesheet-ai/internal/app"
	"timesheet-ai/internal/config"
	"timesheet-ai/internal/handlers"
	"timesheet-ai/internal/http"
	"timesheet-ai/internal/service"
	"timesheet-ai/internal/storage"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath, "ephemeral", storage.IsMemory(cfg.DBPath))

	// Create repository instances
	sessionRepo := storage.NewSessionRepo(db)
	chunkLogRepo := storage.NewChunkLogRepo(db)

	// Build the processing backend (LLM or offline, optional activity memory)
	backend, err := app.NewBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to configure processing backend: %v", err)
	}
	defer func() {
		_ = backend.Close()
	}()

	sessionService := service.NewSessionService(sessionRepo, chunkLogRepo, backend.Processor)

	var collections handlers.CollectionChecker
	if backend.Store != nil {
		collections = backend.Store
	}

	// Create router with dependencies
	deps := &http.Deps{
		SessionService:  sessionService,
		DefaultSettings: cfg.Settings,
		DB:              db,
		VectorStore:     collections,
		CollectionName:  cfg.QdrantCollection,
		Mode:            backend.Processor.Mode(),
	}
	router := http.NewRouter(deps)

	// Expire idle sessions in the background
	go runJanitor(ctx, sessionService, cfg.SessionTTL)

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	// Start API server
	slog.Info("Starting API server", "addr", server.Addr, "mode", deps.Mode)
	slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}

// runJanitor removes sessions idle for longer than ttl until ctx is done.
func runJanitor(ctx context.Context, sessions service.SessionService, ttl time.Duration) {
	interval := min(max(ttl/4, time.Minute), time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sessions.Cleanup(ctx, ttl); err != nil {
				slog.Warn("Session cleanup failed", "error", err)
			}
		}
	}
}
