// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/marlowe/inkwell/internal/api"
	"github.com/marlowe/inkwell/internal/fetch"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/jobs"
	"github.com/marlowe/inkwell/internal/llm"
	"github.com/marlowe/inkwell/internal/mcpserver"
	"github.com/marlowe/inkwell/internal/parse"
	"github.com/marlowe/inkwell/internal/sse"
	"github.com/marlowe/inkwell/internal/storage"
	"github.com/marlowe/inkwell/internal/studio"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. MCP mode logs to stderr because
	// stdout carries the protocol.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Studio.DataDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("parse_mode", cfg.Studio.ParseMode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Studio.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Initialize storage and the master CSV log.
	store, err := storage.NewFS(cfg.Studio.DataDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	csvLog := storage.NewCSVLog(filepath.Join(cfg.Studio.DataDir, storage.MasterCSV))

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial rebuild from the CSV log and transcript files.
	if err := index.Rebuild(db, csvLog, store, logger); err != nil {
		logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Model client and article fetcher.
	model := llm.New(llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		Timeout:           cfg.LLM.Timeout(),
	}, logger)
	fetcher := fetch.NewArticleFetcher(cfg.Fetch.Timeout(), logger)

	mode := parse.ModeStrict
	if cfg.Studio.ParseMode == ParseModeNotes {
		mode = parse.ModeNotes
	}
	svc := studio.NewService(store, csvLog, db, model, fetcher, broker, studio.Config{
		StyleRefPath:     cfg.Studio.StyleRefPath,
		ChannelVoicePath: cfg.Studio.ChannelVoicePath,
		Mode:             mode,
	}, logger)

	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Job store and API router.
	jobStore := jobs.NewStore()
	defer jobStore.Close()

	h := api.NewHandler(gCtx, svc, jobStore, broker)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Start file watcher: external edits to the data dir re-enter the
	// index through a rebuild.
	g.Go(func() error {
		err := index.Watch(gCtx, db, csvLog, store, cfg.Studio.DataDir, logger, func() {
			broker.Publish(sse.Event{Type: "sources.updated", Data: map[string]string{}})
		})
		if err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		broker.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
