// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/starford/pensieri/internal/api"
	"github.com/starford/pensieri/internal/editor"
	"github.com/starford/pensieri/internal/mcpserver"
	"github.com/starford/pensieri/internal/prefs"
	"github.com/starford/pensieri/internal/sse"
	"github.com/starford/pensieri/internal/storage"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/topics"
)

// services holds everything built from the configuration that both the
// HTTP server and the MCP server use.
type services struct {
	blobs     storage.Provider
	db        *prefs.DB
	prefs     *prefs.Store
	topics    *topics.Catalog
	text      *textservice.Service
	assistant *textservice.Assistant
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func buildServices(cfg *Config, logger *slog.Logger) (*services, error) {
	// Ensure the assets directory exists.
	if err := os.MkdirAll(cfg.Assets.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}
	blobs, err := storage.NewFS(cfg.Assets.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := prefs.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init prefs db: %w", err)
	}
	store, err := prefs.NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init prefs store: %w", err)
	}

	catalog := topics.Default()
	if cfg.Topics.Path != "" {
		if catalog, err = topics.Load(cfg.Topics.Path); err != nil {
			db.Close()
			return nil, fmt.Errorf("load topics: %w", err)
		}
	}

	gen := newGenerator(cfg.TextService)
	text := textservice.NewService(gen, logger)

	return &services{
		blobs:     blobs,
		db:        db,
		prefs:     store,
		topics:    catalog,
		text:      text,
		assistant: textservice.NewAssistant(text),
	}, nil
}

func newGenerator(cfg TextServiceConfig) textservice.Generator {
	switch cfg.Backend {
	case BackendOpenAI:
		opts := []textservice.OpenAIOption{textservice.WithTimeout(cfg.Timeout)}
		if cfg.Endpoint != "" {
			opts = append(opts, textservice.WithBaseURL(cfg.Endpoint))
		}
		return textservice.NewOpenAIGenerator(cfg.APIKey, cfg.Model, opts...)
	case BackendHTTP:
		return textservice.NewClient(cfg.Endpoint, cfg.Timeout)
	}
	return textservice.MockGenerator{}
}

func newLimiter(cfg TextServiceConfig) *rate.Limiter {
	if cfg.RatePerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
}

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
	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("assets_path", cfg.Assets.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("text_backend", cfg.TextService.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	// SSE broker; document changes are coalesced per session.
	broker := sse.NewBroker(250 * time.Millisecond)

	sessions := editor.NewRegistry(editor.Deps{
		Text:     svc.text,
		Topics:   svc.topics,
		Notifier: broker,
	},
		editor.WithSessionTTL(cfg.Editor.SessionTTL),
		editor.WithAutosaveDelay(cfg.Editor.AutosaveDelay),
		editor.WithLogger(logger),
	)

	apiRouter := api.NewRouter(api.Deps{
		Sessions:  sessions,
		Text:      svc.text,
		Assistant: svc.assistant,
		Topics:    svc.topics,
		Prefs:     svc.prefs,
		Blobs:     svc.blobs,
		Events:    broker,
		Limiter:   newLimiter(cfg.TextService),
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check and metrics endpoints (unauthenticated).
	api.MountHealth(r)
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Hot-reload the topic catalog and tell open editors about it.
	if cfg.Topics.Path != "" {
		g.Go(func() error {
			err := topics.Watch(gCtx, svc.topics, cfg.Topics.Path, logger, func(values []string) {
				broker.Publish(sse.Event{Type: sse.TypeTopicsReloaded, Data: map[string]any{"topics": values}})
			})
			if err != nil {
				logger.Warn("topics watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Expire idle sessions and drive the autosave indicator.
	g.Go(func() error {
		return sessions.Run(gCtx)
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Streams never finish on their own; close them before draining.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been asked to stop, so
// the background loops return too.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	svc, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	sessions := editor.NewRegistry(editor.Deps{
		Text:   svc.text,
		Topics: svc.topics,
	},
		editor.WithSessionTTL(cfg.Editor.SessionTTL),
		editor.WithAutosaveDelay(cfg.Editor.AutosaveDelay),
		editor.WithLogger(logger),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = sessions.Run(runCtx) }()

	logger.Info("MCP server starting on stdio")
	srv := mcpserver.New(sessions, svc.text, svc.topics, svc.blobs)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
