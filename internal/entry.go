// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/neuralnotes/internal/api"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/sse"
	"github.com/starford/neuralnotes/internal/storage"
)

// Version is reported by the CLI and the MCP server. Overridden at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or the server fails.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("auto_resolve", cfg.Links.AutoResolve),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := app.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := app.newService(db, broker)

	apiRouter := api.NewRouter(svc, api.Options{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		Events:         broker,
		MaxUploadBytes: cfg.Import.MaxUploadBytes(),
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRootRouter(svc, apiRouter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Mirror.Enabled() {
		folder, err := storage.NewFS(cfg.Mirror.Path)
		if err != nil {
			return fmt.Errorf("init mirror folder: %w", err)
		}
		if _, err := svc.GetVault(ctx, cfg.Mirror.VaultID); err != nil {
			return fmt.Errorf("mirror vault %q: %w", cfg.Mirror.VaultID, err)
		}
		vaultID := cfg.Mirror.VaultID
		g.Go(func() error {
			return importer.Mirror(gCtx, db, vaultID, folder, logger, func(importer.SyncReport) {
				broker.PublishVaultEvent(sse.KindImported, vaultID)
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newRootRouter mounts the API under /api next to the unauthenticated health
// endpoints.
func newRootRouter(svc *noteservice.Service, apiRouter http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.ListVaults(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", apiRouter)
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
