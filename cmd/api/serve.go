package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pkordes/formflow/internal/config"
	"github.com/pkordes/formflow/internal/flash"
	"github.com/pkordes/formflow/internal/handler"
	"github.com/pkordes/formflow/internal/i18n"
	"github.com/pkordes/formflow/internal/middleware"
	"github.com/pkordes/formflow/internal/repo"
	"github.com/pkordes/formflow/internal/route"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	if cfg.MigrateOnStart {
		if err := withProvider(ctx, cfg.DatabaseURL, func(p *goose.Provider) error {
			return migrateUp(ctx, p, logger)
		}); err != nil {
			logger.Error("migrations failed", "error", err)
			return err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	logger.Info("database connection established")

	// --- Flash store ------------------------------------------------------
	store, closeStore, err := newFlashStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up flash store", "error", err)
		return err
	}
	defer closeStore()

	// --- Translations -----------------------------------------------------
	catalog, err := i18n.Load(i18n.Embedded(), cfg.DefaultLocale.String())
	if err != nil {
		logger.Error("failed to load translations", "error", err)
		return err
	}

	srv := handler.NewServer(handler.Deps{
		Units:   func() handler.Unit { return repo.NewManager(pool, logger) },
		Trips:   repo.NewTripRepo(pool),
		Stops:   repo.NewStopRepo(pool),
		Catalog: catalog,
		Routes:  route.NewRegistry(),
		Log:     logger,
	})

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, logger, srv, catalog, store),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr, "routes", srv.Routes().Names())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// In-flight requests get up to 15 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newRouter assembles the middleware stack around srv. Order matters:
// RequestID → RealIP → SlogLogger → Recoverer → CORS → body limit →
// method override → locale → flash session → routes.
func newRouter(cfg config.Config, logger *slog.Logger, srv *handler.Server, catalog *i18n.Catalog, store flash.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.MethodOverride)
	r.Use(i18n.Middleware(catalog))
	r.Use(flash.Middleware(store, flash.CookieOptions{Name: cfg.SessionCookie, Secure: cfg.CookieSecure}, logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(handler.ErrorResponse{Error: handler.ErrorDetail{
			Code: "not_found", Message: "no such route",
		}})
	})

	srv.Mount(r)
	return r
}

// newFlashStore returns a Redis store when REDIS_URL is set and an
// in-memory store otherwise.
func newFlashStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (flash.Store, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; flash messages are kept in memory")
		return flash.NewMemoryStore(cfg.FlashTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis flash store connected", "addr", opts.Addr)
	return flash.NewRedisStore(client, cfg.FlashTTL), func() { client.Close() }, nil
}
