package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/config"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/history"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/logging"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/stress"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_file_size", cfg.Ingest.MaxFileSize,
		"ingest_max_concurrent", cfg.Ingest.MaxConcurrent,
		"stress_url", cfg.Stress.URL,
		"history_enabled", cfg.HistoryEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Run history is optional; without DATABASE_URL the service is
	// fully in-memory.
	var hist *history.Store
	if cfg.HistoryEnabled() {
		pool, err := connectPool(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		hist = history.NewStore(pool)
		if err := hist.CreateSchema(ctx); err != nil {
			slog.Error("failed to prepare run history schema", "error", err)
			os.Exit(1)
		}
	}

	// Synonym table: built-in defaults plus the optional overlay file.
	synonyms := schema.Synonyms
	if cfg.Ingest.SynonymOverlay != "" {
		synonyms, err = schema.LoadSynonymOverlay(cfg.Ingest.SynonymOverlay)
		if err != nil {
			slog.Error("failed to load synonym overlay",
				"path", cfg.Ingest.SynonymOverlay, "error", err)
			os.Exit(1)
		}
		slog.Info("synonym overlay loaded", "path", cfg.Ingest.SynonymOverlay)
	}

	stressClient := stress.NewClient(cfg.Stress.URL, cfg.Stress.Timeout)
	service := web.NewService(cfg, synonyms, stressClient, hist)
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectPool builds, connects and pings the history pool.
func connectPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
