package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dosada05/x1-arena/brackets"
	"github.com/Dosada05/x1-arena/config"
	"github.com/Dosada05/x1-arena/db"
	"github.com/Dosada05/x1-arena/handlers"
	"github.com/Dosada05/x1-arena/middleware"
	"github.com/Dosada05/x1-arena/repositories"
	api "github.com/Dosada05/x1-arena/routes"
	"github.com/Dosada05/x1-arena/services"
	"github.com/Dosada05/x1-arena/storage"
)

const (
	dbPingTimeout   = 5 * time.Second
	dbMaxWait       = time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("remote_sync", cfg.R2 != nil),
		slog.Duration("sync_timeout", cfg.SyncTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.ConnectWithRetry(ctx, logger, cfg.DatabaseURL, dbPingTimeout, dbMaxWait)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	stateRepo := repositories.NewPostgresStateRepository(dbConn)
	if err := stateRepo.EnsureSchema(ctx); err != nil {
		return err
	}

	var syncer services.SnapshotSyncer
	if cfg.R2 != nil {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, *cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		syncer = services.NewSnapshotSyncer(uploader, logger)
		logger.Info("Cloudflare R2 snapshot sync enabled", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Warn("R2 is not configured, remote snapshot sync disabled")
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(hubCtx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	tournamentService := services.NewTournamentService(stateRepo, syncer, wsHub, metrics, cfg.SyncTimeout, logger)
	authService := services.NewAuthService(stateRepo, cfg.AdminPasswordHash, cfg.JWTSecretKey, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Player:     handlers.NewPlayerHandler(tournamentService),
		Match:      handlers.NewMatchHandler(tournamentService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Tokens:         authService,
		LoginLimiter:   middleware.NewLoginRateLimiter(),
		Metrics:        registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
	}
	stopHub()

	if err := tournamentService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("pending snapshot syncs did not finish", slog.Any("error", err))
	}
	logger.Info("server shutdown complete")
	return nil
}
