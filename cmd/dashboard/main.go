package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/log-lens/internal/adapter/api"
	"github.com/V4T54L/log-lens/internal/adapter/api/handler"
	"github.com/V4T54L/log-lens/internal/adapter/api/middleware"
	"github.com/V4T54L/log-lens/internal/adapter/backend"
	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/adapter/pii"
	"github.com/V4T54L/log-lens/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/log-lens/internal/adapter/repository/redis"
	"github.com/V4T54L/log-lens/internal/adapter/repository/snapshot"
	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/V4T54L/log-lens/internal/pipeline"
	"github.com/V4T54L/log-lens/internal/pkg/config"
	"github.com/V4T54L/log-lens/internal/pkg/logger"
	"github.com/V4T54L/log-lens/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewDashboardMetrics(reg)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Backend Client ---
	backendClient := backend.NewClient(cfg.BackendURL, backend.Timeouts{
		Default: cfg.BackendTimeout,
		Long:    cfg.BackendLongTimeout,
		Train:   cfg.BackendTrainTimeout,
	}, cfg.BackendRateLimit, cfg.BackendBurst, m, logger)

	// --- Optional Stores ---
	deps := usecase.LoadDatasetDeps{
		Backend:  backendClient,
		Session:  pipeline.NewSession(logger),
		Redactor: pii.NewRedactor(cfg.ArchiveRedactFields(), logger),
		Metrics:  m,
		Logger:   logger,
	}

	var (
		reportCache    *redisrepo.ReportCache
		cacheAvailable func() bool
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		reportCache = redisrepo.NewReportCache(redisClient, cfg.ReportCacheTTL, m, logger)
		go reportCache.StartHealthCheck(ctx, 5*time.Second)
		deps.Cache = reportCache
		cacheAvailable = reportCache.Available
	} else {
		logger.Info("REDIS_URL not set, report cache disabled")
	}

	var db *sql.DB
	if cfg.PostgresURL != "" {
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		archive := postgres.NewRunArchive(db, logger)
		if err := archive.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare run archive, archiving disabled", "error", err)
		} else {
			deps.Archive = archive
		}
	} else {
		logger.Info("POSTGRES_URL not set, run archive disabled")
	}

	if cfg.SnapshotPath != "" {
		store, err := snapshot.NewFileStore(cfg.SnapshotPath, logger)
		if err != nil {
			logger.Error("failed to initialize snapshot store", "error", err)
			os.Exit(1)
		}
		deps.Snapshots = store
	}

	// --- Initialize SSE Broker ---
	sseBroker := handler.NewSSEBroker(ctx, m, logger)
	deps.Publisher = sseBroker

	// --- Initialize Use Cases ---
	loadUseCase := usecase.NewLoadDatasetUseCase(deps)
	var trainingCache domain.ReportCache
	if reportCache != nil {
		trainingCache = reportCache
	}
	trainingUseCase := usecase.NewTrainingUseCase(backendClient, trainingCache, logger)
	adminUseCase := usecase.NewBackendAdminUseCase(backendClient)
	healthMonitor := usecase.NewHealthMonitor(backendClient, logger)
	go healthMonitor.Run(ctx, cfg.HealthPollInterval)

	if err := loadUseCase.RestoreSnapshot(ctx); err != nil {
		logger.Error("failed to restore dataset snapshot", "error", err)
	}

	// --- Authentication ---
	var apiKeyRepo domain.APIKeyRepository
	staticKeys := middleware.NewStaticKeys(cfg.APIKeys())
	switch {
	case cfg.APIKeysFromDB && db != nil:
		repo := postgres.NewAPIKeyRepository(db, staticKeys, cfg.APIKeyCacheTTL, m, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare api key table", "error", err)
			os.Exit(1)
		}
		apiKeyRepo = repo
	case len(cfg.APIKeys()) > 0:
		apiKeyRepo = staticKeys
	default:
		logger.Warn("no API keys configured, dashboard API is unauthenticated")
	}

	// --- Start Admin and Metrics Server ---
	adminHandler := handler.NewAdminHandler(deps.Session, sseBroker, healthMonitor, cacheAvailable, logger)
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: api.NewAdminRouter(adminHandler, reg),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Initialize Dashboard Server ---
	router := api.NewRouter(logger, apiKeyRepo, api.Handlers{
		Dataset: handler.NewDatasetHandler(loadUseCase, logger, cfg.MaxRequestBytes),
		View:    handler.NewViewHandler(deps.Session, logger, cfg.MaxRequestBytes),
		Backend: handler.NewBackendHandler(adminUseCase, trainingUseCase, healthMonitor, logger, cfg.MaxRequestBytes),
		Events:  sseBroker,
	})
	dashboardServer := &http.Server{
		Addr:              cfg.DashboardAddr,
		Handler:           middleware.Logging(logger)(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: analysis calls run up to the backend's long timeout and /events streams indefinitely.
	}

	go func() {
		logger.Info("starting dashboard server", "addr", dashboardServer.Addr, "backend", cfg.BackendURL)
		if err := dashboardServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("dashboard server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := dashboardServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("dashboard server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
