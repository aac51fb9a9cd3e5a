package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/answer-key-service/internal/cache"
	"github.com/SAP-F-2025/answer-key-service/internal/config"
	"github.com/SAP-F-2025/answer-key-service/internal/events"
	"github.com/SAP-F-2025/answer-key-service/internal/handlers"
	"github.com/SAP-F-2025/answer-key-service/internal/remote"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/answer-key-service/internal/review"
	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
	"github.com/SAP-F-2025/answer-key-service/internal/validator"
	"github.com/SAP-F-2025/answer-key-service/pkg"
)

const (
	shutdownTimeout      = 10 * time.Second
	sessionSweepInterval = time.Minute
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)
	slog.SetDefault(slogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, cleanup, err := buildBackends(ctx, cfg, slogger)
	if err != nil {
		logger.LogError(err, "Failed to initialize backend", "backend", cfg.AnswerKeyBackend)
		os.Exit(1)
	}
	defer cleanup()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher, falling back to log-only publisher")
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "Failed to close event publisher")
		}
	}()

	if !utils.RegisterGinValidators() {
		logger.Warn("Gin validator engine is not go-playground; custom binding tags are inactive")
	}

	registry := review.NewRegistry(backends.AnswerKeys, review.WithIdleTimeout(cfg.ReviewSessionTTL))
	go registry.RunJanitor(ctx, sessionSweepInterval, func(s *review.Session) {
		logger.Info("Review session expired", "session_id", s.ID, "paper_id", s.PaperID)
	})

	serviceManager := services.NewServiceManager(backends, registry, publisher, slogger, validator.New())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "backend", cfg.AnswerKeyBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Graceful shutdown failed")
	}
}

// buildBackends picks the configured store and puts the redis read-through
// cache in front of it when redis is reachable.
func buildBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Backends, func(), error) {
	var (
		answerKeys repositories.AnswerKeyBackend
		outcomes   repositories.OutcomeBackend
		importer   repositories.AnswerKeyImporter
	)
	cleanups := []func(){}

	switch cfg.AnswerKeyBackend {
	case config.BackendRemote:
		client := remote.NewClient(cfg.RemoteAPIURL, logger,
			remote.WithToken(cfg.RemoteAPIToken),
			remote.WithTimeout(cfg.RemoteAPITimeout),
		)
		answerKeys = client
		outcomes = client
	default:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return services.Backends{}, nil, err
		}
		if err := pkg.AutoMigrate(db); err != nil {
			return services.Backends{}, nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			cleanups = append(cleanups, func() { sqlDB.Close() })
		}
		store := postgres.NewAnswerKeyPostgreSQL(db)
		answerKeys = store
		importer = store
		outcomes = postgres.NewOutcomeMappingPostgreSQL(db)
	}

	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, serving without cache", "error", err)
	} else {
		cleanups = append(cleanups, func() { client.Close() })
		answerKeys, outcomes, importer = withCache(client, cfg, logger, answerKeys, outcomes, importer)
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return services.Backends{
		AnswerKeys:  answerKeys,
		Importer:    importer,
		Outcomes:    outcomes,
		OutcomeSink: outcomes,
	}, cleanup, nil
}

func withCache(
	client *redis.Client,
	cfg *config.Config,
	logger *slog.Logger,
	answerKeys repositories.AnswerKeyBackend,
	outcomes repositories.OutcomeBackend,
	importer repositories.AnswerKeyImporter,
) (repositories.AnswerKeyBackend, repositories.OutcomeBackend, repositories.AnswerKeyImporter) {
	caches := cache.NewCacheManager(client, logger)

	cachedKeys := cache.NewCachedAnswerKeySource(answerKeys, caches.Fast, cfg.CacheTTL, logger)
	cachedOutcomes := cache.NewCachedOutcomeSource(outcomes, caches.Matrix, cache.MatrixCacheConfig.TTL, logger)

	// Imports must go through the cache so the paper entry is dropped.
	if importer != nil {
		importer = cachedKeys
	}
	return cachedKeys, cachedOutcomes, importer
}
