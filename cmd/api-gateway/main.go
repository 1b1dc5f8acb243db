package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/eco-report-api/internal/handler"
	"github.com/noah-isme/eco-report-api/internal/repository"
	"github.com/noah-isme/eco-report-api/internal/service"
	"github.com/noah-isme/eco-report-api/pkg/cache"
	"github.com/noah-isme/eco-report-api/pkg/config"
	"github.com/noah-isme/eco-report-api/pkg/database"
	"github.com/noah-isme/eco-report-api/pkg/events"
	"github.com/noah-isme/eco-report-api/pkg/logger"
	"github.com/noah-isme/eco-report-api/pkg/storage"
)

// @title EcoVive Report API
// @version 1.0.0
// @description Environmental report lifecycle, duplicate detection and reward scoring
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	var cacheSvc *service.CacheService
	if cfg.Stats.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, aggregates will not be cached", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, "eco-report", logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, true)
		}
	}

	blobs, err := storage.NewLocalBlobStore(cfg.Storage)
	if err != nil {
		logr.Fatal("failed to init blob storage", zap.Error(err))
	}

	eventSvc := service.NewEventService(newPublisher(cfg.Events, logr), service.EventServiceConfig{
		Workers:    cfg.Events.Workers,
		Retries:    cfg.Events.Retries,
		BufferSize: 256,
	}, metrics, logr)
	eventSvc.Start(ctx)
	defer eventSvc.Stop()

	validate := validator.New()
	store := repository.NewStore(db)
	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, achievementRepo, store, blobs, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(store, reportRepo, blobs, eventSvc, cacheSvc, metrics, validate, logr, service.ReportServiceConfig{
		DuplicateRadiusMeters: cfg.Duplicates.RadiusMeters,
		DuplicateLookback:     cfg.Duplicates.Lookback,
		AutoFlagDuplicates:    cfg.Duplicates.AutoFlag,
		PhotoBonus:            cfg.Scoring.PhotoBonusPoints,
	})
	statsSvc := service.NewStatsService(statsRepo, userRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	exportSvc := service.NewExportService(reportRepo, logr, nil, nil)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return cache.Ping(ctx, redisClient)
		})
	}

	r := newRouter(cfg, logr, routeDeps{
		auth:    authSvc,
		metrics: metrics,
		reports: handler.NewReportHandler(reportSvc, exportSvc, cfg.Storage.MaxFileSize),
		users:   handler.NewUserHandler(userSvc),
		authH:   handler.NewAuthHandler(authSvc, userSvc),
		stats:   handler.NewStatsHandler(statsSvc),
		catalog: handler.NewCatalogHandler(),
		files:   handler.NewFileHandler(blobs),
		health:  handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}

// newPublisher returns the broker publisher when events are enabled and
// reachable, and a log-only publisher otherwise.
func newPublisher(cfg config.EventsConfig, logr *zap.Logger) events.Publisher {
	if !cfg.Enabled {
		return events.NewLogPublisher(logr)
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, logr)
	if err != nil {
		logr.Warn("event broker unavailable, logging events instead", zap.Error(err))
		return events.NewLogPublisher(logr)
	}
	return publisher
}
