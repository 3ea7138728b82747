package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/siap-api/api/swagger"
	"github.com/noah-isme/siap-api/internal/handler"
	"github.com/noah-isme/siap-api/internal/middleware"
	"github.com/noah-isme/siap-api/internal/repository"
	"github.com/noah-isme/siap-api/internal/router"
	"github.com/noah-isme/siap-api/internal/service"
	"github.com/noah-isme/siap-api/pkg/cache"
	"github.com/noah-isme/siap-api/pkg/config"
	"github.com/noah-isme/siap-api/pkg/database"
	"github.com/noah-isme/siap-api/pkg/logger"
	"github.com/noah-isme/siap-api/pkg/storage"
)

// @title SIAP API
// @version 1.0.0
// @description Letter archive and disposition tracking service
// @BasePath /api
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

	if cfg.IsProduction() && (cfg.JWT.Secret == "dev_secret" || cfg.SignedURL.Secret == "dev_files_secret") {
		logr.Fatal("refusing to start in production with development secrets")
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.StatsCache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics will not be cached", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.StatsCache.TTL, logr, true)
	}

	janitor := service.NewFileJanitor(files, metrics, logr, service.FileJanitorConfig{
		Workers:    cfg.Janitor.Workers,
		Retries:    cfg.Janitor.Retries,
		RetryDelay: time.Second,
	})

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	statsSvc := service.NewStatsService(service.StatsServiceParams{
		Repo:     statsRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		TTL:      cfg.StatsCache.TTL,
		Logger:   logr,
		Location: cfg.Location,
	})
	documentSvc := service.NewDocumentService(service.DocumentServiceParams{
		Repo:      documentRepo,
		Storage:   files,
		Signer:    storage.NewSignedURLSigner(cfg.SignedURL.Secret, cfg.SignedURL.TTL),
		Janitor:   janitor,
		Stats:     statsSvc,
		Audit:     userRepo,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Config: service.DocumentServiceConfig{
			MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
			APIPrefix:    cfg.APIPrefix,
			Location:     cfg.Location,
		},
	})
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Repo:      documentRepo,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Location:  cfg.Location,
	})

	readiness := []handler.Dependency{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		readiness = append(readiness, handler.Dependency{
			Name:     "redis",
			Optional: true,
			Check:    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	engine := router.New(router.Deps{
		Config:      cfg,
		Logger:      logr,
		Tokens:      authSvc,
		AuthLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Metrics:     metrics,
		Handlers: router.Handlers{
			Auth:      handler.NewAuthHandler(authSvc),
			Users:     handler.NewUserHandler(userSvc, !cfg.IsProduction()),
			Documents: handler.NewDocumentHandler(documentSvc, exportSvc, 3*cfg.Uploads.MaxFileSizeBytes+(1<<20)),
			Stats:     handler.NewStatsHandler(statsSvc),
			Files:     handler.NewFileHandler(documentSvc),
			Metrics:   handler.NewMetricsHandler(metrics, readiness...),
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitor.Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	janitor.Stop()
}
