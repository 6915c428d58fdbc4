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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-site-api/api/swagger"
	"github.com/noah-isme/course-site-api/internal/handler"
	"github.com/noah-isme/course-site-api/internal/repository"
	"github.com/noah-isme/course-site-api/internal/router"
	"github.com/noah-isme/course-site-api/internal/service"
	"github.com/noah-isme/course-site-api/pkg/cache"
	"github.com/noah-isme/course-site-api/pkg/config"
	"github.com/noah-isme/course-site-api/pkg/database"
	"github.com/noah-isme/course-site-api/pkg/jobs"
	"github.com/noah-isme/course-site-api/pkg/logger"
	"github.com/noah-isme/course-site-api/pkg/storage"
)

// @title Course Site API
// @version 1.0.0
// @description Semester calendars, topic schedules, assignment dates and published course pages.
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			return err
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(client, logr)
		checks["redis"] = cache.Pinger(client)
	}
	scheduleCache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	validate := validator.New()
	semesterRepo := repository.NewSemesterRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)

	semesters := service.NewSemesterService(semesterRepo, scheduleCache, validate, logr, cfg.Site.Timezone)
	offerings := service.NewOfferingService(offeringRepo, semesterRepo, scheduleCache, metrics, validate, logr, service.OfferingServiceConfig{
		StrictAssignments: cfg.Scheduler.StrictAssignments,
		CacheTTL:          cfg.Cache.TTL,
	})
	renderer := service.NewPageRenderer(logr)
	exports := service.NewExportService(offerings, logr)
	pages, err := service.NewPageService(offerings, renderer, logr, service.PageServiceConfig{
		Grid: service.GridConfig{
			DayStart:    cfg.Site.GridDayStart,
			DayEnd:      cfg.Site.GridDayEnd,
			SlotMinutes: cfg.Site.GridSlotMinutes,
		},
		OfficeHours: cfg.Site.OfficeHours,
		OwnerName:   cfg.Owner.FullName,
	})
	if err != nil {
		return err
	}
	auth := service.NewAuthService(validate, logr, service.AuthConfig{
		OwnerEmail:        cfg.Owner.Email,
		OwnerPasswordHash: cfg.Owner.PasswordHash,
		OwnerName:         cfg.Owner.FullName,
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	siteFiles, err := storage.NewSiteStorage(cfg.Site.StorageDir)
	if err != nil {
		return err
	}
	publisher := service.NewPublishService(
		service.NewPublishStore(),
		offerings,
		renderer,
		exports,
		siteFiles,
		storage.NewSignedURLSigner(cfg.Site.SignedURLSecret, cfg.Site.SignedURLTTL),
		metrics,
		logr,
		service.PublishConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Publish.StatusTTL,
			CleanupInterval: cfg.Site.CleanupInterval,
		},
	)
	queue := jobs.NewQueue("publish", jobs.QueueConfig{
		Workers:    cfg.Publish.Workers,
		MaxRetries: cfg.Publish.MaxRetries,
		Logger:     logr,
		OnGiveUp:   publisher.GiveUp,
	})
	queue.Register(service.PublishJobType, publisher.Handle)
	publisher.SetQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()
	publisher.StartCleanup(ctx)

	engine := router.New(router.Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Semesters: handler.NewSemesterHandler(semesters),
		Offerings: handler.NewOfferingHandler(offerings),
		Pages:     handler.NewPageHandler(pages, exports),
		Publish:   handler.NewPublishHandler(publisher),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Tokens:         auth,
		Observer:       metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
