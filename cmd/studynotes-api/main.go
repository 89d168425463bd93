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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/studynotes-api/api/swagger"
	"github.com/noah-isme/studynotes-api/internal/handler"
	"github.com/noah-isme/studynotes-api/internal/middleware"
	"github.com/noah-isme/studynotes-api/internal/models"
	"github.com/noah-isme/studynotes-api/internal/repository"
	"github.com/noah-isme/studynotes-api/internal/service"
	"github.com/noah-isme/studynotes-api/pkg/cache"
	"github.com/noah-isme/studynotes-api/pkg/config"
	"github.com/noah-isme/studynotes-api/pkg/database"
	"github.com/noah-isme/studynotes-api/pkg/inference"
	"github.com/noah-isme/studynotes-api/pkg/jobs"
	"github.com/noah-isme/studynotes-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/studynotes-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studynotes-api/pkg/middleware/requestid"
	"github.com/noah-isme/studynotes-api/pkg/storage"
)

// @title Study Notes API
// @version 1.0.0
// @description Student notes with chapter-scoped chat over uploaded files
// @BasePath /api
// @schemes http

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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := newCacheService(ctx, cfg, metricsSvc, logr)

	gate := storage.NewGate()
	dial, err := storage.Dialer(cfg.Blob)
	if err != nil {
		return err
	}
	go func() {
		if err := storage.Connect(ctx, gate, dial, cfg.Blob.ConnectRetry, logr); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("blob store connector stopped", zap.Error(err))
		}
	}()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	fileRepo := repository.NewFileRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	reconcileSvc := service.NewReconcileService(fileRepo, chapterRepo, studentRepo, gate, cacheSvc, metricsSvc, logr, cfg.Reconcile.Grace)
	queue := jobs.NewQueue("reconcile", reconcileSvc.Handlers().Handle, jobs.QueueConfig{
		Workers:    cfg.Reconcile.Workers,
		MaxRetries: cfg.Reconcile.Retries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	reconcileSvc.UseQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()
	if cfg.Reconcile.Enabled {
		go runSweeps(ctx, reconcileSvc, cfg.Reconcile.Interval, logr)
	}

	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(studentRepo, courseRepo, chapterRepo, studentSvc, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, chapterRepo, studentRepo, nil, logr)
	chapterSvc := service.NewChapterService(chapterRepo, courseRepo, nil, logr)
	fileSvc := service.NewFileService(fileRepo, chapterRepo, studentRepo, studentSvc, gate,
		storage.NewSignedURLSigner(cfg.Files.SignedURLSecret, cfg.Files.SignedURLTTL),
		reconcileSvc, cacheSvc, metricsSvc, nil, logr,
		service.FileServiceConfig{MaxFileSize: cfg.Upload.MaxFileSizeBytes, APIPrefix: cfg.APIPrefix, CacheTTL: cfg.Files.CacheTTL})
	conversationSvc := service.NewConversationService(conversationRepo, chapterRepo,
		inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.Timeout), metricsSvc, logr,
		service.ConversationServiceConfig{InferenceTimeout: cfg.Inference.Timeout, Policy: models.FirstUploaded})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, gate)
	handler.RegisterProbes(r, metricsHandler)
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Students:      handler.NewStudentHandler(studentSvc, enrollmentSvc, fileSvc),
		Courses:       handler.NewCourseHandler(courseSvc, chapterSvc),
		Files:         handler.NewFileHandler(fileSvc),
		Conversations: handler.NewConversationHandler(conversationSvc),
		Metrics:       metricsHandler,

		MaxUploadBytes: cfg.Upload.MaxFileSizeBytes,
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("blob_backend", cfg.Blob.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	if err := gate.Close(shutdownCtx); err != nil {
		logr.Warn("blob store close failed", zap.Error(err))
	}
	return nil
}

// newCacheService returns a disabled cache when caching is off or Redis is
// unreachable; the file directory then always reads the database.
func newCacheService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Files.CacheEnabled {
		return service.NewCacheService(nil, metrics, cfg.Files.CacheTTL, logr, false)
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, file cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.Files.CacheTTL, logr, false)
	}
	return service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Files.CacheTTL, logr, true)
}

func runSweeps(ctx context.Context, reconcile *service.ReconcileService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		logr.Warn("reconcile sweeps disabled, interval must be positive", zap.Duration("interval", interval))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := reconcile.TriggerSweep(); err != nil {
				logr.Warn("reconcile sweep not queued", zap.Error(err))
			}
		}
	}
}
