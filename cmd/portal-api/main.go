package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/eduvault/eduvault-api/api/swagger"
	"github.com/eduvault/eduvault-api/internal/handler"
	"github.com/eduvault/eduvault-api/internal/middleware"
	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/repository"
	"github.com/eduvault/eduvault-api/internal/service"
	"github.com/eduvault/eduvault-api/pkg/cache"
	"github.com/eduvault/eduvault-api/pkg/config"
	"github.com/eduvault/eduvault-api/pkg/database"
	"github.com/eduvault/eduvault-api/pkg/logger"
	corsmiddleware "github.com/eduvault/eduvault-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eduvault/eduvault-api/pkg/middleware/requestid"
	"github.com/eduvault/eduvault-api/pkg/storage"
)

// @title EduVault Portal API
// @version 1.0.0
// @description Authenticated content portal: subjects, chapters, PDF notes and video links gated by admin-granted access
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.CatalogCache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.CatalogCache.TTL, logr, true)
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	uploadSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	accessGate := service.NewAccessGate(userRepo, logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "eduvault-api",
	})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	catalogSvc := service.NewCatalogService(subjectRepo, chapterRepo, noteRepo, videoRepo, cacheSvc, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, auditRepo, catalogSvc, validate, logr)
	chapterSvc := service.NewChapterService(chapterRepo, subjectRepo, auditRepo, catalogSvc, validate, logr)
	noteSvc := service.NewNoteService(noteRepo, chapterRepo, uploadStore, uploadSigner, auditRepo, catalogSvc, validate, logr, service.NoteServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})
	videoSvc := service.NewVideoService(videoRepo, chapterRepo, auditRepo, catalogSvc, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(catalogSvc, exportStore, exportSigner, auditRepo, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
		}, logr, nil, nil)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var maintenanceSvc *service.MaintenanceService
	if cfg.Maintenance.Enabled {
		maintenanceSvc = service.NewMaintenanceService(noteRepo, uploadStore, auditRepo, logr, service.MaintenanceConfig{
			Workers:    1,
			MaxRetries: cfg.Maintenance.MaxRetries,
			RetryDelay: time.Second,
			ResultTTL:  cfg.Maintenance.ResultTTL,
		})
		maintenanceSvc.Start(rootCtx)
		defer maintenanceSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	chapterHandler := handler.NewChapterHandler(chapterSvc)
	noteHandler := handler.NewNoteHandler(noteSvc)
	videoHandler := handler.NewVideoHandler(videoSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)

	// Content reads require the access flag, checked against the DB on
	// every request so revocation bites immediately.
	read := api.Group("")
	read.Use(middleware.JWT(authSvc), middleware.RequireCapability(accessGate, models.CapabilityReadContent))
	read.GET("/catalog", catalogHandler.Tree)
	read.GET("/subjects", subjectHandler.List)
	read.GET("/subjects/:id", subjectHandler.Get)
	read.GET("/subjects/:id/chapters", chapterHandler.ListForSubject)
	read.GET("/chapters/:id", chapterHandler.Get)
	read.GET("/chapters/:id/notes", noteHandler.ListForChapter)
	read.GET("/chapters/:id/videos", videoHandler.ListForChapter)
	read.GET("/notes/:id", noteHandler.Get)
	read.GET("/notes/:id/download", noteHandler.Download)
	read.GET("/videos/:id", videoHandler.Get)

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(authSvc))

	manageUsers := admin.Group("")
	manageUsers.Use(middleware.RequireCapability(accessGate, models.CapabilityManageUsers))
	manageUsers.GET("/users", userHandler.List)
	manageUsers.GET("/users/:id", userHandler.Get)
	manageUsers.POST("/users/:id/access", userHandler.GrantAccess)
	manageUsers.DELETE("/users/:id/access", userHandler.RevokeAccess)
	manageUsers.PUT("/users/:id/role", userHandler.SetAdmin)

	writeContent := admin.Group("")
	writeContent.Use(middleware.RequireCapability(accessGate, models.CapabilityWriteContent))
	writeContent.POST("/subjects", subjectHandler.Create)
	writeContent.DELETE("/subjects/:id", subjectHandler.Delete)
	writeContent.POST("/chapters", chapterHandler.Create)
	writeContent.DELETE("/chapters/:id", chapterHandler.Delete)
	writeContent.POST("/notes", noteHandler.Upload)
	writeContent.DELETE("/notes/:id", noteHandler.Delete)
	writeContent.POST("/videos", videoHandler.Create)
	writeContent.DELETE("/videos/:id", videoHandler.Delete)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		writeContent.POST("/exports", exportHandler.Generate)
		writeContent.GET("/exports/download", exportHandler.Download)
	}

	if maintenanceSvc != nil {
		maintenanceHandler := handler.NewMaintenanceHandler(maintenanceSvc)
		manageUsers.POST("/maintenance/orphan-scans", maintenanceHandler.StartScan)
		manageUsers.GET("/maintenance/orphan-scans/:id", maintenanceHandler.GetScan)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
