package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/studystack/studystack-api/api/swagger"
	"github.com/studystack/studystack-api/internal/handler"
	"github.com/studystack/studystack-api/internal/middleware"
	"github.com/studystack/studystack-api/internal/repository"
	"github.com/studystack/studystack-api/internal/service"
	"github.com/studystack/studystack-api/pkg/cache"
	"github.com/studystack/studystack-api/pkg/config"
	"github.com/studystack/studystack-api/pkg/database"
	"github.com/studystack/studystack-api/pkg/logger"
	corsmiddleware "github.com/studystack/studystack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studystack/studystack-api/pkg/middleware/requestid"
	"github.com/studystack/studystack-api/pkg/storage"
)

// @title StudyStack API
// @version 0.1.0
// @description Student resource sharing: browse, contribute and moderate PDF study materials
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// A missing database degrades the read paths to fallback data and makes
	// writes fail loudly; it must not keep the server from starting.
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Warn("postgres unavailable, starting degraded", zap.Error(err))
		db = nil
	}
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, snapshot cache disabled", zap.Error(err))
		redisClient = nil
	}

	blobStore, err := storage.NewLocalStorage(cfg.Storage.UploadsDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.SnapshotTTL, logr, redisClient != nil)

	resourceRepo := repository.NewResourceRepository(db)
	userRepo := repository.NewUserRepository(db)

	catalogSvc := service.NewCatalogService(resourceRepo, blobStore, signer, cacheSvc, metricsSvc, validate, logr, service.CatalogServiceConfig{
		MaxSemester:     cfg.Catalog.MaxSemester,
		SnapshotTTL:     cfg.Catalog.SnapshotTTL,
		PollInterval:    cfg.Catalog.PollInterval,
		FallbackEnabled: cfg.Catalog.FallbackEnabled,
		APIPrefix:       cfg.APIPrefix,
		MaxFileSize:     cfg.Storage.MaxFileSizeBytes,
	})
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "studystack-api",
	})
	moderationSvc := service.NewModerationService(resourceRepo, userRepo, catalogSvc, logr)
	exportSvc := service.NewExportService(catalogSvc, userRepo, logr)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	moderationHandler := handler.NewModerationHandler(catalogSvc, moderationSvc, exportSvc)
	authHandler := handler.NewAuthHandler(authSvc)

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
		status := gin.H{
			"database": db != nil,
			"cache":    redisClient != nil,
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "components": status})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/files", blobStore.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/resources/:type", catalogHandler.List)
		api.GET("/resources/:type/subjects", catalogHandler.Subjects)
		api.GET("/resources/:type/live", catalogHandler.Live)
		api.POST("/resources", catalogHandler.Submit)
		api.GET("/downloads/:id", catalogHandler.Download)

		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)

		authenticated := api.Group("", middleware.JWT(authSvc))
		{
			authenticated.POST("/auth/logout", authHandler.Logout)
			authenticated.GET("/auth/me", authHandler.Me)

			authenticated.GET("/moderation/resources", moderationHandler.Pending)
			authenticated.POST("/moderation/resources/:id/approve", moderationHandler.Approve)
			authenticated.POST("/moderation/resources/:id/reject", moderationHandler.Reject)
			authenticated.GET("/moderation/resources/:id/download-url", moderationHandler.DownloadURL)
			authenticated.GET("/moderation/export/:type", moderationHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
