package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-portal-api/api/swagger"
	"github.com/noah-isme/timetable-portal-api/internal/handler"
	"github.com/noah-isme/timetable-portal-api/internal/ingest"
	"github.com/noah-isme/timetable-portal-api/internal/middleware"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	"github.com/noah-isme/timetable-portal-api/internal/repository"
	"github.com/noah-isme/timetable-portal-api/internal/service"
	"github.com/noah-isme/timetable-portal-api/pkg/cache"
	"github.com/noah-isme/timetable-portal-api/pkg/config"
	"github.com/noah-isme/timetable-portal-api/pkg/database"
	"github.com/noah-isme/timetable-portal-api/pkg/jobs"
	"github.com/noah-isme/timetable-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-portal-api/pkg/middleware/requestid"
)

// @title Timetable Portal API
// @version 1.0.0
// @description Timetable generation and student portal service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Portal.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Portal.TimetableCacheTTL, logr, true)
		}
	}

	rosterRepo := repository.NewRosterRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(rosterRepo, userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetable-portal",
	})
	generatorSvc := service.NewGeneratorService(rosterRepo, timetableRepo, cacheSvc, metricsSvc, validate, logr,
		service.GeneratorConfig{Workers: cfg.Engine.Workers, Deadline: cfg.Engine.Deadline},
		jobs.QueueConfig{Workers: cfg.Jobs.Workers, MaxRetries: cfg.Jobs.MaxRetries})
	timetableSvc := service.NewTimetableService(rosterRepo, timetableRepo, cacheSvc, logr, cfg.Portal.TimetableCacheTTL)
	rosterSvc := service.NewRosterService(rosterRepo, ingest.NewParser(logr), logr)
	exportSvc := service.NewExportService(timetableSvc, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	generatorSvc.StartJobs(ctx)
	defer generatorSvc.StopJobs()

	authHandler := handler.NewAuthHandler(authSvc)
	generatorHandler := handler.NewGeneratorHandler(generatorSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
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
	auth.POST("/login", authHandler.StudentLogin)
	auth.POST("/admin/login", authHandler.AdminLogin)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	adminOnly := []gin.HandlerFunc{middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin)}

	timetables := api.Group("/timetables")
	timetables.GET("/published", timetableHandler.Published)
	timetables.POST("/generate", append(adminOnly, generatorHandler.Generate)...)
	timetables.GET("/jobs/:id", append(adminOnly, generatorHandler.JobStatus)...)
	timetables.GET("", append(adminOnly, generatorHandler.List)...)
	timetables.GET("/:id", append(adminOnly, generatorHandler.Get)...)
	timetables.POST("/:id/publish", append(adminOnly, generatorHandler.Publish)...)
	timetables.DELETE("/:id", append(adminOnly, generatorHandler.Delete)...)

	roster := api.Group("/roster")
	roster.POST("/import", append(adminOnly, rosterHandler.Import)...)
	roster.GET("/summary", append(adminOnly, rosterHandler.Summary)...)

	students := api.Group("/students")
	students.GET("/me/timetable", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent), timetableHandler.MyTimetable)
	students.GET("/me/timetable/export", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent), timetableHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
