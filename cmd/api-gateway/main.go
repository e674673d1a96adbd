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
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-billing-api/api/swagger"
	"github.com/noah-isme/academy-billing-api/internal/handler"
	"github.com/noah-isme/academy-billing-api/internal/middleware"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/repository"
	"github.com/noah-isme/academy-billing-api/internal/service"
	"github.com/noah-isme/academy-billing-api/pkg/cache"
	"github.com/noah-isme/academy-billing-api/pkg/config"
	"github.com/noah-isme/academy-billing-api/pkg/database"
	"github.com/noah-isme/academy-billing-api/pkg/jobs"
	"github.com/noah-isme/academy-billing-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-billing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-billing-api/pkg/middleware/requestid"
)

// @title Academy Billing API
// @version 1.0.0
// @description Role-based school administration with derived billing projections
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, billing caches disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	// repositories
	userRepo := repository.NewUserRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Billing.CacheTTL, logr, cfg.Billing.CacheEnabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academy-billing-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	levelSvc := service.NewLevelService(levelRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, levelRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, cacheSvc, validate, logr)
	billingSvc := service.NewBillingService(enrollmentRepo, paymentRepo, courseRepo, userRepo, cacheSvc, cfg.Billing.CacheTTL, logr)
	dashboardSvc := service.NewDashboardService(userRepo, courseRepo, enrollmentRepo, paymentRepo, metricsSvc, logr)
	exportSvc := service.NewExportService(paymentRepo, nil, nil, logr)

	queue := jobs.NewQueue("billing", func(ctx context.Context, job jobs.Job) error {
		return billingSvc.WarmPortfolioCache(ctx)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	queue.Start(context.Background())
	defer queue.Stop()

	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, courseRepo, cacheSvc, queue, validate, logr)

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	levelHandler := handler.NewLevelHandler(levelSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	billingHandler := handler.NewBillingHandler(billingSvc)
	statisticsHandler := handler.NewStatisticsHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
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
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	users := protected.Group("/users")
	{
		users.GET("", staff, userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), "SELF"), userHandler.Get)
		users.POST("", adminOnly, userHandler.Create)
		users.PUT("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	levels := protected.Group("/levels")
	{
		levels.GET("", levelHandler.List)
		levels.GET("/:id", levelHandler.Get)
		levels.POST("", adminOnly, levelHandler.Create)
		levels.PUT("/:id", adminOnly, levelHandler.Update)
		levels.DELETE("/:id", adminOnly, levelHandler.Delete)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", adminOnly, courseHandler.Create)
		courses.PUT("/:id", adminOnly, courseHandler.Update)
		courses.DELETE("/:id", adminOnly, courseHandler.Delete)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", staff, enrollmentHandler.List)
		enrollments.GET("/:id", staff, enrollmentHandler.Get)
		enrollments.POST("", staff, enrollmentHandler.Create)
		enrollments.PATCH("/:id/status", staff, enrollmentHandler.UpdateStatus)
		enrollments.PATCH("/:id/progress", staff, enrollmentHandler.UpdateProgress)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", staff, paymentHandler.List)
		payments.GET("/:id", staff, paymentHandler.Get)
		payments.POST("", staff, paymentHandler.Create)
		payments.PUT("/:id", adminOnly, paymentHandler.Update)
	}

	protected.GET("/students/:id/financials", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), "SELF"), billingHandler.StudentFinancials)
	protected.GET("/billing/portfolio", adminOnly, billingHandler.Portfolio)

	statistics := protected.Group("/statistics", adminOnly)
	{
		statistics.GET("/dashboard", statisticsHandler.Dashboard)
		statistics.GET("/revenue", statisticsHandler.Revenue)
		statistics.GET("/completion", statisticsHandler.Completion)
		statistics.GET("/system", statisticsHandler.System)
	}

	protected.GET("/export/payments", adminOnly, exportHandler.Payments)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
