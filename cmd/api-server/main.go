package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fluencyfusion/marketplace-api/api/swagger"
	"github.com/fluencyfusion/marketplace-api/internal/handler"
	"github.com/fluencyfusion/marketplace-api/internal/middleware"
	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/repository"
	"github.com/fluencyfusion/marketplace-api/internal/service"
	"github.com/fluencyfusion/marketplace-api/pkg/cache"
	"github.com/fluencyfusion/marketplace-api/pkg/config"
	"github.com/fluencyfusion/marketplace-api/pkg/database"
	"github.com/fluencyfusion/marketplace-api/pkg/export"
	"github.com/fluencyfusion/marketplace-api/pkg/logger"
	corsmiddleware "github.com/fluencyfusion/marketplace-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fluencyfusion/marketplace-api/pkg/middleware/requestid"
	"github.com/fluencyfusion/marketplace-api/pkg/payments"
)

// @title Fluency Fusion Marketplace API
// @version 1.0.0
// @description Course marketplace backend: accounts, roles, listings, enrollment and checkout
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, validate, logr)

	pdfExporter := export.NewPDFExporter()
	var paymentSvc *service.PaymentService
	if cfg.Stripe.SecretKey != "" {
		stripeClient, err := payments.NewStripe(cfg.Stripe.SecretKey)
		if err != nil {
			logr.Sugar().Fatalw("failed to init stripe client", "error", err)
		}
		paymentSvc = service.NewPaymentService(paymentRepo, stripeClient, pdfExporter, metricsSvc, validate, logr)
	} else {
		logr.Sugar().Warnw("stripe secret key not set, payment intents disabled")
		paymentSvc = service.NewPaymentService(paymentRepo, nil, pdfExporter, metricsSvc, validate, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Scrape)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authed := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRole(userSvc, models.RoleAdmin)
	instructorOnly := middleware.RequireRole(userSvc, models.RoleInstructor)

	r.POST("/jwt", authHandler.IssueToken)

	r.POST("/users", userHandler.Register)
	r.GET("/users", authed, adminOnly, userHandler.List)
	r.DELETE("/users/:id", authed, adminOnly, userHandler.Delete)
	r.PATCH("/users/admin/:id", authed, adminOnly, userHandler.PromoteAdmin)
	r.PATCH("/users/instructor/:id", authed, adminOnly, userHandler.PromoteInstructor)
	r.GET("/users/admin/:email", authed, userHandler.CheckAdmin)
	r.GET("/users/instructor/:email", authed, userHandler.CheckInstructor)

	r.GET("/courses", courseHandler.Catalog)
	r.GET("/courses/all", authed, adminOnly, courseHandler.ListAll)
	r.GET("/coursesByEmail", authed, instructorOnly, courseHandler.ListByInstructor)
	r.POST("/courses", authed, instructorOnly, courseHandler.Submit)
	r.PATCH("/courses/:id", authed, instructorOnly, courseHandler.Patch)
	r.PATCH("/courses/feedback/:id", authed, adminOnly, courseHandler.SetFeedback)
	r.PATCH("/courses/approve/:id", authed, adminOnly, courseHandler.Approve)
	r.PATCH("/courses/denied/:id", authed, adminOnly, courseHandler.Deny)

	r.GET("/enrolled", authed, enrollmentHandler.List)
	r.POST("/enrolled", authed, enrollmentHandler.Enroll)
	r.DELETE("/enrolled/:id", authed, enrollmentHandler.Remove)

	r.POST("/create-payment-intent", authed, paymentHandler.CreateIntent)
	r.POST("/payments", authed, paymentHandler.Checkout)
	r.GET("/payments/:id/receipt", authed, paymentHandler.Receipt)
	r.GET("/purchased", authed, paymentHandler.Purchases)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
