package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/unidesk/registrar-api/api/swagger"
	"github.com/unidesk/registrar-api/internal/handler"
	"github.com/unidesk/registrar-api/internal/middleware"
	"github.com/unidesk/registrar-api/internal/repository"
	"github.com/unidesk/registrar-api/internal/service"
	"github.com/unidesk/registrar-api/pkg/cache"
	"github.com/unidesk/registrar-api/pkg/config"
	"github.com/unidesk/registrar-api/pkg/database"
	"github.com/unidesk/registrar-api/pkg/export"
	"github.com/unidesk/registrar-api/pkg/jobs"
	"github.com/unidesk/registrar-api/pkg/logger"
	corsmiddleware "github.com/unidesk/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unidesk/registrar-api/pkg/middleware/requestid"
)

// @title Registrar API
// @version 1.0.0
// @description Course enrollment and schedule service for the student dashboard
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
		logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
		redisClient = nil
	}

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	activitySvc := service.NewActivityService(activityRepo, jobs.QueueConfig{
		Workers:    cfg.Activity.Workers,
		BufferSize: cfg.Activity.BufferSize,
		MaxRetries: cfg.Activity.MaxRetries,
		Logger:     logr,
	}, logr)
	activitySvc.Start(context.Background())
	defer activitySvc.Stop()

	scheduleSvc := service.NewScheduleService(studentRepo, cacheRepo, metricsSvc,
		export.NewCSVExporter(), export.NewPDFExporter(), service.ScheduleOptions{
			StartHour: cfg.Schedule.GridStartHour,
			EndHour:   cfg.Schedule.GridEndHour,
			CacheTTL:  cfg.Schedule.CacheTTL,
		}, logr)

	enrollmentSvc := service.NewEnrollmentService(studentRepo, courseRepo,
		activitySvc, scheduleSvc, nil, metricsSvc, nil, logr)

	studentSvc := service.NewStudentService(studentRepo, logr)
	courseSvc := service.NewCourseService(courseRepo, studentRepo, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/students", studentHandler.List)
		protected.GET("/students/:id", studentHandler.Get)

		protected.GET("/courses", courseHandler.List)
		protected.GET("/courses/:id", courseHandler.Get)
		protected.GET("/students/:id/courses", courseHandler.ListEligible)

		protected.POST("/students/:id/enrollments", enrollmentHandler.Enroll)
		protected.GET("/students/:id/enrollments", enrollmentHandler.ListActive)
		protected.GET("/students/:id/enrollments/history", enrollmentHandler.History)
		protected.DELETE("/students/:id/enrollments/:enrollmentId", enrollmentHandler.Drop)

		protected.GET("/students/:id/schedule", scheduleHandler.Grid)
		protected.GET("/students/:id/schedule/export", scheduleHandler.Export)

		protected.GET("/activities", activityHandler.Recent)
	}

	var scheduler *cron.Cron
	if cfg.Reconcile.Enabled {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Reconcile.CronSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			adjusted, err := courseRepo.ReconcileEnrolledCounts(ctx)
			if err != nil {
				logr.Error("enrolled-counter reconciliation failed", zap.Error(err))
				return
			}
			logr.Info("enrolled counters reconciled", zap.Int64("adjusted", adjusted))
		})
		if err != nil {
			logr.Fatal("invalid reconcile cron expression", zap.String("cron", cfg.Reconcile.CronSpec), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
