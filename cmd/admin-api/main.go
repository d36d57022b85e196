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
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bs-edu/bs-admin-api/api/swagger"
	"github.com/bs-edu/bs-admin-api/internal/handler"
	"github.com/bs-edu/bs-admin-api/internal/middleware"
	"github.com/bs-edu/bs-admin-api/internal/models"
	"github.com/bs-edu/bs-admin-api/internal/repository"
	"github.com/bs-edu/bs-admin-api/internal/service"
	"github.com/bs-edu/bs-admin-api/pkg/cache"
	"github.com/bs-edu/bs-admin-api/pkg/config"
	"github.com/bs-edu/bs-admin-api/pkg/database"
	"github.com/bs-edu/bs-admin-api/pkg/jobs"
	"github.com/bs-edu/bs-admin-api/pkg/logger"
	corsmiddleware "github.com/bs-edu/bs-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bs-edu/bs-admin-api/pkg/middleware/requestid"
)

// @title BS Admin API
// @version 0.1.0
// @description Admin console backend for corporate BS training operations
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	traineeRepo := repository.NewTraineeRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	reportRepo := repository.NewReportRepository(db)
	draftRepo := repository.NewDraftRepository(redisClient, cfg.Drafts.TTL, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, instructorRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, catalogRepo, scheduleRepo, cfg.Courses.DefaultMaxSeats, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, waitlistRepo, traineeRepo, courseRepo, metricsSvc, validate, logr)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, enrollmentRepo, courseRepo, metricsSvc, cfg.Waitlist.NotificationTTL, logr)
	scoreSvc := service.NewScoreService(scoreRepo, courseRepo, catalogRepo, cfg.Courses.PassThreshold, validate, logr)
	draftSvc := service.NewDraftService(draftRepo, courseSvc, instructorSvc, metricsSvc, validate, logr)
	reportSvc := service.NewReportService(reportRepo, scoreSvc, scheduleSvc, enrollmentRepo, metricsSvc, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	}, cfg.Reports.ResultTTL, validate, logr)

	// Handlers.
	courseHandler := handler.NewCourseHandler(courseSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	draftHandler := handler.NewDraftHandler(draftSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	tokenValidator := middleware.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)
	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenValidator))

	writers := middleware.RBAC(models.RoleAdmin, models.RoleOperator)

	api.GET("/system/metrics", metricsHandler.Snapshot)

	api.GET("/catalog", courseHandler.Catalog)

	courses := api.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/suggest-code", courseHandler.SuggestCode)
		courses.POST("", writers, courseHandler.Create)
		courses.GET("/:id", courseHandler.Get)
		courses.PUT("/:id", writers, courseHandler.Update)
		courses.PATCH("/:id/status", writers, courseHandler.UpdateStatus)
		courses.DELETE("/:id", writers, courseHandler.Delete)

		courses.GET("/:id/schedule", scheduleHandler.ListDays)
		courses.POST("/:id/schedule/replan", writers, scheduleHandler.Replan)
		courses.POST("/:id/schedule/reset-end-date", writers, scheduleHandler.ResetEndDate)
		courses.GET("/:id/schedule/export", scheduleHandler.ExportCSV)
		courses.POST("/:id/schedule/import", writers, scheduleHandler.ImportCSV)

		courses.GET("/:id/instructors", instructorHandler.ListByCourse)
		courses.POST("/:id/instructors", writers, instructorHandler.Create)

		courses.GET("/:id/enrollments", enrollmentHandler.List)
		courses.POST("/:id/enrollments", writers, enrollmentHandler.BulkEnroll)
		courses.GET("/:id/enrollments/summary", enrollmentHandler.Summary)
		courses.GET("/:id/enrollments/history", enrollmentHandler.History)
		courses.GET("/:id/trainee-search", enrollmentHandler.SearchTrainees)

		courses.GET("/:id/waitlist", waitlistHandler.ListByCourse)
		courses.POST("/:id/waitlist/process", writers, waitlistHandler.ProcessAll)

		courses.GET("/:id/scores", scoreHandler.ListByCourse)
		courses.POST("/:id/scores", writers, scoreHandler.BulkUpsert)
		courses.PUT("/:id/scores/:round", writers, scoreHandler.Upsert)
		courses.GET("/:id/scores/export", scoreHandler.Export)
		courses.GET("/:id/score-weights", scoreHandler.Weights)
		courses.PUT("/:id/score-weights", writers, scoreHandler.SaveWeights)
	}

	api.POST("/schedule-days/:dayId/sessions", writers, scheduleHandler.AddSubSession)
	api.PUT("/schedule-sessions/:sessionId", writers, scheduleHandler.UpdateSubSession)
	api.DELETE("/schedule-sessions/:sessionId", writers, scheduleHandler.RemoveSubSession)

	api.PUT("/instructors/:instructorId", writers, instructorHandler.Update)
	api.DELETE("/instructors/:instructorId", writers, instructorHandler.Delete)

	enrollments := api.Group("/enrollments")
	{
		enrollments.DELETE("/:enrollmentId", writers, enrollmentHandler.Unenroll)
		enrollments.POST("/bulk-delete", writers, enrollmentHandler.BulkUnenroll)
		enrollments.POST("/:enrollmentId/complete", writers, enrollmentHandler.Complete)
	}

	waitlist := api.Group("/waitlist")
	{
		waitlist.POST("/:entryId/promote", writers, waitlistHandler.Promote)
		waitlist.PATCH("/:entryId/position", writers, waitlistHandler.Reorder)
		waitlist.POST("/:entryId/notify", writers, waitlistHandler.Notify)
		waitlist.DELETE("/:entryId", writers, waitlistHandler.Remove)
	}

	drafts := api.Group("/drafts", writers)
	{
		drafts.POST("", draftHandler.Start)
		drafts.GET("/:draftId", draftHandler.Get)
		drafts.PATCH("/:draftId", draftHandler.UpdateStep)
		drafts.POST("/:draftId/next", draftHandler.Next)
		drafts.POST("/:draftId/prev", draftHandler.Prev)
		drafts.POST("/:draftId/submit", draftHandler.Submit)
		drafts.DELETE("/:draftId", draftHandler.Cancel)
	}

	reports := api.Group("/reports")
	{
		reports.POST("", writers, reportHandler.Create)
		reports.GET("/:jobId", reportHandler.Status)
		reports.GET("/:jobId/download", reportHandler.Download)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reports.Enabled {
		reportSvc.StartWorkers(ctx)
		defer reportSvc.StopWorkers()
	}

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Waitlist.SweepSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if expired, err := waitlistSvc.ExpireStale(sweepCtx); err != nil {
			logr.Sugar().Errorw("waitlist sweep failed", "error", err)
		} else if expired > 0 {
			logr.Sugar().Infow("waitlist sweep expired entries", "count", expired)
		}

		if purged, err := reportSvc.PurgeExpired(sweepCtx); err != nil {
			logr.Sugar().Errorw("report purge failed", "error", err)
		} else if purged > 0 {
			logr.Sugar().Infow("purged finished reports", "count", purged)
		}
	}); err != nil {
		logr.Sugar().Fatalw("invalid sweep schedule", "schedule", cfg.Waitlist.SweepSchedule, "error", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
