package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuskit/reservation-api/api/swagger"
	"github.com/campuskit/reservation-api/internal/handler"
	appmiddleware "github.com/campuskit/reservation-api/internal/middleware"
	"github.com/campuskit/reservation-api/internal/repository"
	"github.com/campuskit/reservation-api/internal/service"
	"github.com/campuskit/reservation-api/pkg/cache"
	"github.com/campuskit/reservation-api/pkg/config"
	"github.com/campuskit/reservation-api/pkg/database"
	"github.com/campuskit/reservation-api/pkg/logger"
	corsmiddleware "github.com/campuskit/reservation-api/pkg/middleware/cors"
	ratelimitmiddleware "github.com/campuskit/reservation-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/campuskit/reservation-api/pkg/middleware/requestid"
)

// @title Campus Classroom Reservation API
// @version 1.0.0
// @description Classroom booking, occupancy ledgers and the weekly student timetable.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis is optional: the timetable view just recomputes on every
	// request when it is absent.
	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, timetable caching disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	reservationRepo := repository.NewReservationRepository(db, cfg.Booking.CrossLedgerCheck)
	usageRecordRepo := repository.NewUsageRecordRepository(db, cfg.Booking.CrossLedgerCheck)
	scheduleRepo := repository.NewScheduleRepository(db, cfg.Booking.CrossLedgerCheck)
	courseRepo := repository.NewCourseRepository(db, cfg.Booking.CrossLedgerCheck)
	classroomRepo := repository.NewClassroomRepository(db, cfg.Booking.CrossLedgerCheck)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	reservationSvc := service.NewReservationService(reservationRepo, cacheRepo, validate, logr, metricsSvc)
	usageRecordSvc := service.NewUsageRecordService(usageRecordRepo, validate, logr, metricsSvc)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheRepo, validate, logr, metricsSvc)
	courseSvc := service.NewCourseService(courseRepo, validate, logr, metricsSvc)
	classroomSvc := service.NewClassroomService(classroomRepo, cfg.Classrooms.CacheTTL, logr)
	timetableSvc := service.NewTimetableService(
		reservationRepo,
		scheduleRepo,
		classroomRepo,
		teacherRepo,
		studentRepo,
		cacheRepo,
		cfg.Semester.StartDate,
		cfg.Timetable.CacheTTL,
		logr,
		metricsSvc,
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.Metrics(metricsSvc))

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

	var writeLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		writeLimiter = ratelimitmiddleware.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Reservations: handler.NewReservationHandler(reservationSvc),
		UsageRecords: handler.NewUsageRecordHandler(usageRecordSvc),
		Schedules:    handler.NewScheduleHandler(scheduleSvc, timetableSvc),
		Courses:      handler.NewCourseHandler(courseSvc),
		Classrooms:   handler.NewClassroomHandler(classroomSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc),
	}, writeLimiter)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env,
		"cross_ledger_check", cfg.Booking.CrossLedgerCheck)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
