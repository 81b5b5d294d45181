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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-adp-api/api/swagger"
	"github.com/noah-isme/academy-adp-api/internal/handler"
	internalmiddleware "github.com/noah-isme/academy-adp-api/internal/middleware"
	"github.com/noah-isme/academy-adp-api/internal/models"
	"github.com/noah-isme/academy-adp-api/internal/repository"
	"github.com/noah-isme/academy-adp-api/internal/service"
	"github.com/noah-isme/academy-adp-api/pkg/cache"
	"github.com/noah-isme/academy-adp-api/pkg/config"
	"github.com/noah-isme/academy-adp-api/pkg/database"
	"github.com/noah-isme/academy-adp-api/pkg/jobs"
	"github.com/noah-isme/academy-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-adp-api/pkg/middleware/requestid"
)

// @title Academy ADP API
// @version 1.0.0
// @description Enrollment, pricing and promotion engine for language academies
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := newCacheService(cfg, redisClient, metricsSvc, logr)

	dispatcher := service.NewNotificationDispatcher(service.NewLogNotifier(logr), jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	router, err := buildRouter(cfg, db, redisClient, cacheSvc, metricsSvc, dispatcher, logr)
	if err != nil {
		logr.Fatal("failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newCacheService(cfg *config.Config, client *redis.Client, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if client == nil {
		return service.NewCacheService(nil, metrics, cfg.Enrollment.EligibilityCacheTTL, logr, false)
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, metrics, cfg.Enrollment.EligibilityCacheTTL, logr, cfg.Enrollment.EligibilityCacheOn)
}

func buildRouter(
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	cacheSvc *service.CacheService,
	metricsSvc *service.MetricsService,
	dispatcher *service.NotificationDispatcher,
	logr *zap.Logger,
) (*gin.Engine, error) {
	defaultPrice, err := decimal.NewFromString(cfg.Enrollment.DefaultLevelPrice)
	if err != nil {
		return nil, fmt.Errorf("parse default level price: %w", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	reportCardRepo := repository.NewReportCardRepository(db)

	pool := service.NewTeacherPool(teacherRepo, cfg.Enrollment.PoolTeacherID, logr)
	resolver := service.NewStructureResolver(courseRepo, levelRepo, groupRepo, pool, db, service.StructureResolverConfig{
		DefaultLevelPrice: defaultPrice,
		MaxAttempts:       cfg.Enrollment.ResolverMaxAttempts,
	}, metricsSvc, logr)
	pricing := service.NewPricingCalculator()
	credentials := service.NewCredentialIssuer(userRepo, cfg.Enrollment.BcryptCost, logr)

	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentServiceDeps{
		Students:      studentRepo,
		Agreements:    agreementRepo,
		Courses:       courseRepo,
		Groups:        groupRepo,
		Enrollments:   enrollmentRepo,
		Resolver:      resolver,
		Prerequisites: service.NewPrerequisiteChecker(reportCardRepo),
		Pricing:       pricing,
		Credentials:   credentials,
		Tx:            db,
		Notifier:      dispatcher,
		Cache:         cacheSvc,
		Metrics:       metricsSvc,
		Validator:     validate,
		Logger:        logr,
	}, service.EnrollmentServiceConfig{RotateOnReenroll: cfg.Enrollment.RotateOnReenroll})

	eligibilitySvc := service.NewEligibilityService(courseRepo, gradeRepo, studentRepo, cacheSvc, cfg.Enrollment.EligibilityCacheTTL, logr)

	promotionSvc := service.NewPromotionService(service.PromotionServiceDeps{
		Courses:     courseRepo,
		Levels:      levelRepo,
		Groups:      groupRepo,
		Teachers:    pool,
		Students:    studentRepo,
		Agreements:  agreementRepo,
		Enrollments: enrollmentRepo,
		Pricing:     pricing,
		Tx:          db,
		Notifier:    dispatcher,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
	}, service.PromotionServiceConfig{
		GroupMonths:       cfg.Enrollment.PromotionGroupMonths,
		MaxAttempts:       cfg.Enrollment.ResolverMaxAttempts,
		DefaultLevelPrice: defaultPrice,
	})

	studentSvc := service.NewStudentService(studentRepo, userRepo, credentials, db, cacheSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, credentials, db, validate, logr)

	dependencies := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		dependencies["redis"] = handler.PingFunc(repository.NewCacheRepository(redisClient, logr).Ping)
	}

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, eligibilitySvc)
	promotionHandler := handler.NewPromotionHandler(promotionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, dependencies)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	verifier := internalmiddleware.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	api := r.Group(cfg.APIPrefix, internalmiddleware.JWT(verifier))

	staff := api.Group("", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	readers := api.Group("", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))

	readers.GET("/enrollments", enrollmentHandler.List)
	readers.GET("/enrollments/eligible-candidates", enrollmentHandler.EligibleCandidates)
	readers.GET("/enrollments/eligible-students", enrollmentHandler.EligibleStudents)
	readers.GET("/enrollments/:id", enrollmentHandler.Get)
	staff.POST("/enrollments", enrollmentHandler.Create)
	staff.PATCH("/enrollments/:id/status", enrollmentHandler.UpdateStatus)
	staff.POST("/promotions", promotionHandler.Promote)

	readers.GET("/students", studentHandler.List)
	readers.GET("/students/:id", studentHandler.Get)
	staff.POST("/students", studentHandler.Create)
	staff.DELETE("/students/:id", studentHandler.Delete)

	staff.GET("/teachers", teacherHandler.List)
	staff.POST("/teachers", teacherHandler.Create)
	staff.DELETE("/teachers/:id", teacherHandler.Delete)

	return r, nil
}
