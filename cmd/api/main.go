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

	_ "github.com/tkd-core/dojo-api/api/swagger"
	"github.com/tkd-core/dojo-api/internal/handler"
	"github.com/tkd-core/dojo-api/internal/identity"
	"github.com/tkd-core/dojo-api/internal/middleware"
	"github.com/tkd-core/dojo-api/internal/repository"
	"github.com/tkd-core/dojo-api/internal/service"
	"github.com/tkd-core/dojo-api/migrations"
	"github.com/tkd-core/dojo-api/pkg/cache"
	"github.com/tkd-core/dojo-api/pkg/config"
	"github.com/tkd-core/dojo-api/pkg/database"
	"github.com/tkd-core/dojo-api/pkg/logger"
	corsmiddleware "github.com/tkd-core/dojo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tkd-core/dojo-api/pkg/middleware/requestid"
)

// @title Dojo API
// @version 1.0.0
// @description Rank ladder, promotions, class sessions and attendance for a martial-arts academy.
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

	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.AutoApply {
		if err := migrations.Up(ctx, db.DB); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	rankRepo := repository.NewRankRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	personRepo := repository.NewPersonRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	rankSvc := service.NewRankService(rankRepo, requirementRepo, cacheSvc, validate, logr)
	personSvc := service.NewPersonService(personRepo, requirementRepo, rankSvc, validate, logr)
	promotionSvc := service.NewPromotionService(promotionRepo, personRepo, rankSvc, metricsSvc,
		service.PromotionConfig{MinTimeInGrade: cfg.Promotion.MinTimeInGrade}, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, personSvc, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, personSvc, validate, logr)
	exportSvc := service.NewExportService(nil, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionSvc, personSvc, exportSvc, metricsSvc, validate, logr)

	rankHandler := handler.NewRankHandler(rankSvc)
	personHandler := handler.NewPersonHandler(personSvc, identity.ContextResolver{})
	promotionHandler := handler.NewPromotionHandler(promotionSvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}
	var prometheusHandler http.Handler
	if metricsSvc != nil {
		prometheusHandler = metricsSvc.Handler()
	}
	metricsEndpoint := handler.NewMetricsHandler(prometheusHandler, checks)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", metricsEndpoint.Health)
	r.GET("/ready", metricsEndpoint.Ready)
	r.GET("/metrics", metricsEndpoint.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	verifier := identity.NewTokenVerifier(cfg.Identity.Secret, cfg.Identity.Issuer)
	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(verifier), middleware.WithResponseMeta())
	admin := middleware.RequireRole(cfg.Identity.AdminRole)

	ranks := api.Group("/ranks")
	ranks.GET("", rankHandler.List)
	ranks.GET("/:id", rankHandler.Get)
	ranks.GET("/:id/next", rankHandler.Next)
	ranks.GET("/:id/requirements", rankHandler.Requirements)
	ranks.POST("", admin, middleware.Audit(logr, "create", "rank"), rankHandler.Create)
	ranks.DELETE("/:id", admin, middleware.Audit(logr, "delete", "rank"), rankHandler.Delete)
	ranks.POST("/:id/requirements", admin, middleware.Audit(logr, "create", "requirement"), rankHandler.CreateRequirement)

	persons := api.Group("/persons")
	persons.POST("", middleware.Audit(logr, "create", "person"), personHandler.Register)
	persons.GET("", personHandler.List)
	persons.GET("/:id", personHandler.Get)
	persons.GET("/:id/rank", personHandler.CurrentRank)
	persons.GET("/:id/requirements", personHandler.Progress)
	persons.PUT("/:id/requirements/:requirementId", middleware.Audit(logr, "update", "requirement_level"), personHandler.RecordLevel)
	persons.GET("/:id/eligibility", promotionHandler.Eligibility)
	persons.GET("/:id/promotions", promotionHandler.History)

	promotions := api.Group("/promotions")
	promotions.POST("", middleware.Audit(logr, "create", "promotion"), promotionHandler.Attempt)
	promotions.GET("/:id", promotionHandler.Get)
	promotions.PUT("/:id/decision", middleware.Audit(logr, "decide", "promotion"), promotionHandler.Decide)

	groups := api.Group("/groups")
	groups.POST("", groupHandler.Create)
	groups.GET("/:id", groupHandler.Get)
	groups.GET("/:id/members", groupHandler.Members)
	groups.POST("/:id/members", middleware.Audit(logr, "add", "group_member"), groupHandler.AddMember)
	groups.DELETE("/:id/members/:personId", middleware.Audit(logr, "remove", "group_member"), groupHandler.RemoveMember)

	sessions := api.Group("/sessions")
	sessions.POST("", sessionHandler.Create)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.GET("/:id/members", sessionHandler.Members)
	sessions.POST("/:id/attendance", attendanceHandler.Record)
	sessions.GET("/:id/attendance", attendanceHandler.List)
	sessions.GET("/:id/attendance/export", attendanceHandler.Export)
	sessions.PUT("/:id/attendance/:personId", middleware.Audit(logr, "update", "attendance"), attendanceHandler.Update)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
