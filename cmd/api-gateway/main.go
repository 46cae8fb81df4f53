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

	_ "github.com/campushq/staff-attend-api/api/swagger"
	"github.com/campushq/staff-attend-api/internal/handler"
	"github.com/campushq/staff-attend-api/internal/middleware"
	"github.com/campushq/staff-attend-api/internal/models"
	"github.com/campushq/staff-attend-api/internal/policy"
	"github.com/campushq/staff-attend-api/internal/repository"
	"github.com/campushq/staff-attend-api/internal/service"
	"github.com/campushq/staff-attend-api/pkg/cache"
	"github.com/campushq/staff-attend-api/pkg/config"
	"github.com/campushq/staff-attend-api/pkg/database"
	"github.com/campushq/staff-attend-api/pkg/logger"
	corsmiddleware "github.com/campushq/staff-attend-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/staff-attend-api/pkg/middleware/requestid"
	"github.com/campushq/staff-attend-api/pkg/storage"
)

// @title Staff Attendance API
// @version 1.0.0
// @description Staff and attendance management API for campus administration.
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	majorRepo := repository.NewMajorRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	validate := validator.New()

	auditSvc := service.NewAuditService(auditRepo, service.AuditQueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	}, logr)
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr)
	} else {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Dashboard.CacheTTL, logr)
	}

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "staff-attend-api",
	})
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)

	markingPolicy := policy.NewMarkingPolicy(service.NewUserDirectory(userRepo))
	attendanceSvc := service.NewAttendanceService(attendanceRepo, markingPolicy, auditSvc, metrics, logr)
	if store, err := storage.NewLocalStorage(cfg.Export.Dir); err != nil {
		logr.Sugar().Warnw("export archive disabled", "error", err)
	} else {
		attendanceSvc.EnableExportArchive(store, storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.TokenTTL))
	}

	departmentSvc := service.NewDepartmentService(departmentRepo, majorRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, majorRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, auditSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(userRepo, attendanceRepo, leaveRepo, cacheSvc, logr)
	attendanceSvc.SetSummaryInvalidator(dashboardSvc)
	leaveSvc.SetSummaryInvalidator(dashboardSvc)
	userSvc.SetSummaryInvalidator(dashboardSvc)

	authHandler := handler.NewAuthHandler(authSvc, logr)
	userHandler := handler.NewUserHandler(userSvc, logr)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, logr)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc, logr)
	classHandler := handler.NewClassHandler(classSvc, logr)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, logr)
	leaveHandler := handler.NewLeaveHandler(leaveSvc, logr)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metrics, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

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
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc,
		authHandler, userHandler, attendanceHandler, departmentHandler,
		classHandler, scheduleHandler, leaveHandler, dashboardHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authSvc *service.AuthService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	attendanceHandler *handler.AttendanceHandler,
	departmentHandler *handler.DepartmentHandler,
	classHandler *handler.ClassHandler,
	scheduleHandler *handler.ScheduleHandler,
	leaveHandler *handler.LeaveHandler,
	dashboardHandler *handler.DashboardHandler,
) {
	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Download links carry their own signed token, so no session middleware.
	api.GET("/attendance/export/download", attendanceHandler.Download)

	// Marking keeps the legacy body shapes, including the plain 401, so the
	// session middleware must not answer for it. Claims are attached when a
	// valid token is present and the marking rules handle the rest.
	api.POST("/attendance/mark", middleware.OptionalJWTAuth(authSvc), attendanceHandler.Mark)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(authSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.GET("/auth/me", authHandler.Me)

		adminOnly := middleware.RequireAdmin()
		adminOrHead := middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleHead))

		users := protected.Group("/users")
		{
			users.POST("", adminOnly, userHandler.Create)
			users.GET("", adminOrHead, userHandler.List)
			users.GET("/:id", middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleHead), middleware.RoleSelf), userHandler.Get)
			users.PUT("/:id", adminOnly, userHandler.Update)
			users.DELETE("/:id", adminOnly, userHandler.Delete)
		}

		attendance := protected.Group("/attendance")
		{
			attendance.GET("", adminOrHead, attendanceHandler.List)
			attendance.GET("/summary/:id", middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleHead), middleware.RoleSelf), attendanceHandler.Summary)
			attendance.GET("/report", adminOrHead, attendanceHandler.Report)
			attendance.GET("/export", adminOrHead, attendanceHandler.Export)
		}

		departments := protected.Group("/departments")
		{
			departments.POST("", adminOnly, departmentHandler.CreateDepartment)
			departments.GET("", departmentHandler.ListDepartments)
			departments.GET("/:id", departmentHandler.GetDepartment)
			departments.PUT("/:id", adminOnly, departmentHandler.UpdateDepartment)
			departments.DELETE("/:id", adminOnly, departmentHandler.DeleteDepartment)
		}

		majors := protected.Group("/majors")
		{
			majors.POST("", adminOnly, departmentHandler.CreateMajor)
			majors.GET("", departmentHandler.ListMajors)
			majors.GET("/:id", departmentHandler.GetMajor)
			majors.PUT("/:id", adminOnly, departmentHandler.UpdateMajor)
			majors.DELETE("/:id", adminOnly, departmentHandler.DeleteMajor)
		}

		classes := protected.Group("/classes")
		{
			classes.POST("", adminOnly, classHandler.Create)
			classes.GET("", classHandler.List)
			classes.GET("/:id", classHandler.Get)
			classes.PUT("/:id", adminOnly, classHandler.Update)
			classes.DELETE("/:id", adminOnly, classHandler.Delete)
		}

		schedules := protected.Group("/schedules")
		{
			schedules.POST("", adminOrHead, scheduleHandler.Create)
			schedules.POST("/bulk", adminOrHead, scheduleHandler.BulkCreate)
			schedules.GET("", scheduleHandler.List)
			schedules.GET("/:id", scheduleHandler.Get)
			schedules.PUT("/:id", adminOrHead, scheduleHandler.Update)
			schedules.DELETE("/:id", adminOrHead, scheduleHandler.Delete)
		}

		leaves := protected.Group("/leaves")
		{
			leaves.POST("", leaveHandler.Submit)
			leaves.GET("", leaveHandler.List)
			leaves.GET("/:id", leaveHandler.Get)
			leaves.POST("/:id/decide", adminOrHead, leaveHandler.Decide)
		}

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/summary", adminOrHead, dashboardHandler.Summary)
			dashboard.GET("/metrics", adminOnly, dashboardHandler.Metrics)
		}
	}
}
