package router

import (
	"cropcare/internal/handlers"
	"cropcare/internal/middleware"
	"cropcare/internal/services"
	"cropcare/pkg/config"
	"cropcare/pkg/jwt"
	"cropcare/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Options 路由依赖
type Options struct {
	DB         *gorm.DB
	Config     *config.Config
	JWTManager *jwt.JWTManager
	Limiter    *ratelimit.Limiter // 为空时不限流
}

// SetupRouter 设置路由
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(opts.Config.CORS))
	if opts.Config.Metrics.Enabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	registerRoutes(router, opts)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, opts Options) {
	svcOpts := services.OptionsFromConfig(opts.Config)

	redemptionService := services.NewRedemptionService(opts.DB, svcOpts)
	invitationService := services.NewInvitationService(opts.DB, svcOpts)
	membershipService := services.NewMembershipService(opts.DB, redemptionService)
	userService := services.NewUserService(opts.DB, opts.JWTManager)
	tenantService := services.NewTenantService(opts.DB)
	zoneService := services.NewZoneService(opts.DB)
	cropService := services.NewCropService(opts.DB, zoneService)
	assignmentService := services.NewAssignmentService(opts.DB)

	auth := middleware.NewAuthMiddleware(userService, membershipService, opts.JWTManager)
	limit := middleware.RateLimit(opts.Limiter)

	api := router.Group("/api/v1")
	{
		systemHandler := handlers.NewSystemHandler(opts.DB)
		api.GET("/health", systemHandler.Health)
		api.GET("/ping", systemHandler.Ping)

		authHandler := handlers.NewAuthHandler(userService, membershipService, opts.JWTManager)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register/admin", authHandler.RegisterAdmin)
			authGroup.POST("/register/worker", limit, authHandler.RegisterWorker)
			authGroup.POST("/register/individual", authHandler.RegisterIndividual)
			authGroup.POST("/login", limit, authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		invitationHandler := handlers.NewInvitationHandler(invitationService)

		// 公开预览，按IP限流防止枚举
		api.GET("/public/invitation-codes/:code", limit, invitationHandler.Validate)

		joinHandler := handlers.NewJoinHandler(redemptionService)
		api.POST("/join", limit, auth.RequireLogin(), joinHandler.Join)

		codes := api.Group("/invitation-codes", auth.RequireLogin(), auth.RequireCompanyAdmin())
		{
			codes.POST("", invitationHandler.Create)
			codes.GET("", invitationHandler.List)
			codes.GET("/:id", invitationHandler.Get)
			codes.PUT("/:id", invitationHandler.Update)
			codes.POST("/:id/revoke", invitationHandler.Revoke)
		}

		workerHandler := handlers.NewWorkerHandler(membershipService)
		workers := api.Group("/workers", auth.RequireLogin(), auth.RequireCompanyAdmin())
		{
			workers.GET("", workerHandler.List)
			workers.POST("", workerHandler.Create)
			workers.POST("/:user_id/deactivate", workerHandler.Deactivate)
			workers.PUT("/:user_id/permissions", workerHandler.SetPermission)
		}

		tenantHandler := handlers.NewTenantHandler(tenantService)
		tenant := api.Group("/tenant", auth.RequireLogin())
		{
			tenant.GET("", auth.RequireCompanyMember(), tenantHandler.Summary)
			tenant.PUT("", auth.RequireCompanyAdmin(), tenantHandler.Update)
		}

		zoneHandler := handlers.NewZoneHandler(zoneService)
		zones := api.Group("/zones", auth.RequireLogin())
		{
			zones.GET("", zoneHandler.List)
			zones.POST("", zoneHandler.Create)
			zones.GET("/:id", zoneHandler.Get)
			zones.PUT("/:id", zoneHandler.Update)
		}

		cropHandler := handlers.NewCropHandler(cropService)
		zones.GET("/:id/crops", cropHandler.ListByZone)
		zones.POST("/:id/crops", cropHandler.Create)
		crops := api.Group("/crops", auth.RequireLogin())
		{
			crops.GET("/:id", cropHandler.Get)
			crops.PUT("/:id", cropHandler.Update)
			crops.DELETE("/:id", cropHandler.Delete)
		}

		assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
		assignments := api.Group("/zone-assignments", auth.RequireLogin())
		{
			assignments.POST("", auth.RequireCompanyAdmin(), assignmentHandler.Assign)
			assignments.GET("/workers/:user_id", auth.RequireCompanyMember(), assignmentHandler.WorkerZones)
		}
	}
}
