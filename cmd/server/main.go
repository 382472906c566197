package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cropcare/internal/database"
	"cropcare/internal/router"
	"cropcare/internal/services"
	"cropcare/pkg/config"
	"cropcare/pkg/jwt"
	"cropcare/pkg/logger"
	"cropcare/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting cropcare server...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseRateLimitStore(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// 角色表缺失时拒绝启动
	db := database.GetDB()
	if err := database.SeedRoles(db); err != nil {
		appLogger.Fatalf("Failed to seed roles: %v", err)
	}
	if err := database.VerifyRoleCatalog(db); err != nil {
		appLogger.Fatalf("Role catalog check failed: %v", err)
	}

	if cfg.Seed.Demo {
		if err := seedDemo(cfg); err != nil {
			appLogger.Fatalf("Failed to initialize seed data: %v", err)
		}
	}

	gin.SetMode(cfg.Server.Mode)

	if cfg.Metrics.Enabled {
		reporter := services.NewCodeStatsReporter(
			services.NewInvitationService(db, services.OptionsFromConfig(cfg)),
			cfg.Metrics.StatsCron,
		)
		if err := reporter.Start(); err != nil {
			// 不影响主服务启动
			appLogger.Errorf("Failed to start code stats reporter: %v", err)
		}
		defer reporter.Stop()
	}

	r := router.SetupRouter(router.Options{
		DB:         db,
		Config:     cfg,
		JWTManager: jwt.GetJWTManager(),
		Limiter:    newLimiter(cfg),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}

// newLimiter Redis 不可用时退回进程内计数
func newLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	appLogger := logger.GetLogger()

	var store ratelimit.Store
	redisStore := database.GetRateLimitStore()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisStore.Ping(ctx); err != nil {
		appLogger.Warnf("Redis unavailable, using in-memory rate limiting: %v", err)
		store = ratelimit.NewMemoryStore()
	} else {
		store = redisStore
	}

	return ratelimit.NewLimiter(store, cfg.Redis.Prefix+"ratelimit", cfg.RateLimit.Limit, cfg.RateLimit.Window)
}
