package database

import (
	"context"
	"fmt"
	"time"

	"cropcare/pkg/config"
	"cropcare/pkg/logger"

	"github.com/avast/retry-go/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 全局数据库实例
var DB *gorm.DB

const (
	connectDelay    = 500 * time.Millisecond
	connectMaxDelay = 5 * time.Second
)

// Initialize 连接数据库，启动时数据库可能尚未就绪，按退避策略重试
func Initialize(cfg *config.Config) error {
	appLogger := logger.GetLogger()

	attempts := cfg.Database.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	retrier := retry.New(
		retry.Delay(connectDelay),
		retry.MaxDelay(connectMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
	)

	var db *gorm.DB
	attempt := 0
	err := retrier.Do(func() error {
		attempt++
		var openErr error
		db, openErr = open(cfg.Database, logLevel)
		if openErr != nil {
			appLogger.WithFields(logrus.Fields{
				"attempt": attempt,
				"host":    cfg.Database.Host,
			}).Warnf("Database not ready: %v", openErr)
		}
		return openErr
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	DB = db
	appLogger.Info("Database connected successfully")
	return nil
}

func open(dbCfg config.DatabaseConfig, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dbCfg.GetDSN(),
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return DB
}

// Close 关闭数据库连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
