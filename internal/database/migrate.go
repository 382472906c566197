package database

import (
	"cropcare/internal/models"
	"cropcare/pkg/logger"

	"gorm.io/gorm"
)

// AllModels 需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&models.RoleRecord{},
		&models.Tenant{},
		&models.User{},
		&models.Membership{},
		&models.InvitationCode{},
		&models.InvitationCodeUsage{},
		&models.Zone{},
		&models.Crop{},
		&models.WorkerZoneAssignment{},
	}
}

// Migrate 执行数据库迁移
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB 对指定连接执行迁移，测试中也会使用
func MigrateDB(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	if err := db.AutoMigrate(AllModels()...); err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
