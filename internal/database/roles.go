package database

import (
	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedRoles 写入角色表，已存在的行保持不变
func SeedRoles(db *gorm.DB) error {
	for _, role := range models.Roles() {
		info, _ := models.LookupRole(role)
		record := models.RoleRecord{Code: string(role), Name: info.DisplayName}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

// VerifyRoleCatalog 启动时核对角色表与内置角色是否一致，缺失即部署缺陷
func VerifyRoleCatalog(db *gorm.DB) error {
	var records []models.RoleRecord
	if err := db.Find(&records).Error; err != nil {
		return err
	}

	present := make(map[string]bool, len(records))
	for _, r := range records {
		present[r.Code] = true
		if _, ok := models.LookupRole(models.Role(r.Code)); !ok {
			logger.GetLogger().WithField("role", r.Code).Warn("Role row has no matching built-in role, ignored")
		}
	}

	for _, role := range models.Roles() {
		if !present[string(role)] {
			err := apperrors.Configuration("角色表缺少内置角色 "+string(role), nil)
			logger.OperatorError(logrus.Fields{"role": role}, err, "Role catalog check failed")
			return err
		}
	}
	return nil
}
