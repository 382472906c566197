package main

import (
	"context"
	"fmt"

	"cropcare/internal/database"
	"cropcare/internal/models"
	"cropcare/internal/services"
	"cropcare/pkg/config"
	"cropcare/pkg/errors"
	"cropcare/pkg/logger"
)

// seedDemo 创建演示公司、管理员和一个邀请码，已存在时跳过
func seedDemo(cfg *config.Config) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	ctx := context.Background()
	db := database.GetDB()
	opts := services.OptionsFromConfig(cfg)

	tenants := services.NewTenantService(db)
	if _, err := tenants.GetByTaxID(ctx, cfg.Seed.TenantTaxID); err == nil {
		appLogger.Info("演示公司已存在，跳过创建")
		return nil
	} else if !errors.IsKind(err, errors.KindNotFound) {
		return fmt.Errorf("查询演示公司失败: %w", err)
	}

	memberships := services.NewMembershipService(db, services.NewRedemptionService(db, opts))
	result, err := memberships.RegisterAdmin(ctx, services.RegisterAdminParams{
		UserParams: services.UserParams{
			Email:     cfg.Seed.AdminEmail,
			Password:  cfg.Seed.AdminPassword,
			FirstName: "Demo",
			LastName:  "Admin",
		},
		TaxID:      cfg.Seed.TenantTaxID,
		TenantName: cfg.Seed.TenantName,
	})
	if err != nil {
		return fmt.Errorf("创建演示管理员失败: %w", err)
	}

	code, err := services.NewInvitationService(db, opts).CreateInvitationCode(ctx, services.CreateCodeParams{
		TenantID:  result.Tenant.ID,
		CreatorID: result.User.ID,
		Role:      models.RoleWorker,
		MaxUses:   10,
	})
	if err != nil {
		return fmt.Errorf("创建演示邀请码失败: %w", err)
	}

	appLogger.WithField("tenant_id", result.Tenant.ID).Infof("演示数据创建成功，邀请码: %s", code.Code)
	return nil
}
