package services

import (
	"context"
	"strings"
	"time"

	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TenantService 公司信息
type TenantService struct {
	db  *gorm.DB
	log *logrus.Logger
	now func() time.Time
}

// NewTenantService 创建公司服务
func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{
		db:  db,
		log: logger.GetLogger(),
		now: time.Now,
	}
}

// UpdateTenantParams tax_id 和 owner 不可修改
type UpdateTenantParams struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=200"`
	LegalName *string `json:"legal_name" validate:"omitempty,max=200"`
	Timezone  *string `json:"timezone" validate:"omitempty,max=64"`
}

// TenantSummary 公司概况
type TenantSummary struct {
	models.Tenant
	ActiveWorkers int64 `json:"active_workers"`
	ActiveCodes   int64 `json:"active_codes"`
}

// GetByID 获取公司
func (s *TenantService) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("公司不存在")
		}
		return nil, classifyDBError(err, "load tenant")
	}
	return &tenant, nil
}

// GetByTaxID 按税号查询
func (s *TenantService) GetByTaxID(ctx context.Context, taxID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Where("tax_id = ?", models.NormalizeTaxID(taxID)).First(&tenant).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("公司不存在")
		}
		return nil, classifyDBError(err, "load tenant")
	}
	return &tenant, nil
}

// Summary 公司概况，包含有效员工数和可用邀请码数
func (s *TenantService) Summary(ctx context.Context, id uint) (*TenantSummary, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	summary := &TenantSummary{Tenant: *tenant}
	err = db.Model(&models.Membership{}).
		Where("tenant_id = ? AND role = ? AND is_active = ?", id, models.RoleWorker, true).
		Count(&summary.ActiveWorkers).Error
	if err != nil {
		return nil, classifyDBError(err, "count workers")
	}
	err = db.Model(&models.InvitationCode{}).
		Where("tenant_id = ? AND revoked = ? AND used_count < max_uses AND (expires_at IS NULL OR expires_at >= ?)", id, false, s.now()).
		Count(&summary.ActiveCodes).Error
	if err != nil {
		return nil, classifyDBError(err, "count invitation codes")
	}
	return summary, nil
}

// Update 更新公司资料
func (s *TenantService) Update(ctx context.Context, id uint, p UpdateTenantParams) (*models.Tenant, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperrors.Validation("名称不能为空")
		}
		changes["name"] = name
		tenant.Name = name
	}
	if p.LegalName != nil {
		changes["legal_name"] = strings.TrimSpace(*p.LegalName)
		tenant.LegalName = strings.TrimSpace(*p.LegalName)
	}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return nil, apperrors.Validation("时区无效")
		}
		changes["timezone"] = *p.Timezone
		tenant.Timezone = *p.Timezone
	}
	if len(changes) == 0 {
		return tenant, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", id).Updates(changes).Error; err != nil {
		return nil, classifyDBError(err, "update tenant")
	}
	s.log.WithFields(logrus.Fields{"tenant_id": id}).Info("公司资料已更新")
	return tenant, nil
}
