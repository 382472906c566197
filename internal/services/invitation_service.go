package services

import (
	"context"
	"time"

	"cropcare/internal/models"
	"cropcare/internal/policy"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"
	"cropcare/pkg/metrics"
	"cropcare/pkg/pagination"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvitationService 邀请码管理
type InvitationService struct {
	db   *gorm.DB
	log  *logrus.Logger
	opts Options
	now  func() time.Time
}

// NewInvitationService 创建邀请码服务
func NewInvitationService(db *gorm.DB, opts Options) *InvitationService {
	return &InvitationService{
		db:   db,
		log:  logger.GetLogger(),
		opts: opts,
		now:  time.Now,
	}
}

// CreateCodeParams 创建邀请码参数
type CreateCodeParams struct {
	TenantID   uint        `validate:"required"`
	CreatorID  uint        `validate:"required"`
	Role       models.Role // 为空时默认 WORKER
	MaxUses    int         `validate:"omitempty,min=1,max=32767"` // 为 0 时默认 1
	ExpiresAt  *time.Time  // 为空时使用默认有效期
	NoExpiry   bool        // 永不过期，优先于 ExpiresAt
	ManualCode string      // 管理员手动指定的邀请码
}

// UpdateCodeParams 更新邀请码参数，nil 字段保持不变
type UpdateCodeParams struct {
	MaxUses   *int
	ExpiresAt *time.Time
}

// CodePreview 注册前预览邀请码
type CodePreview struct {
	Valid         bool             `json:"valid"`
	Reason        apperrors.Reason `json:"reason,omitempty"`
	Code          string           `json:"code"`
	TenantID      uint             `json:"tenant_id"`
	TenantName    string           `json:"tenant_name"`
	Role          models.Role      `json:"role"`
	ExpiresAt     *time.Time       `json:"expires_at"`
	MaxUses       int              `json:"max_uses"`
	UsedCount     int              `json:"used_count"`
	RemainingUses int              `json:"remaining_uses"`
}

// CreateInvitationCode 创建邀请码，创建人必须是该公司的管理员
func (s *InvitationService) CreateInvitationCode(ctx context.Context, p CreateCodeParams) (*models.InvitationCode, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}

	role := p.Role
	if role == "" {
		role = models.RoleWorker
	}
	if info, ok := models.LookupRole(role); !ok || !info.RedeemableByInvite {
		return nil, apperrors.Validationf("邀请码不能授予角色 %s", role)
	}

	maxUses := p.MaxUses
	if maxUses == 0 {
		maxUses = models.DefaultMaxUses
	}
	if err := models.ValidateMaxUses(maxUses); err != nil {
		return nil, err
	}

	now := s.now()
	var expiresAt *time.Time
	switch {
	case p.NoExpiry:
	case p.ExpiresAt == nil:
		t := now.Add(s.opts.DefaultTTL)
		expiresAt = &t
	default:
		if err := models.ValidateExpiry(p.ExpiresAt, now, s.opts.MinTTL); err != nil {
			return nil, err
		}
		t := p.ExpiresAt.UTC()
		expiresAt = &t
	}

	db := s.db.WithContext(ctx)

	var tenant models.Tenant
	if err := db.First(&tenant, p.TenantID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("公司不存在")
		}
		return nil, classifyDBError(err, "load tenant")
	}

	var creator models.Membership
	if err := db.Where("user_id = ?", p.CreatorID).First(&creator).Error; err != nil && !isNotFound(err) {
		return nil, classifyDBError(err, "load creator membership")
	}
	if !policy.CanManageTenant(&creator, tenant.ID) {
		return nil, apperrors.Forbidden("只有公司管理员可以创建邀请码")
	}

	exists := func(code string) (bool, error) {
		var count int64
		err := db.Model(&models.InvitationCode{}).Where("code = ?", code).Count(&count).Error
		return count > 0, err
	}

	var code string
	if p.ManualCode != "" {
		manual, err := models.NormalizeManualCode(p.ManualCode)
		if err != nil {
			return nil, err
		}
		taken, err := exists(manual)
		if err != nil {
			return nil, classifyDBError(err, "check invitation code")
		}
		if taken {
			return nil, apperrors.Validation("邀请码已存在")
		}
		code = manual
	} else {
		generated, err := models.GenerateCode(s.opts.CodeLength, exists)
		if err != nil {
			return nil, classifyDBError(err, "generate invitation code")
		}
		code = generated
	}

	invite := &models.InvitationCode{
		Code:      code,
		TenantID:  tenant.ID,
		Role:      role,
		CreatedBy: p.CreatorID,
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(invite).Error; err != nil {
		if isUniqueViolation(err) {
			if p.ManualCode != "" {
				return nil, apperrors.Validation("邀请码已存在")
			}
			return nil, apperrors.Transient("生成的邀请码冲突，请重试", err)
		}
		return nil, classifyDBError(err, "create invitation code")
	}

	metrics.CodesCreatedTotal.Inc()
	s.log.WithFields(logrus.Fields{
		"code_id":    invite.ID,
		"tenant_id":  invite.TenantID,
		"created_by": invite.CreatedBy,
		"max_uses":   invite.MaxUses,
	}).Info("邀请码创建成功")

	return invite, nil
}

// ValidateCode 只读预览，不修改任何数据
func (s *InvitationService) ValidateCode(ctx context.Context, code string) (*CodePreview, error) {
	normalized := models.NormalizeCode(code)
	if normalized == "" {
		return nil, apperrors.Validation("邀请码不能为空")
	}

	db := s.db.WithContext(ctx)

	var invite models.InvitationCode
	if err := db.Where("code = ?", normalized).First(&invite).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("邀请码无效")
		}
		return nil, classifyDBError(err, "load invitation code")
	}

	var tenant models.Tenant
	if err := db.Select("id", "name").First(&tenant, invite.TenantID).Error; err != nil {
		return nil, classifyDBError(err, "load tenant")
	}

	reason := invite.InvalidReason(s.now())
	return &CodePreview{
		Valid:         reason == "",
		Reason:        reason,
		Code:          invite.Code,
		TenantID:      tenant.ID,
		TenantName:    tenant.Name,
		Role:          invite.Role,
		ExpiresAt:     invite.ExpiresAt,
		MaxUses:       invite.MaxUses,
		UsedCount:     invite.UsedCount,
		RemainingUses: invite.RemainingUses(),
	}, nil
}

// GetCode 获取本公司的邀请码
func (s *InvitationService) GetCode(ctx context.Context, tenantID, codeID uint) (*models.InvitationCode, error) {
	var invite models.InvitationCode
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", codeID, tenantID).
		First(&invite).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("邀请码不存在")
		}
		return nil, classifyDBError(err, "load invitation code")
	}
	return &invite, nil
}

// ListCodes 分页列出本公司的邀请码，按创建时间倒序
func (s *InvitationService) ListCodes(ctx context.Context, tenantID uint, page *pagination.PageParams) ([]models.InvitationCode, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.InvitationCode{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, classifyDBError(err, "count invitation codes")
	}

	var codes []models.InvitationCode
	err := db.Order("created_at DESC, id DESC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&codes).Error
	if err != nil {
		return nil, 0, classifyDBError(err, "list invitation codes")
	}
	return codes, total, nil
}

// RevokeCode 撤销邀请码，重复撤销无副作用
func (s *InvitationService) RevokeCode(ctx context.Context, tenantID, codeID uint) (*models.InvitationCode, error) {
	invite, err := s.GetCode(ctx, tenantID, codeID)
	if err != nil {
		return nil, err
	}
	if invite.Revoked {
		return invite, nil
	}

	err = s.db.WithContext(ctx).Model(&models.InvitationCode{}).
		Where("id = ?", invite.ID).
		UpdateColumns(map[string]interface{}{"revoked": true, "updated_at": s.now()}).Error
	if err != nil {
		return nil, classifyDBError(err, "revoke invitation code")
	}
	invite.Revoked = true

	s.log.WithFields(logrus.Fields{
		"code_id":   invite.ID,
		"tenant_id": tenantID,
	}).Info("邀请码已撤销")
	return invite, nil
}

// UpdateCode 修改次数上限或过期时间，过期时间同样受最小间隔限制
func (s *InvitationService) UpdateCode(ctx context.Context, tenantID, codeID uint, p UpdateCodeParams) (*models.InvitationCode, error) {
	var updated models.InvitationCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyTxTimeouts(tx, s.opts); err != nil {
			return err
		}
		if err := lockCode(tx, tenantID, codeID, &updated); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if p.MaxUses != nil {
			if err := models.ValidateMaxUses(*p.MaxUses); err != nil {
				return err
			}
			if *p.MaxUses < updated.UsedCount {
				return apperrors.Validationf("max_uses 不能小于已使用次数 (%d)", updated.UsedCount)
			}
			changes["max_uses"] = *p.MaxUses
			updated.MaxUses = *p.MaxUses
		}
		if p.ExpiresAt != nil {
			if err := models.ValidateExpiry(p.ExpiresAt, s.now(), s.opts.MinTTL); err != nil {
				return err
			}
			t := p.ExpiresAt.UTC()
			changes["expires_at"] = t
			updated.ExpiresAt = &t
		}
		if len(changes) == 0 {
			return nil
		}
		changes["updated_at"] = s.now()
		return tx.Model(&models.InvitationCode{}).Where("id = ?", updated.ID).UpdateColumns(changes).Error
	})
	if err != nil {
		return nil, classifyDBError(err, "update invitation code")
	}
	return &updated, nil
}

// CodeStateCounts 按状态统计全部邀请码
func (s *InvitationService) CodeStateCounts(ctx context.Context) (map[string]int64, error) {
	now := s.now()
	db := s.db.WithContext(ctx).Model(&models.InvitationCode{})

	counts := map[string]int64{}
	queries := []struct {
		state string
		where string
		args  []interface{}
	}{
		{"revoked", "revoked = ?", []interface{}{true}},
		{"expired", "revoked = ? AND expires_at IS NOT NULL AND expires_at < ?", []interface{}{false, now}},
		{"exhausted", "revoked = ? AND (expires_at IS NULL OR expires_at >= ?) AND used_count >= max_uses", []interface{}{false, now}},
		{"active", "revoked = ? AND (expires_at IS NULL OR expires_at >= ?) AND used_count < max_uses", []interface{}{false, now}},
	}
	for _, q := range queries {
		var n int64
		if err := db.Session(&gorm.Session{}).Where(q.where, q.args...).Count(&n).Error; err != nil {
			return nil, classifyDBError(err, "count invitation codes")
		}
		counts[q.state] = n
	}
	return counts, nil
}

func lockCode(tx *gorm.DB, tenantID, codeID uint, dest *models.InvitationCode) error {
	err := tx.Clauses(lockingUpdate()).
		Where("id = ? AND tenant_id = ?", codeID, tenantID).
		First(dest).Error
	if isNotFound(err) {
		return apperrors.NotFound("邀请码不存在")
	}
	return err
}
