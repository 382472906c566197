package services

import (
	"context"
	"encoding/json"
	"time"

	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"
	"cropcare/pkg/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedemptionService 邀请码兑换
type RedemptionService struct {
	db   *gorm.DB
	log  *logrus.Logger
	opts Options
	now  func() time.Time
}

// NewRedemptionService 创建兑换服务
func NewRedemptionService(db *gorm.DB, opts Options) *RedemptionService {
	return &RedemptionService{
		db:   db,
		log:  logger.GetLogger(),
		opts: opts,
		now:  time.Now,
	}
}

// Redeem 兑换邀请码，返回兑换后的成员关系
func (s *RedemptionService) Redeem(ctx context.Context, code string, userID uint) (*models.Membership, error) {
	return s.RedeemWithMetadata(ctx, code, userID, models.UsageMetadata{})
}

// RedeemWithMetadata 兑换并在兑换记录中保存请求来源
func (s *RedemptionService) RedeemWithMetadata(ctx context.Context, code string, userID uint, meta models.UsageMetadata) (*models.Membership, error) {
	start := time.Now()

	var (
		membership *models.Membership
		idempotent bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		membership, idempotent, txErr = s.redeem(tx, code, userID, meta)
		return txErr
	})
	if err != nil {
		err = classifyDBError(err, "redeem invitation code")
	}

	s.record(code, userID, idempotent, err, start)
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// RedeemTx 在调用方的事务中兑换，注册并兑换的流程使用
func (s *RedemptionService) RedeemTx(tx *gorm.DB, code string, userID uint, meta models.UsageMetadata) (*models.Membership, error) {
	membership, _, err := s.redeem(tx, code, userID, meta)
	if err != nil {
		return nil, classifyDBError(err, "redeem invitation code")
	}
	return membership, nil
}

// redeem 兑换主流程，必须在事务中调用。
// 第二个返回值表示用户已属于该公司，未做任何修改。
func (s *RedemptionService) redeem(tx *gorm.DB, code string, userID uint, meta models.UsageMetadata) (*models.Membership, bool, error) {
	normalized := models.NormalizeCode(code)
	if normalized == "" {
		return nil, false, apperrors.Validation("邀请码不能为空")
	}

	if err := applyTxTimeouts(tx, s.opts); err != nil {
		return nil, false, err
	}

	// 1. 锁定邀请码行
	var invite models.InvitationCode
	err := tx.Clauses(lockingUpdate()).
		Where("code = ?", normalized).
		First(&invite).Error
	if isNotFound(err) {
		return nil, false, apperrors.NotFound("邀请码无效")
	}
	if err != nil {
		return nil, false, err
	}

	var user models.User
	err = tx.Select("id").First(&user, userID).Error
	if isNotFound(err) {
		return nil, false, apperrors.NotFound("用户不存在")
	}
	if err != nil {
		return nil, false, err
	}

	// 2. 已属于其它公司则冲突，已属于本公司直接返回
	var membership models.Membership
	hasMembership := true
	err = tx.Clauses(lockingUpdate()).
		Where("user_id = ?", userID).
		First(&membership).Error
	if isNotFound(err) {
		hasMembership = false
	} else if err != nil {
		return nil, false, err
	}

	if hasMembership && membership.TenantID != nil {
		if *membership.TenantID != invite.TenantID {
			return nil, false, apperrors.Conflict("用户已属于其它公司")
		}
		return &membership, true, nil
	}

	// 3. 加锁后重新判断有效性
	now := s.now()
	if reason := invite.InvalidReason(now); reason != "" {
		return nil, false, apperrors.ExpiredOrExhausted(reason)
	}

	// 4. 角色元数据
	info, ok := models.LookupRole(invite.Role)
	if !ok || !info.RedeemableByInvite {
		cfgErr := apperrors.Configuration("邀请码角色 "+string(invite.Role)+" 不可兑换", nil)
		logger.OperatorError(logrus.Fields{
			"code_id":   invite.ID,
			"tenant_id": invite.TenantID,
			"role":      invite.Role,
		}, cfgErr, "邀请码角色配置错误")
		return nil, false, cfgErr
	}

	// 5. 建立或更新成员关系，tenant_id 只允许从空写入
	inviter := invite.CreatedBy
	if !hasMembership {
		created, err := models.NewCompanyMembership(userID, invite.TenantID, info.Role, now)
		if err != nil {
			return nil, false, err
		}
		created.InvitedBy = &inviter
		if err := tx.Create(created).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, false, apperrors.Transient("成员关系被并发创建", err)
			}
			return nil, false, err
		}
		membership = *created
	} else {
		res := tx.Model(&models.Membership{}).
			Where("id = ? AND tenant_id IS NULL", membership.ID).
			UpdateColumns(map[string]interface{}{
				"tenant_id":            invite.TenantID,
				"role":                 info.Role,
				"can_manage_resources": info.DefaultCanManage,
				"is_active":            true,
				"invited_by":           inviter,
				"joined_at":            now,
				"updated_at":           now,
			})
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, false, apperrors.Transient("成员关系被并发修改", nil)
		}
		if err := tx.First(&membership, membership.ID).Error; err != nil {
			return nil, false, err
		}
	}

	// 6. 带条件的计数递增，影响行数为 0 说明已被并发兑换用完
	res := tx.Model(&models.InvitationCode{}).
		Where("id = ? AND used_count < max_uses", invite.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, apperrors.ExpiredOrExhausted(apperrors.ReasonExhausted)
	}

	// 7. 兑换记录，重复视为成功
	usage := models.InvitationCodeUsage{
		CodeID: invite.ID,
		UserID: userID,
		UsedAt: now,
	}
	if raw, err := json.Marshal(meta); err == nil {
		usage.Metadata = datatypes.JSON(raw)
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage).Error; err != nil {
		return nil, false, err
	}

	return &membership, false, nil
}

func (s *RedemptionService) record(code string, userID uint, idempotent bool, err error, start time.Time) {
	fields := logrus.Fields{
		"code":    models.NormalizeCode(code),
		"user_id": userID,
	}

	outcome := "success"
	switch {
	case err == nil && idempotent:
		outcome = "idempotent"
	case err != nil:
		outcome = string(apperrors.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.RecordRedemption(outcome, start)

	switch apperrors.KindOf(err) {
	case "":
		if err != nil {
			s.log.WithFields(fields).WithError(err).Error("邀请码兑换失败")
			return
		}
		s.log.WithFields(fields).WithField("idempotent", idempotent).Info("邀请码兑换成功")
	case apperrors.KindConfiguration:
		// 已在事务内按运维错误记录
	case apperrors.KindTransient:
		s.log.WithFields(fields).WithError(err).Warn("邀请码兑换遇到锁竞争")
	default:
		s.log.WithFields(fields).WithField("reason", apperrors.ReasonOf(err)).Infof("邀请码兑换被拒绝: %v", err)
	}
}
