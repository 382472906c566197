package services

import (
	"context"
	"time"

	"cropcare/internal/models"
	"cropcare/internal/policy"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"
	"cropcare/pkg/pagination"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MembershipService 注册与成员管理
type MembershipService struct {
	db         *gorm.DB
	log        *logrus.Logger
	redemption *RedemptionService
	now        func() time.Time
}

// NewMembershipService 创建成员服务
func NewMembershipService(db *gorm.DB, redemption *RedemptionService) *MembershipService {
	return &MembershipService{
		db:         db,
		log:        logger.GetLogger(),
		redemption: redemption,
		now:        time.Now,
	}
}

// RegisterAdminParams 公司管理员注册
type RegisterAdminParams struct {
	UserParams
	TaxID      string `json:"tax_id" validate:"required,max=12"`
	TenantName string `json:"tenant_name" validate:"required,max=200"`
	LegalName  string `json:"legal_name" validate:"max=200"`
	Country    string `json:"country" validate:"omitempty,len=2"`
	Timezone   string `json:"timezone" validate:"max=64"`
}

// RegisterWorkerParams 注册并兑换邀请码
type RegisterWorkerParams struct {
	UserParams
	Code     string               `json:"code" validate:"required,max=32"`
	Metadata models.UsageMetadata `json:"-"`
}

// CreateWorkerParams 管理员直接创建员工
type CreateWorkerParams struct {
	UserParams
	CanManageResources bool `json:"can_manage_resources"`
}

// RegistrationResult 注册结果
type RegistrationResult struct {
	User       *models.User       `json:"user"`
	Tenant     *models.Tenant     `json:"tenant,omitempty"`
	Membership *models.Membership `json:"membership"`
}

// WorkerView 员工列表项
type WorkerView struct {
	models.Membership
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterAdmin 同一事务内创建用户、公司和 ADMIN 成员关系，并把用户设为公司所有者
func (s *MembershipService) RegisterAdmin(ctx context.Context, p RegisterAdminParams) (*RegistrationResult, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		TaxID:     p.TaxID,
		Name:      p.TenantName,
		LegalName: p.LegalName,
		Country:   p.Country,
		Timezone:  p.Timezone,
	}
	tenant.Normalize()
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	result := &RegistrationResult{Tenant: tenant}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := createUser(tx, p.UserParams, true)
		if err != nil {
			return err
		}
		result.User = user

		var count int64
		if err := tx.Model(&models.Tenant{}).Where("tax_id = ?", tenant.TaxID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Conflict("税号已注册")
		}
		if err := tx.Create(tenant).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("税号已注册")
			}
			return err
		}

		membership, err := models.NewCompanyMembership(user.ID, tenant.ID, models.RoleAdmin, s.now())
		if err != nil {
			return err
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		result.Membership = membership

		// 所有者只在创建时写入一次
		if err := tx.Model(&models.Tenant{}).
			Where("id = ? AND owner_id IS NULL", tenant.ID).
			UpdateColumn("owner_id", user.ID).Error; err != nil {
			return err
		}
		tenant.OwnerID = &user.ID
		return nil
	})
	if err != nil {
		return nil, classifyDBError(err, "register admin")
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   result.User.ID,
		"tenant_id": tenant.ID,
	}).Info("公司管理员注册成功")
	return result, nil
}

// RegisterWorker 创建用户并兑换邀请码，兑换失败时不留下用户
func (s *MembershipService) RegisterWorker(ctx context.Context, p RegisterWorkerParams) (*RegistrationResult, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}

	start := time.Now()
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, classifyDBError(tx.Error, "begin transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	user, err := createUser(tx, p.UserParams, false)
	if err != nil {
		tx.Rollback()
		return nil, classifyDBError(err, "create user")
	}

	meta := p.Metadata
	meta.Source = "register"
	membership, err := s.redemption.RedeemTx(tx, p.Code, user.ID, meta)
	if err != nil {
		tx.Rollback()
		s.redemption.record(p.Code, user.ID, false, err, start)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		err = classifyDBError(err, "commit registration")
		s.redemption.record(p.Code, user.ID, false, err, start)
		return nil, err
	}
	s.redemption.record(p.Code, user.ID, false, nil, start)

	return &RegistrationResult{User: user, Membership: membership}, nil
}

// RegisterIndividual 个人用户注册，不属于任何公司
func (s *MembershipService) RegisterIndividual(ctx context.Context, p UserParams) (*RegistrationResult, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}

	result := &RegistrationResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := createUser(tx, p, false)
		if err != nil {
			return err
		}
		membership := models.NewIndividualMembership(user.ID, s.now())
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		result.User = user
		result.Membership = membership
		return nil
	})
	if err != nil {
		return nil, classifyDBError(err, "register individual")
	}

	s.log.WithField("user_id", result.User.ID).Info("个人用户注册成功")
	return result, nil
}

// CreateWorker 管理员在本公司直接创建员工账号，不经过邀请码
func (s *MembershipService) CreateWorker(ctx context.Context, actor *models.Membership, p CreateWorkerParams) (*RegistrationResult, error) {
	if !policy.IsCompanyAdmin(actor) {
		return nil, apperrors.Forbidden("只有公司管理员可以创建员工")
	}
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	tenantID := actor.TenantIDValue()

	result := &RegistrationResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := createUser(tx, p.UserParams, false)
		if err != nil {
			return err
		}
		membership, err := models.NewCompanyMembership(user.ID, tenantID, models.RoleWorker, s.now())
		if err != nil {
			return err
		}
		membership.CanManageResources = p.CanManageResources
		inviter := actor.UserID
		membership.InvitedBy = &inviter
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		result.User = user
		result.Membership = membership
		return nil
	})
	if err != nil {
		return nil, classifyDBError(err, "create worker")
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    result.User.ID,
		"tenant_id":  tenantID,
		"created_by": actor.UserID,
	}).Info("管理员创建员工成功")
	return result, nil
}

// GetByUserID 获取用户的成员关系
func (s *MembershipService) GetByUserID(ctx context.Context, userID uint) (*models.Membership, error) {
	var membership models.Membership
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&membership).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("成员关系不存在")
		}
		return nil, classifyDBError(err, "load membership")
	}
	return &membership, nil
}

// ListWorkers 列出本公司员工，默认只包含有效员工
func (s *MembershipService) ListWorkers(ctx context.Context, actor *models.Membership, includeInactive bool, page *pagination.PageParams) ([]WorkerView, int64, error) {
	if !policy.IsCompanyAdmin(actor) {
		return nil, 0, apperrors.Forbidden("只有公司管理员可以查看员工")
	}
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Membership{}).
		Where("tenant_id = ? AND role = ?", actor.TenantIDValue(), models.RoleWorker)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classifyDBError(err, "count workers")
	}

	var memberships []models.Membership
	err := query.Order("joined_at DESC, id DESC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&memberships).Error
	if err != nil {
		return nil, 0, classifyDBError(err, "list workers")
	}
	if len(memberships) == 0 {
		return []WorkerView{}, total, nil
	}

	userIDs := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		userIDs = append(userIDs, m.UserID)
	}
	var users []models.User
	if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, 0, classifyDBError(err, "load workers")
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]WorkerView, 0, len(memberships))
	for _, m := range memberships {
		u := byID[m.UserID]
		views = append(views, WorkerView{
			Membership: m,
			Email:      u.Email,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
		})
	}
	return views, total, nil
}

// DeactivateWorker 软删除员工，只修改 is_active
func (s *MembershipService) DeactivateWorker(ctx context.Context, actor *models.Membership, userID uint) (*models.Membership, error) {
	return s.updateWorker(ctx, actor, userID, map[string]interface{}{"is_active": false})
}

// SetCanManageResources 设置员工是否可以管理资源
func (s *MembershipService) SetCanManageResources(ctx context.Context, actor *models.Membership, userID uint, allowed bool) (*models.Membership, error) {
	return s.updateWorker(ctx, actor, userID, map[string]interface{}{"can_manage_resources": allowed})
}

func (s *MembershipService) updateWorker(ctx context.Context, actor *models.Membership, userID uint, changes map[string]interface{}) (*models.Membership, error) {
	if !policy.IsCompanyAdmin(actor) {
		return nil, apperrors.Forbidden("只有公司管理员可以管理员工")
	}
	tenantID := actor.TenantIDValue()

	var target models.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(lockingUpdate()).
			Where("user_id = ? AND tenant_id = ?", userID, tenantID).
			First(&target).Error
		if isNotFound(err) {
			return apperrors.NotFound("员工不存在")
		}
		if err != nil {
			return err
		}
		if target.Role != models.RoleWorker {
			return apperrors.Forbidden("只能管理员工账号")
		}

		changes["updated_at"] = s.now()
		if err := tx.Model(&models.Membership{}).Where("id = ?", target.ID).UpdateColumns(changes).Error; err != nil {
			return err
		}
		return tx.First(&target, target.ID).Error
	})
	if err != nil {
		return nil, classifyDBError(err, "update worker")
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"tenant_id": tenantID,
		"actor_id":  actor.UserID,
	}).Info("员工信息已更新")
	return &target, nil
}
