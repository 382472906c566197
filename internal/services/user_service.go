package services

import (
	"context"
	"time"

	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/jwt"
	"cropcare/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService 用户与登录
type UserService struct {
	db     *gorm.DB
	log    *logrus.Logger
	tokens *jwt.JWTManager
	now    func() time.Time
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, tokens *jwt.JWTManager) *UserService {
	return &UserService{
		db:     db,
		log:    logger.GetLogger(),
		tokens: tokens,
		now:    time.Now,
	}
}

// UserParams 新建用户的公共字段
type UserParams struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Phone     string `json:"phone" validate:"max=20"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token      string             `json:"token"`
	ExpiresIn  int64              `json:"expires_in"`
	User       *models.User       `json:"user"`
	Membership *models.Membership `json:"membership,omitempty"`
}

// createUser 在事务内创建用户，邮箱重复返回冲突
func createUser(tx *gorm.DB, p UserParams, isStaff bool) (*models.User, error) {
	email := models.NormalizeEmail(p.Email)

	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.Conflict("邮箱已注册")
	}

	user := &models.User{
		Email:     email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		IsStaff:   isStaff,
		IsActive:  true,
	}
	if err := user.SetPassword(p.Password); err != nil {
		return nil, err
	}
	if err := tx.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("邮箱已注册")
		}
		return nil, err
	}
	return user, nil
}

// Login 邮箱密码登录，返回携带公司和角色的令牌
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.Unauthorized("邮箱或密码错误")
		}
		return nil, classifyDBError(err, "load user")
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.Unauthorized("邮箱或密码错误")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("账号已停用")
	}

	var membership *models.Membership
	var m models.Membership
	err = db.Where("user_id = ?", user.ID).First(&m).Error
	switch {
	case err == nil:
		membership = &m
	case !isNotFound(err):
		return nil, classifyDBError(err, "load membership")
	}

	var tenantID uint
	role := ""
	if membership != nil {
		tenantID = membership.TenantIDValue()
		role = string(membership.Role)
	}

	token, err := s.tokens.GenerateToken(user.ID, tenantID, role, user.Email, user.IsStaff)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("last_login_at", now).Error; err != nil {
		s.log.WithField("user_id", user.ID).Warnf("更新最后登录时间失败: %v", err)
	}
	user.LastLoginAt = &now

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "tenant_id": tenantID}).Info("用户登录成功")

	return &LoginResult{
		Token:      token,
		ExpiresIn:  int64(s.tokens.GetTokenDuration().Seconds()),
		User:       &user,
		Membership: membership,
	}, nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("用户不存在")
		}
		return nil, classifyDBError(err, "load user")
	}
	return &user, nil
}
