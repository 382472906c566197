package middleware

import (
	"strings"

	"cropcare/internal/models"
	"cropcare/internal/policy"
	"cropcare/internal/services"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/jwt"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// 上下文中的键
const (
	ContextUser       = "user"
	ContextUserID     = "user_id"
	ContextMembership = "membership"
	ContextClaims     = "claims"
)

// AuthMiddleware 认证与角色中间件
type AuthMiddleware struct {
	userService       *services.UserService
	membershipService *services.MembershipService
	jwtManager        *jwt.JWTManager
}

func NewAuthMiddleware(userService *services.UserService, membershipService *services.MembershipService, jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		userService:       userService,
		membershipService: membershipService,
		jwtManager:        jwtManager,
	}
}

// RequireLogin 校验 JWT，并从数据库加载用户和成员关系
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}
		tokenString := authHeader[7:]

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		user, err := m.userService.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				response.Unauthorized(c, "用户不存在")
			} else {
				response.FromError(c, err)
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Unauthorized(c, "用户已被禁用")
			c.Abort()
			return
		}

		// 成员关系以数据库为准，兑换邀请码后 token 中的公司信息可能已过时
		membership, err := m.membershipService.GetByUserID(c.Request.Context(), user.ID)
		if err != nil {
			// 数据库故障不能当作未登录处理
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				response.Unauthorized(c, "成员关系不存在")
			} else {
				response.FromError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextMembership, membership)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// RequireCompanyAdmin 要求本公司有效管理员
func (m *AuthMiddleware) RequireCompanyAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := CurrentMembership(c)
		if membership == nil {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		if !policy.IsCompanyAdmin(membership) {
			response.Forbidden(c, "需要公司管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCompanyMember 要求属于某个公司
func (m *AuthMiddleware) RequireCompanyMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := CurrentMembership(c)
		if membership == nil {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		if !policy.IsCompanyMember(membership) {
			response.Forbidden(c, "需要公司成员身份")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentMembership 读取 RequireLogin 写入的成员关系
func CurrentMembership(c *gin.Context) *models.Membership {
	v, ok := c.Get(ContextMembership)
	if !ok {
		return nil
	}
	membership, _ := v.(*models.Membership)
	return membership
}

// CurrentUser 读取 RequireLogin 写入的用户
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
