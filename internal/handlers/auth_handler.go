package handlers

import (
	"strings"

	"cropcare/internal/middleware"
	"cropcare/internal/services"
	"cropcare/pkg/jwt"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService       *services.UserService
	membershipService *services.MembershipService
	jwtManager        *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, membershipService *services.MembershipService, jwtManager *jwt.JWTManager) *AuthHandler {
	return &AuthHandler{
		userService:       userService,
		membershipService: membershipService,
		jwtManager:        jwtManager,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterAdmin 公司管理员注册
// @Summary 注册公司及其管理员
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body services.RegisterAdminParams true "注册信息"
// @Success 200 {object} response.Response{data=services.RegistrationResult}
// @Router /api/v1/auth/register/admin [post]
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req services.RegisterAdminParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.membershipService.RegisterAdmin(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// RegisterWorker 使用邀请码注册员工
// @Summary 使用邀请码注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body services.RegisterWorkerParams true "注册信息"
// @Success 200 {object} response.Response{data=services.RegistrationResult}
// @Router /api/v1/auth/register/worker [post]
func (h *AuthHandler) RegisterWorker(c *gin.Context) {
	var req services.RegisterWorkerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	req.Metadata = usageMetadata(c, "register")

	result, err := h.membershipService.RegisterWorker(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// RegisterIndividual 个人用户注册
// @Router /api/v1/auth/register/individual [post]
func (h *AuthHandler) RegisterIndividual(c *gin.Context) {
	var req services.UserParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.membershipService.RegisterIndividual(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Login 用户登录
// @Summary 邮箱密码登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=services.LoginResult}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// RefreshToken 刷新Token
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		response.Unauthorized(c, "认证头格式错误")
		return
	}

	token, err := h.jwtManager.RefreshToken(authHeader[7:])
	if err != nil {
		response.Unauthorized(c, "Token无效或已过期")
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int64(h.jwtManager.GetTokenDuration().Seconds()),
	})
}

// Me 当前用户及其成员关系
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{
		"user":       middleware.CurrentUser(c),
		"membership": membership,
	})
}
