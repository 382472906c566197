package handlers

import (
	"time"

	"cropcare/internal/models"
	"cropcare/internal/services"
	"cropcare/pkg/pagination"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// InvitationHandler 邀请码管理，除预览外都要求公司管理员
type InvitationHandler struct {
	invitationService *services.InvitationService
}

// NewInvitationHandler 创建邀请码处理器
func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// CreateCodeRequest 创建邀请码请求
type CreateCodeRequest struct {
	Role      models.Role `json:"role"`
	MaxUses   int         `json:"max_uses"`
	ExpiresAt *time.Time  `json:"expires_at"`
	NoExpiry  bool        `json:"no_expiry"`
	Code      string      `json:"code"`
}

// UpdateCodeRequest 更新邀请码请求
type UpdateCodeRequest struct {
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create 创建邀请码
// @Summary 创建邀请码
// @Tags 邀请码
// @Accept json
// @Produce json
// @Param request body CreateCodeRequest true "邀请码参数"
// @Success 200 {object} response.Response{data=models.InvitationCode}
// @Router /api/v1/invitation-codes [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}

	var req CreateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	code, err := h.invitationService.CreateInvitationCode(c.Request.Context(), services.CreateCodeParams{
		TenantID:   membership.TenantIDValue(),
		CreatorID:  membership.UserID,
		Role:       req.Role,
		MaxUses:    req.MaxUses,
		ExpiresAt:  req.ExpiresAt,
		NoExpiry:   req.NoExpiry,
		ManualCode: req.Code,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, code)
}

// List 本公司邀请码，新的在前
// @Router /api/v1/invitation-codes [get]
func (h *InvitationHandler) List(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	pageParams := pagination.ParsePageParams(c)

	codes, total, err := h.invitationService.ListCodes(c.Request.Context(), membership.TenantIDValue(), pageParams)
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, codes, pageInfo)
}

// Get 邀请码详情
// @Router /api/v1/invitation-codes/{id} [get]
func (h *InvitationHandler) Get(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	code, err := h.invitationService.GetCode(c.Request.Context(), membership.TenantIDValue(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, code)
}

// Update 修改使用次数或过期时间
// @Router /api/v1/invitation-codes/{id} [put]
func (h *InvitationHandler) Update(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	code, err := h.invitationService.UpdateCode(c.Request.Context(), membership.TenantIDValue(), id, services.UpdateCodeParams{
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, code)
}

// Revoke 撤销邀请码，重复撤销无副作用
// @Router /api/v1/invitation-codes/{id}/revoke [post]
func (h *InvitationHandler) Revoke(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	code, err := h.invitationService.RevokeCode(c.Request.Context(), membership.TenantIDValue(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "邀请码已撤销", code)
}

// Validate 注册前预览邀请码，无需登录
// @Summary 预览邀请码
// @Tags 邀请码
// @Produce json
// @Param code path string true "邀请码"
// @Success 200 {object} response.Response{data=services.CodePreview}
// @Router /api/v1/public/invitation-codes/{code} [get]
func (h *InvitationHandler) Validate(c *gin.Context) {
	preview, err := h.invitationService.ValidateCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, preview)
}
