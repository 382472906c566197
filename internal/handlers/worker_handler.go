package handlers

import (
	"cropcare/internal/services"
	"cropcare/pkg/pagination"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// WorkerHandler 公司员工管理
type WorkerHandler struct {
	membershipService *services.MembershipService
}

func NewWorkerHandler(membershipService *services.MembershipService) *WorkerHandler {
	return &WorkerHandler{membershipService: membershipService}
}

type WorkerPermissionRequest struct {
	CanManageResources *bool `json:"can_manage_resources" binding:"required"`
}

// List 员工列表，include_inactive=true 时包含已停用员工
// @Router /api/v1/workers [get]
func (h *WorkerHandler) List(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	pageParams := pagination.ParsePageParams(c)
	includeInactive := c.Query("include_inactive") == "true"

	workers, total, err := h.membershipService.ListWorkers(c.Request.Context(), membership, includeInactive, pageParams)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPage(c, workers, pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total))
}

// Create 直接创建员工账号
// @Router /api/v1/workers [post]
func (h *WorkerHandler) Create(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}

	var req services.CreateWorkerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.membershipService.CreateWorker(c.Request.Context(), membership, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Deactivate 停用员工
// @Router /api/v1/workers/{user_id}/deactivate [post]
func (h *WorkerHandler) Deactivate(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	updated, err := h.membershipService.DeactivateWorker(c.Request.Context(), membership, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "员工已停用", updated)
}

// SetPermission 设置员工是否可管理资源
// @Router /api/v1/workers/{user_id}/permissions [put]
func (h *WorkerHandler) SetPermission(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req WorkerPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	updated, err := h.membershipService.SetCanManageResources(c.Request.Context(), membership, userID, *req.CanManageResources)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, updated)
}
