package handlers

import (
	"cropcare/internal/services"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantHandler 当前用户所属公司
type TenantHandler struct {
	service *services.TenantService
}

func NewTenantHandler(service *services.TenantService) *TenantHandler {
	return &TenantHandler{service: service}
}

// Summary 公司概况，含有效员工数和有效邀请码数
// @Router /api/v1/tenant [get]
func (h *TenantHandler) Summary(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), membership.TenantIDValue())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, summary)
}

// Update 修改公司名称等信息，税号不可修改
// @Router /api/v1/tenant [put]
func (h *TenantHandler) Update(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}

	var req services.UpdateTenantParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	tenant, err := h.service.Update(c.Request.Context(), membership.TenantIDValue(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "更新成功", tenant)
}
