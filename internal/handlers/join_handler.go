package handlers

import (
	"cropcare/internal/services"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// JoinHandler 已登录用户兑换邀请码加入公司
type JoinHandler struct {
	redemptionService *services.RedemptionService
}

func NewJoinHandler(redemptionService *services.RedemptionService) *JoinHandler {
	return &JoinHandler{redemptionService: redemptionService}
}

type JoinRequest struct {
	Code string `json:"code" binding:"required,max=32"`
}

// Join 兑换邀请码
// @Summary 兑换邀请码加入公司
// @Tags 邀请码
// @Accept json
// @Produce json
// @Param request body JoinRequest true "邀请码"
// @Success 200 {object} response.Response{data=models.Membership}
// @Router /api/v1/join [post]
func (h *JoinHandler) Join(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	updated, err := h.redemptionService.RedeemWithMetadata(c.Request.Context(), req.Code, membership.UserID, usageMetadata(c, "join"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, updated)
}
