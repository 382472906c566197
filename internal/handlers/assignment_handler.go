package handlers

import (
	"cropcare/internal/services"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler 员工分区分配
type AssignmentHandler struct {
	assignmentService *services.AssignmentService
}

func NewAssignmentHandler(assignmentService *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// Assign 覆盖员工的分区分配
// @Router /api/v1/zone-assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	var req services.AssignZonesParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.assignmentService.AssignZones(c.Request.Context(), membership, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// WorkerZones @Router /api/v1/zone-assignments/workers/{user_id} [get]
func (h *AssignmentHandler) WorkerZones(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	workerID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	result, err := h.assignmentService.WorkerZones(c.Request.Context(), membership, workerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}
