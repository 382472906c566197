package handlers

import (
	"cropcare/internal/services"
	"cropcare/pkg/pagination"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// CropHandler 作物
type CropHandler struct {
	cropService *services.CropService
}

func NewCropHandler(cropService *services.CropService) *CropHandler {
	return &CropHandler{cropService: cropService}
}

// ListByZone @Router /api/v1/zones/{id}/crops [get]
func (h *CropHandler) ListByZone(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	zoneID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pageParams := pagination.ParsePageParams(c)

	crops, total, err := h.cropService.ListByZone(c.Request.Context(), membership, zoneID, pageParams)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPage(c, crops, pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total))
}

// Create @Router /api/v1/zones/{id}/crops [post]
func (h *CropHandler) Create(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	zoneID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CropParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	crop, err := h.cropService.Create(c.Request.Context(), membership, zoneID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, crop)
}

// Get @Router /api/v1/crops/{id} [get]
func (h *CropHandler) Get(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	crop, err := h.cropService.Get(c.Request.Context(), membership, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, crop)
}

// Update @Router /api/v1/crops/{id} [put]
func (h *CropHandler) Update(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CropParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	crop, err := h.cropService.Update(c.Request.Context(), membership, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, crop)
}

// Delete @Router /api/v1/crops/{id} [delete]
func (h *CropHandler) Delete(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.cropService.Delete(c.Request.Context(), membership, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}
