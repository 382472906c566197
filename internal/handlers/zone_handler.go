package handlers

import (
	"cropcare/internal/services"
	"cropcare/pkg/pagination"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// ZoneHandler 分区
type ZoneHandler struct {
	zoneService *services.ZoneService
}

func NewZoneHandler(zoneService *services.ZoneService) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService}
}

// List @Router /api/v1/zones [get]
// ?assigned=true 时员工只看到分配给自己的分区
func (h *ZoneHandler) List(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	pageParams := pagination.ParsePageParams(c)

	list := h.zoneService.List
	if c.Query("assigned") == "true" {
		list = h.zoneService.ListAssigned
	}
	zones, total, err := list(c.Request.Context(), membership, pageParams)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPage(c, zones, pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total))
}

// Create @Router /api/v1/zones [post]
func (h *ZoneHandler) Create(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	var req services.ZoneParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	zone, err := h.zoneService.Create(c.Request.Context(), membership, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, zone)
}

// Get @Router /api/v1/zones/{id} [get]
func (h *ZoneHandler) Get(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	zone, err := h.zoneService.Get(c.Request.Context(), membership, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, zone)
}

// Update @Router /api/v1/zones/{id} [put]
func (h *ZoneHandler) Update(c *gin.Context) {
	membership, ok := currentMembership(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ZoneParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	zone, err := h.zoneService.Update(c.Request.Context(), membership, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, zone)
}
