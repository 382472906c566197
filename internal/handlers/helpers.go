package handlers

import (
	"strconv"

	"cropcare/internal/middleware"
	"cropcare/internal/models"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// parseIDParam 解析路径中的数字ID，失败时已写入响应
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "ID格式错误")
		return 0, false
	}
	return uint(id), true
}

// currentMembership 认证中间件之后调用
func currentMembership(c *gin.Context) (*models.Membership, bool) {
	membership := middleware.CurrentMembership(c)
	if membership == nil {
		response.Unauthorized(c, "请先登录")
		return nil, false
	}
	return membership, true
}

func usageMetadata(c *gin.Context, source string) models.UsageMetadata {
	return models.UsageMetadata{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Source:    source,
	}
}
