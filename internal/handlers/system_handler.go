package handlers

import (
	"context"
	"time"

	"cropcare/pkg/errors"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemHandler 健康检查
type SystemHandler struct {
	db *gorm.DB
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

// Health 检查数据库连接
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = "degraded"
	}

	data := gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"service":   "cropcare",
	}
	if err != nil {
		response.ErrorWithData(c, errors.CodeUnavailable, "数据库不可用", data)
		return
	}
	response.Success(c, data)
}

// Ping 存活检查
func (h *SystemHandler) Ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
