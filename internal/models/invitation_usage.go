package models

import (
	"time"

	"gorm.io/datatypes"
)

// InvitationCodeUsage 兑换记录，(code_id, user_id) 唯一
type InvitationCodeUsage struct {
	ID       uint           `json:"id" gorm:"primarykey"`
	CodeID   uint           `json:"code_id" gorm:"not null;uniqueIndex:idx_code_user"`
	UserID   uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_code_user;index"`
	UsedAt   time.Time      `json:"used_at" gorm:"not null"`
	Metadata datatypes.JSON `json:"metadata" gorm:"type:json"`
}

// TableName 表名
func (InvitationCodeUsage) TableName() string {
	return "invitation_code_usages"
}

// UsageMetadata 兑换请求的审计信息
type UsageMetadata struct {
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Source    string `json:"source,omitempty"` // join / register
}
