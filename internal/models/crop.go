package models

import (
	"strings"

	apperrors "cropcare/pkg/errors"
)

// Crop 种植在分区内的作物，公司归属跟随所在分区
type Crop struct {
	BaseModel
	ZoneID   uint   `json:"zone_id" gorm:"not null;uniqueIndex:idx_crop_zone_name"`
	TenantID *uint  `json:"tenant_id" gorm:"index"` // 冗余自分区，便于按公司查询
	OwnerID  uint   `json:"owner_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null;size:100;uniqueIndex:idx_crop_zone_name"`
	Variety  string `json:"variety" gorm:"size:100"`
	Notes    string `json:"notes" gorm:"size:500"`
}

func (Crop) TableName() string {
	return "crops"
}

// Validate 字段校验
func (c *Crop) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Variety = strings.TrimSpace(c.Variety)
	if c.Name == "" {
		return apperrors.Validation("作物名称不能为空")
	}
	if c.ZoneID == 0 {
		return apperrors.Validation("作物必须属于一个分区")
	}
	return nil
}

// ResourceTenantID 实现 policy.Resource
func (c *Crop) ResourceTenantID() *uint {
	return c.TenantID
}

// ResourceOwnerID 实现 policy.Resource
func (c *Crop) ResourceOwnerID() uint {
	return c.OwnerID
}
