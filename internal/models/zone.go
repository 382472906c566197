package models

import (
	"strings"

	apperrors "cropcare/pkg/errors"
)

// Zone 地块分区，属于公司或个人用户
type Zone struct {
	BaseModel
	TenantID    *uint   `json:"tenant_id" gorm:"uniqueIndex:idx_zone_tenant_name"`
	OwnerID     uint    `json:"owner_id" gorm:"not null;index"`                                 // 创建者
	Name        string  `json:"name" gorm:"not null;size:120;uniqueIndex:idx_zone_tenant_name"` // 同一公司内唯一
	Description string  `json:"description" gorm:"size:500"`
	AreaHa      float64 `json:"area_ha"`
}

// TableName 表名
func (Zone) TableName() string {
	return "zones"
}

// Validate 字段校验
func (z *Zone) Validate() error {
	z.Name = strings.TrimSpace(z.Name)
	if z.Name == "" {
		return apperrors.Validation("分区名称不能为空")
	}
	if z.AreaHa < 0 {
		return apperrors.Validation("面积不能为负数")
	}
	return nil
}

// ResourceTenantID 实现 policy.Resource
func (z *Zone) ResourceTenantID() *uint {
	return z.TenantID
}

// ResourceOwnerID 实现 policy.Resource
func (z *Zone) ResourceOwnerID() uint {
	return z.OwnerID
}
