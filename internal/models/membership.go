package models

import (
	"time"

	apperrors "cropcare/pkg/errors"

	"gorm.io/gorm"
)

// Membership 用户与公司的绑定，每个用户最多一条
type Membership struct {
	BaseModel
	UserID             uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	TenantID           *uint     `json:"tenant_id" gorm:"index"` // 一旦非空不可更改
	Role               Role      `json:"role" gorm:"not null;size:20"`
	IsActive           bool      `json:"is_active" gorm:"not null"`
	CanManageResources bool      `json:"can_manage_resources" gorm:"not null"`
	JoinedAt           time.Time `json:"joined_at" gorm:"not null"`
	InvitedBy          *uint     `json:"invited_by"`
}

// TableName 表名
func (Membership) TableName() string {
	return "memberships"
}

// Affiliation 成员归属：公司成员或个人用户
type Affiliation interface {
	isAffiliation()
}

// CompanyAffiliation 属于某个公司，角色为 ADMIN 或 WORKER
type CompanyAffiliation struct {
	TenantID uint
	Role     Role
}

// IndividualAffiliation 不属于任何公司
type IndividualAffiliation struct{}

func (CompanyAffiliation) isAffiliation()    {}
func (IndividualAffiliation) isAffiliation() {}

// NewCompanyMembership 构造公司成员，role 只能是 ADMIN 或 WORKER
func NewCompanyMembership(userID, tenantID uint, role Role, now time.Time) (*Membership, error) {
	info, ok := LookupRole(role)
	if !ok || !info.RequiresTenant {
		return nil, apperrors.Conflict("角色 " + string(role) + " 不能属于公司")
	}
	if tenantID == 0 {
		return nil, apperrors.Conflict("公司成员关系必须指定公司")
	}
	tid := tenantID
	return &Membership{
		UserID:             userID,
		TenantID:           &tid,
		Role:               role,
		IsActive:           true,
		CanManageResources: info.DefaultCanManage,
		JoinedAt:           now,
	}, nil
}

// NewIndividualMembership 构造个人用户
func NewIndividualMembership(userID uint, now time.Time) *Membership {
	return &Membership{
		UserID:   userID,
		Role:     RoleIndividual,
		IsActive: true,
		JoinedAt: now,
	}
}

// Affiliation 返回归属变体
func (m *Membership) Affiliation() Affiliation {
	if m.TenantID == nil {
		return IndividualAffiliation{}
	}
	return CompanyAffiliation{TenantID: *m.TenantID, Role: m.Role}
}

// Validate 检查角色与租户是否一致
func (m *Membership) Validate() error {
	info, ok := LookupRole(m.Role)
	if !ok {
		return apperrors.Conflict("未知的成员角色 " + string(m.Role))
	}
	if info.RequiresTenant && (m.TenantID == nil || *m.TenantID == 0) {
		return apperrors.Conflict(string(m.Role) + " 成员关系必须指定公司")
	}
	if !info.RequiresTenant && m.TenantID != nil {
		return apperrors.Conflict(string(m.Role) + " 成员关系不能指定公司")
	}
	return nil
}

// BeforeCreate 写入前校验
func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	return m.Validate()
}

// HasTenant 是否已绑定公司
func (m *Membership) HasTenant() bool {
	return m.TenantID != nil
}

// BelongsTo 是否属于指定公司
func (m *Membership) BelongsTo(tenantID uint) bool {
	return m.TenantID != nil && *m.TenantID == tenantID
}

// TenantIDValue 未绑定时返回 0
func (m *Membership) TenantIDValue() uint {
	if m.TenantID == nil {
		return 0
	}
	return *m.TenantID
}
