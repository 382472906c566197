// Package policy 租户范围资源的访问判定，纯函数，无 I/O。
package policy

import "cropcare/internal/models"

// Resource 受访问控制的资源
type Resource interface {
	ResourceTenantID() *uint // 个人资源为 nil
	ResourceOwnerID() uint
}

func active(m *models.Membership) bool {
	return m != nil && m.IsActive
}

func sameTenant(m *models.Membership, tenantID *uint) bool {
	return tenantID != nil && m.BelongsTo(*tenantID)
}

// CanRead 公司成员可读本公司资源，个人用户可读自己拥有的资源
func CanRead(m *models.Membership, r Resource) bool {
	if !active(m) || r == nil {
		return false
	}
	switch m.Role {
	case models.RoleAdmin, models.RoleWorker:
		return sameTenant(m, r.ResourceTenantID())
	case models.RoleIndividual:
		return r.ResourceOwnerID() == m.UserID
	}
	return false
}

// CanWrite ADMIN 可写本公司资源；WORKER 需要 can_manage_resources；个人用户只能写自己的非公司资源
func CanWrite(m *models.Membership, r Resource) bool {
	if !active(m) || r == nil {
		return false
	}
	switch m.Role {
	case models.RoleAdmin:
		return sameTenant(m, r.ResourceTenantID())
	case models.RoleWorker:
		return m.CanManageResources && sameTenant(m, r.ResourceTenantID())
	case models.RoleIndividual:
		return r.ResourceTenantID() == nil && r.ResourceOwnerID() == m.UserID
	}
	return false
}

// CanCreate 判断能否在指定公司下新建资源，tenantID 为 nil 表示个人资源
func CanCreate(m *models.Membership, tenantID *uint) bool {
	if !active(m) {
		return false
	}
	switch m.Role {
	case models.RoleAdmin:
		return sameTenant(m, tenantID)
	case models.RoleWorker:
		return m.CanManageResources && sameTenant(m, tenantID)
	case models.RoleIndividual:
		return tenantID == nil
	}
	return false
}

// IsCompanyAdmin 有效的公司管理员
func IsCompanyAdmin(m *models.Membership) bool {
	return active(m) && m.Role == models.RoleAdmin && m.HasTenant()
}

// IsCompanyMember 有效的公司成员（ADMIN 或 WORKER）
func IsCompanyMember(m *models.Membership) bool {
	return active(m) && m.Role.IsCompanyRole() && m.HasTenant()
}

// CanManageTenant 管理员管理本公司（邀请码、员工）
func CanManageTenant(m *models.Membership, tenantID uint) bool {
	return IsCompanyAdmin(m) && m.BelongsTo(tenantID)
}
