package models

import (
	"strings"

	apperrors "cropcare/pkg/errors"
)

// Role 成员角色，封闭枚举
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleWorker     Role = "WORKER"
	RoleIndividual Role = "INDIVIDUAL"
)

// RoleInfo 角色元数据
type RoleInfo struct {
	Role               Role
	DisplayName        string
	RequiresTenant     bool // ADMIN/WORKER 必须绑定租户，INDIVIDUAL 不能绑定
	RequiresStaff      bool
	DefaultCanManage   bool // can_manage_resources 默认值
	RedeemableByInvite bool // 可以作为邀请码的目标角色
}

// 固定角色表，进程启动时与 roles 表核对一次
var roleCatalog = map[Role]RoleInfo{
	RoleAdmin: {
		Role:             RoleAdmin,
		DisplayName:      "Administrador",
		RequiresTenant:   true,
		RequiresStaff:    true,
		DefaultCanManage: true,
	},
	RoleWorker: {
		Role:               RoleWorker,
		DisplayName:        "Trabajador",
		RequiresTenant:     true,
		RedeemableByInvite: true,
	},
	RoleIndividual: {
		Role:        RoleIndividual,
		DisplayName: "Individual",
	},
}

// LookupRole 查询角色元数据
func LookupRole(role Role) (RoleInfo, bool) {
	info, ok := roleCatalog[role]
	return info, ok
}

// Roles 所有角色，顺序固定
func Roles() []Role {
	return []Role{RoleAdmin, RoleWorker, RoleIndividual}
}

// ParseRole 解析角色字符串（不区分大小写）
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleCatalog[role]; !ok {
		return "", apperrors.Validationf("未知角色 %q", s)
	}
	return role, nil
}

func (r Role) String() string {
	return string(r)
}

// IsCompanyRole ADMIN 或 WORKER
func (r Role) IsCompanyRole() bool {
	info, ok := roleCatalog[r]
	return ok && info.RequiresTenant
}

// RoleRecord 角色种子数据，只在启动时用于核对角色表
type RoleRecord struct {
	BaseModel
	Code string `json:"code" gorm:"uniqueIndex;not null;size:20"`
	Name string `json:"name" gorm:"not null;size:100"`
}

// TableName 表名
func (RoleRecord) TableName() string {
	return "roles"
}
