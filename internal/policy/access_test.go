package policy

import (
	"testing"

	"cropcare/internal/models"

	"github.com/stretchr/testify/assert"
)

type resource struct {
	tenant *uint
	owner  uint
}

func (r resource) ResourceTenantID() *uint { return r.tenant }
func (r resource) ResourceOwnerID() uint   { return r.owner }

func u(v uint) *uint { return &v }

func member(userID uint, tenant *uint, role models.Role, canManage, isActive bool) *models.Membership {
	return &models.Membership{
		UserID:             userID,
		TenantID:           tenant,
		Role:               role,
		CanManageResources: canManage,
		IsActive:           isActive,
	}
}

func TestCanRead(t *testing.T) {
	tenantX := resource{tenant: u(1), owner: 50}
	tenantY := resource{tenant: u(2), owner: 51}
	personal := resource{owner: 7}

	cases := []struct {
		name string
		m    *models.Membership
		r    Resource
		want bool
	}{
		{"admin own tenant", member(1, u(1), models.RoleAdmin, true, true), tenantX, true},
		{"admin other tenant", member(1, u(1), models.RoleAdmin, true, true), tenantY, false},
		{"worker own tenant without manage", member(2, u(1), models.RoleWorker, false, true), tenantX, true},
		{"worker other tenant", member(2, u(1), models.RoleWorker, true, true), tenantY, false},
		{"worker personal resource", member(2, u(1), models.RoleWorker, true, true), personal, false},
		{"individual own", member(7, nil, models.RoleIndividual, false, true), personal, true},
		{"individual someone else", member(8, nil, models.RoleIndividual, false, true), personal, false},
		{"inactive admin", member(1, u(1), models.RoleAdmin, true, false), tenantX, false},
		{"nil membership", nil, tenantX, false},
		{"nil resource", member(1, u(1), models.RoleAdmin, true, true), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanRead(tc.m, tc.r))
		})
	}
}

func TestCanWrite(t *testing.T) {
	tenantX := resource{tenant: u(1), owner: 50}
	personal := resource{owner: 7}
	ownedInTenant := resource{tenant: u(1), owner: 7}

	cases := []struct {
		name string
		m    *models.Membership
		r    Resource
		want bool
	}{
		{"admin own tenant", member(1, u(1), models.RoleAdmin, false, true), tenantX, true},
		{"admin other tenant", member(1, u(2), models.RoleAdmin, true, true), tenantX, false},
		{"worker with manage", member(2, u(1), models.RoleWorker, true, true), tenantX, true},
		{"worker without manage", member(2, u(1), models.RoleWorker, false, true), tenantX, false},
		{"individual own personal", member(7, nil, models.RoleIndividual, false, true), personal, true},
		{"individual owned but tenant bound", member(7, nil, models.RoleIndividual, false, true), ownedInTenant, false},
		{"inactive worker", member(2, u(1), models.RoleWorker, true, false), tenantX, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanWrite(tc.m, tc.r))
		})
	}
}

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(member(1, u(1), models.RoleAdmin, true, true), u(1)))
	assert.False(t, CanCreate(member(1, u(1), models.RoleAdmin, true, true), u(2)))
	assert.False(t, CanCreate(member(1, u(1), models.RoleAdmin, true, true), nil))
	assert.True(t, CanCreate(member(2, u(1), models.RoleWorker, true, true), u(1)))
	assert.False(t, CanCreate(member(2, u(1), models.RoleWorker, false, true), u(1)))
	assert.True(t, CanCreate(member(3, nil, models.RoleIndividual, false, true), nil))
	assert.False(t, CanCreate(member(3, nil, models.RoleIndividual, false, true), u(1)))
	assert.False(t, CanCreate(nil, nil))
}

func TestCompanyHelpers(t *testing.T) {
	admin := member(1, u(1), models.RoleAdmin, true, true)
	worker := member(2, u(1), models.RoleWorker, false, true)
	indiv := member(3, nil, models.RoleIndividual, false, true)

	assert.True(t, IsCompanyAdmin(admin))
	assert.False(t, IsCompanyAdmin(worker))
	assert.True(t, IsCompanyMember(worker))
	assert.False(t, IsCompanyMember(indiv))
	assert.True(t, CanManageTenant(admin, 1))
	assert.False(t, CanManageTenant(admin, 2))

	admin.IsActive = false
	assert.False(t, IsCompanyAdmin(admin))
}
