package services

import (
	"context"
	"testing"

	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAdmin(t *testing.T) {
	f := newFixture(t)
	res := f.registerAdmin(t, " 76123456-k ", "Boss@Fundo.CL")

	assert.Equal(t, "76123456-K", res.Tenant.TaxID)
	assert.Equal(t, models.DefaultCountry, res.Tenant.Country)
	assert.Equal(t, "boss@fundo.cl", res.User.Email)
	assert.True(t, res.User.IsStaff)
	assert.Equal(t, models.RoleAdmin, res.Membership.Role)
	assert.True(t, res.Membership.CanManageResources)

	var tenant models.Tenant
	require.NoError(t, f.db.First(&tenant, res.Tenant.ID).Error)
	require.NotNil(t, tenant.OwnerID)
	assert.Equal(t, res.User.ID, *tenant.OwnerID)
}

func TestRegisterAdminDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAdmin(t, "X001", "admin@x.cl")

	_, err := f.memberships.RegisterAdmin(ctx, RegisterAdminParams{
		UserParams: UserParams{Email: "admin@x.cl", Password: "Password123"},
		TaxID:      "X002",
		TenantName: "Otro",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = f.memberships.RegisterAdmin(ctx, RegisterAdminParams{
		UserParams: UserParams{Email: "new@x.cl", Password: "Password123"},
		TaxID:      "x001",
		TenantName: "Mismo",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	// 事务回滚，用户未创建
	assert.Equal(t, int64(0), f.countRows(t, &models.User{}, "email = ?", "new@x.cl"))
}

func TestRegisterAdminValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.memberships.RegisterAdmin(context.Background(), RegisterAdminParams{
		UserParams: UserParams{Email: "not-an-email", Password: "Password123"},
		TaxID:      "X001",
		TenantName: "Fundo",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = f.memberships.RegisterAdmin(context.Background(), RegisterAdminParams{
		UserParams: UserParams{Email: "a@x.cl", Password: "short"},
		TaxID:      "X001",
		TenantName: "Fundo",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestRegisterWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.registerAdmin(t, "X001", "admin@x.cl")
	code := f.newCode(t, admin, 1)

	res, err := f.memberships.RegisterWorker(ctx, RegisterWorkerParams{
		UserParams: UserParams{Email: "worker@x.cl", Password: "Password123", FirstName: "Juan"},
		Code:       code.Code,
		Metadata:   models.UsageMetadata{ClientIP: "10.1.1.1", UserAgent: "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, res.Membership.Role)
	assert.True(t, res.Membership.BelongsTo(admin.Tenant.ID))
	assert.False(t, res.User.IsStaff)
	assert.Equal(t, 1, f.reloadCode(t, code.ID).UsedCount)

	var usage models.InvitationCodeUsage
	require.NoError(t, f.db.Where("code_id = ? AND user_id = ?", code.ID, res.User.ID).First(&usage).Error)
	assert.Contains(t, string(usage.Metadata), "10.1.1.1")
	assert.Contains(t, string(usage.Metadata), "register")
}

func TestRegisterWorkerFailureLeavesNoUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.registerAdmin(t, "X001", "admin@x.cl")
	code := f.newCode(t, admin, 1)
	first := f.newUser(t, "first@x.cl")
	_, err := f.redemption.Redeem(ctx, code.Code, first.ID)
	require.NoError(t, err)

	_, err = f.memberships.RegisterWorker(ctx, RegisterWorkerParams{
		UserParams: UserParams{Email: "late@x.cl", Password: "Password123"},
		Code:       code.Code,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindExpiredOrExhausted))
	assert.Equal(t, int64(0), f.countRows(t, &models.User{}, "email = ?", "late@x.cl"))

	_, err = f.memberships.RegisterWorker(ctx, RegisterWorkerParams{
		UserParams: UserParams{Email: "ghost@x.cl", Password: "Password123"},
		Code:       "DOESNOTEXIST",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.Equal(t, int64(0), f.countRows(t, &models.User{}, "email = ?", "ghost@x.cl"))
}

func TestCreateWorkerDirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.registerAdmin(t, "X001", "admin@x.cl")

	res, err := f.memberships.CreateWorker(ctx, admin.Membership, CreateWorkerParams{
		UserParams:         UserParams{Email: "direct@x.cl", Password: "Password123"},
		CanManageResources: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, res.Membership.Role)
	assert.True(t, res.Membership.CanManageResources)
	require.NotNil(t, res.Membership.InvitedBy)
	assert.Equal(t, admin.User.ID, *res.Membership.InvitedBy)
	assert.Equal(t, int64(0), f.countRows(t, &models.InvitationCodeUsage{}, "user_id = ?", res.User.ID))

	// 员工不能创建员工
	_, err = f.memberships.CreateWorker(ctx, res.Membership, CreateWorkerParams{
		UserParams: UserParams{Email: "other@x.cl", Password: "Password123"},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestWorkerManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.registerAdmin(t, "X001", "admin@x.cl")
	y := f.registerAdmin(t, "Y001", "admin@y.cl")
	code := f.newCode(t, x, 5)

	var workers []*models.User
	for _, email := range []string{"w1@x.cl", "w2@x.cl"} {
		u := f.newUser(t, email)
		_, err := f.redemption.Redeem(ctx, code.Code, u.ID)
		require.NoError(t, err)
		workers = append(workers, u)
	}
	page := &pagination.PageParams{Page: 1, PageSize: 10}

	list, total, err := f.memberships.ListWorkers(ctx, x.Membership, false, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	m, err := f.memberships.SetCanManageResources(ctx, x.Membership, workers[0].ID, true)
	require.NoError(t, err)
	assert.True(t, m.CanManageResources)

	m, err = f.memberships.DeactivateWorker(ctx, x.Membership, workers[1].ID)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	assert.True(t, m.BelongsTo(x.Tenant.ID))

	list, total, err = f.memberships.ListWorkers(ctx, x.Membership, false, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "w1@x.cl", list[0].Email)

	_, total, err = f.memberships.ListWorkers(ctx, x.Membership, true, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 其它公司的管理员看不到也改不了
	_, err = f.memberships.DeactivateWorker(ctx, y.Membership, workers[0].ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// 管理员不能被当作员工停用
	_, err = f.memberships.DeactivateWorker(ctx, x.Membership, x.User.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.registerAdmin(t, "X001", "admin@x.cl")

	res, err := f.users.Login(ctx, "ADMIN@x.cl", "Password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.Membership)
	assert.Equal(t, admin.Tenant.ID, res.Membership.TenantIDValue())
	assert.NotNil(t, res.User.LastLoginAt)

	claims, err := f.users.tokens.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.Tenant.ID, claims.TenantID)
	assert.Equal(t, "ADMIN", claims.Role)

	_, err = f.users.Login(ctx, "admin@x.cl", "wrong")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	_, err = f.users.Login(ctx, "nobody@x.cl", "Password123")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}
