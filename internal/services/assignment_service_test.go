package services

import (
	"context"
	"testing"
	"time"

	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignWorkerZones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assignments := NewAssignmentService(f.db)
	assignments.now = func() time.Time { return f.now }
	x := f.registerAdmin(t, "X001", "admin@x.cl")
	y := f.registerAdmin(t, "Y001", "admin@y.cl")
	code := f.newCode(t, x, 2)

	w1 := f.newUser(t, "w1@x.cl")
	w1M, err := f.redemption.Redeem(ctx, code.Code, w1.ID)
	require.NoError(t, err)
	w2 := f.newUser(t, "w2@x.cl")
	w2M, err := f.redemption.Redeem(ctx, code.Code, w2.ID)
	require.NoError(t, err)

	var zoneIDs []uint
	for _, name := range []string{"Norte", "Sur", "Este"} {
		z, err := f.zones.Create(ctx, x.Membership, ZoneParams{Name: strPtr(name)})
		require.NoError(t, err)
		zoneIDs = append(zoneIDs, z.ID)
	}
	foreign, err := f.zones.Create(ctx, y.Membership, ZoneParams{Name: strPtr("Ajena")})
	require.NoError(t, err)

	res, err := assignments.AssignZones(ctx, x.Membership, AssignZonesParams{
		WorkerID: w1.ID,
		ZoneIDs:  []uint{zoneIDs[0], zoneIDs[1], zoneIDs[0]},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{zoneIDs[0], zoneIDs[1]}, res.ZoneIDs)

	// 覆盖式分配
	_, err = assignments.AssignZones(ctx, x.Membership, AssignZonesParams{WorkerID: w1.ID, ZoneIDs: []uint{zoneIDs[2]}})
	require.NoError(t, err)
	got, err := assignments.WorkerZones(ctx, w1M, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{zoneIDs[2]}, got.ZoneIDs)

	got, err = assignments.WorkerZones(ctx, x.Membership, w2.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ZoneIDs)

	// 员工只能看自己的分配
	_, err = assignments.WorkerZones(ctx, w2M, w1.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// 员工不能分配
	_, err = assignments.AssignZones(ctx, w1M, AssignZonesParams{WorkerID: w2.ID, ZoneIDs: []uint{zoneIDs[0]}})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// 其它公司的分区和员工
	_, err = assignments.AssignZones(ctx, x.Membership, AssignZonesParams{WorkerID: w1.ID, ZoneIDs: []uint{foreign.ID}})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	_, err = assignments.AssignZones(ctx, y.Membership, AssignZonesParams{WorkerID: w1.ID, ZoneIDs: []uint{foreign.ID}})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	_, err = assignments.WorkerZones(ctx, y.Membership, w1.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// 管理员不是员工
	_, err = assignments.AssignZones(ctx, x.Membership, AssignZonesParams{WorkerID: x.User.ID, ZoneIDs: []uint{zoneIDs[0]}})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// 校验失败时原有分配不变
	assert.Equal(t, int64(1), f.countRows(t, &models.WorkerZoneAssignment{}, "user_id = ?", w1.ID))
}

func TestListAssignedZones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assignments := NewAssignmentService(f.db)
	x := f.registerAdmin(t, "X001", "admin@x.cl")

	w := f.newUser(t, "w@x.cl")
	wM, err := f.redemption.Redeem(ctx, f.newCode(t, x, 1).Code, w.ID)
	require.NoError(t, err)

	norte, err := f.zones.Create(ctx, x.Membership, ZoneParams{Name: strPtr("Norte")})
	require.NoError(t, err)
	_, err = f.zones.Create(ctx, x.Membership, ZoneParams{Name: strPtr("Sur")})
	require.NoError(t, err)
	_, err = assignments.AssignZones(ctx, x.Membership, AssignZonesParams{WorkerID: w.ID, ZoneIDs: []uint{norte.ID}})
	require.NoError(t, err)

	page := &pagination.PageParams{Page: 1, PageSize: 10}
	zones, total, err := f.zones.ListAssigned(ctx, wM, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, zones, 1)
	assert.Equal(t, norte.ID, zones[0].ID)

	// 公司范围的读取不受分配限制
	_, total, err = f.zones.List(ctx, wM, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = f.zones.ListAssigned(ctx, x.Membership, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
