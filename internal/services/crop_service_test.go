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

func TestCropAccessFollowsZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	crops := NewCropService(f.db, f.zones)
	x := f.registerAdmin(t, "X001", "admin@x.cl")
	y := f.registerAdmin(t, "Y001", "admin@y.cl")

	reader := f.newUser(t, "reader@x.cl")
	readerM, err := f.redemption.Redeem(ctx, f.newCode(t, x, 1).Code, reader.ID)
	require.NoError(t, err)

	zone, err := f.zones.Create(ctx, x.Membership, ZoneParams{Name: strPtr("Cuartel Norte")})
	require.NoError(t, err)

	crop, err := crops.Create(ctx, x.Membership, zone.ID, CropParams{Name: strPtr(" Cerezo "), Variety: strPtr("Lapins")})
	require.NoError(t, err)
	assert.Equal(t, "Cerezo", crop.Name)
	require.NotNil(t, crop.TenantID)
	assert.Equal(t, x.Tenant.ID, *crop.TenantID)

	_, err = crops.Create(ctx, x.Membership, zone.ID, CropParams{Name: strPtr("Cerezo")})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "got %v", err)

	// 员工可读不可写
	_, err = crops.Create(ctx, readerM, zone.ID, CropParams{Name: strPtr("Nogal")})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	got, err := crops.Get(ctx, readerM, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lapins", got.Variety)
	_, err = crops.Update(ctx, readerM, crop.ID, CropParams{Notes: strPtr("poda")})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	list, total, err := crops.ListByZone(ctx, readerM, zone.ID, &pagination.PageParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	// 其它公司看不到
	_, err = crops.Get(ctx, y.Membership, crop.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	_, _, err = crops.ListByZone(ctx, y.Membership, zone.ID, &pagination.PageParams{Page: 1, PageSize: 10})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	_, err = crops.Create(ctx, y.Membership, zone.ID, CropParams{Name: strPtr("Intruso")})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	updated, err := crops.Update(ctx, x.Membership, crop.ID, CropParams{Notes: strPtr("riego semanal")})
	require.NoError(t, err)
	assert.Equal(t, "riego semanal", updated.Notes)

	require.NoError(t, crops.Delete(ctx, x.Membership, crop.ID))
	assert.Equal(t, int64(0), f.countRows(t, &models.Crop{}, "id = ?", crop.ID))
}

func TestIndividualCrops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	crops := NewCropService(f.db, f.zones)
	solo, err := f.memberships.RegisterIndividual(ctx, UserParams{Email: "solo@example.com", Password: "Password123"})
	require.NoError(t, err)
	other, err := f.memberships.RegisterIndividual(ctx, UserParams{Email: "other@example.com", Password: "Password123"})
	require.NoError(t, err)

	zone, err := f.zones.Create(ctx, solo.Membership, ZoneParams{Name: strPtr("Huerto")})
	require.NoError(t, err)
	crop, err := crops.Create(ctx, solo.Membership, zone.ID, CropParams{Name: strPtr("Tomate")})
	require.NoError(t, err)
	assert.Nil(t, crop.TenantID)

	_, err = crops.Get(ctx, other.Membership, crop.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = crops.Create(ctx, solo.Membership, zone.ID, CropParams{Name: strPtr(" ")})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
