//go:build integration

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cropcare/internal/database"
	"cropcare/internal/models"
	apperrors "cropcare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresFixture 真实的行锁行为只能在 PostgreSQL 上验证
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("cropcare"),
		tcpostgres.WithUsername("cropcare"),
		tcpostgres.WithPassword("cropcare"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(32)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateDB(db))
	require.NoError(t, database.SeedRoles(db))

	f := newFixtureWithDB(db)
	// PostgreSQL 时间戳精度为微秒
	f.now = time.Now().UTC().Truncate(time.Microsecond)
	return f
}

func TestPostgresCapacityUnderConcurrency(t *testing.T) {
	f := newPostgresFixture(t)
	admin := f.registerAdmin(t, "X001", "admin@x.cl")
	const maxUses, attempts = 5, 24
	code := f.newCode(t, admin, maxUses)

	users := make([]*models.User, attempts)
	for i := range users {
		users[i] = f.newUser(t, fmt.Sprintf("w%d@example.com", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
		other     []error
	)
	start := make(chan struct{})
	for _, u := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			<-start
			_, err := f.redemption.Redeem(context.Background(), code.Code, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.IsKind(err, apperrors.KindExpiredOrExhausted):
				exhausted++
			default:
				other = append(other, err)
			}
		}(u.ID)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, maxUses, succeeded)
	assert.Equal(t, attempts-maxUses, exhausted)
	assert.Equal(t, maxUses, f.reloadCode(t, code.ID).UsedCount)
	assert.Equal(t, int64(maxUses), f.countRows(t, &models.InvitationCodeUsage{}, "code_id = ?", code.ID))
}

func TestPostgresUserJoinsOnlyOneTenant(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	x := f.registerAdmin(t, "X001", "admin@x.cl")
	y := f.registerAdmin(t, "Y001", "admin@y.cl")
	codeX := f.newCode(t, x, 1)
	codeY := f.newCode(t, y, 1)

	solo, err := f.memberships.RegisterIndividual(ctx, UserParams{Email: "solo@example.com", Password: "Password123"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, code := range []string{codeX.Code, codeY.Code} {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			_, errs[i] = f.redemption.Redeem(ctx, code, solo.User.ID)
		}(i, code)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.IsKind(err, apperrors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	var m models.Membership
	require.NoError(t, f.db.Where("user_id = ?", solo.User.ID).First(&m).Error)
	require.NotNil(t, m.TenantID)
	used := f.reloadCode(t, codeX.ID).UsedCount + f.reloadCode(t, codeY.ID).UsedCount
	assert.Equal(t, 1, used)
}
