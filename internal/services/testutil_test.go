package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cropcare/internal/database"
	"cropcare/internal/models"
	"cropcare/pkg/jwt"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq int64

// newTestDB 内存 SQLite，单连接使事务串行执行
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateDB(db))
	require.NoError(t, database.SeedRoles(db))
	return db
}

type fixture struct {
	db          *gorm.DB
	now         time.Time
	invitations *InvitationService
	redemption  *RedemptionService
	memberships *MembershipService
	users       *UserService
	zones       *ZoneService
	tenants     *TenantService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithDB(newTestDB(t))
}

// newFixtureWithDB 服务共用一个固定时钟
func newFixtureWithDB(db *gorm.DB) *fixture {
	opts := DefaultOptions()

	f := &fixture{
		db:  db,
		now: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	f.invitations = NewInvitationService(db, opts)
	f.redemption = NewRedemptionService(db, opts)
	f.memberships = NewMembershipService(db, f.redemption)
	f.users = NewUserService(db, jwt.NewJWTManager("test-secret", time.Hour))
	f.zones = NewZoneService(db)
	f.tenants = NewTenantService(db)

	clock := func() time.Time { return f.now }
	f.invitations.now = clock
	f.redemption.now = clock
	f.memberships.now = clock
	f.users.now = clock
	f.tenants.now = clock
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) registerAdmin(t *testing.T, taxID, email string) *RegistrationResult {
	t.Helper()
	res, err := f.memberships.RegisterAdmin(context.Background(), RegisterAdminParams{
		UserParams: UserParams{Email: email, Password: "Password123", FirstName: "Admin"},
		TaxID:      taxID,
		TenantName: "Fundo " + taxID,
	})
	require.NoError(t, err)
	return res
}

// newUser 创建没有成员关系的用户
func (f *fixture) newUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := createUser(f.db, UserParams{Email: email, Password: "Password123"}, false)
	require.NoError(t, err)
	return user
}

func (f *fixture) newCode(t *testing.T, admin *RegistrationResult, maxUses int) *models.InvitationCode {
	t.Helper()
	code, err := f.invitations.CreateInvitationCode(context.Background(), CreateCodeParams{
		TenantID:  admin.Tenant.ID,
		CreatorID: admin.User.ID,
		MaxUses:   maxUses,
	})
	require.NoError(t, err)
	return code
}

func (f *fixture) reloadCode(t *testing.T, id uint) *models.InvitationCode {
	t.Helper()
	var code models.InvitationCode
	require.NoError(t, f.db.First(&code, id).Error)
	return &code
}

func (f *fixture) countRows(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}
