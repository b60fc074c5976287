package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/bizgrid/notification-gateway/pkg/pg"
	"github.com/bizgrid/notification-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.TenantEntity{},
		&repository.UserRoleEntity{},
		&repository.CreditLedgerEntity{},
		&repository.MessageLogEntity{},
		&repository.NotificationEntity{},
		&repository.SubscriptionEntity{},
		&repository.SubscriptionPaymentEntity{},
		&repository.WatchedLinkEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestTenant(t *testing.T, db *pg.DB, id, userID int64, plan string) *repository.TenantEntity {
	ctx := context.Background()
	tenant := &repository.TenantEntity{
		ID:          id,
		UserID:      userID,
		CompanyName: "Tenant " + time.Now().Format("150405.000"),
		Phone:       "+15550000",
		Plan:        plan,
		Status:      "active",
	}
	err := db.Write(ctx).Create(tenant).Error
	require.NoError(t, err)
	return tenant
}

func CreateTestLedgerEntry(t *testing.T, db *pg.DB, tenantID int64, month time.Time, allocated, used int) *repository.CreditLedgerEntity {
	ctx := context.Background()
	entry := &repository.CreditLedgerEntity{
		TenantID:         tenantID,
		Month:            month,
		CreditsAllocated: allocated,
		CreditsUsed:      used,
	}
	err := db.Write(ctx).Create(entry).Error
	require.NoError(t, err)
	return entry
}

func CreateTestSubscription(t *testing.T, db *pg.DB, tenantID int64, plan, status string) *repository.SubscriptionEntity {
	ctx := context.Background()
	sub := &repository.SubscriptionEntity{
		TenantID: tenantID,
		Plan:     plan,
		Status:   status,
	}
	err := db.Write(ctx).Create(sub).Error
	require.NoError(t, err)
	return sub
}

func CreateTestPayment(t *testing.T, db *pg.DB, subscriptionID int64, month time.Time, status string) *repository.SubscriptionPaymentEntity {
	ctx := context.Background()
	payment := &repository.SubscriptionPaymentEntity{
		SubscriptionID: subscriptionID,
		Month:          month,
		Status:         status,
	}
	err := db.Write(ctx).Create(payment).Error
	require.NoError(t, err)
	return payment
}

func CreateTestWatchedLink(t *testing.T, db *pg.DB, tenantID int64, url string, lastVisitedAt *time.Time) *repository.WatchedLinkEntity {
	ctx := context.Background()
	link := &repository.WatchedLinkEntity{
		TenantID:      tenantID,
		URL:           url,
		LastVisitedAt: lastVisitedAt,
	}
	err := db.Write(ctx).Create(link).Error
	require.NoError(t, err)
	return link
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
