package e2e

import (
	"context"
	"fmt"
	"net"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gateway "github.com/bizgrid/notification-gateway/internal/gateways"
	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/processor"
	"github.com/bizgrid/notification-gateway/internal/queue"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/bizgrid/notification-gateway/internal/services"
	"github.com/bizgrid/notification-gateway/pkg/pg"
	"github.com/bizgrid/notification-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB = pg.DB

type TestEnvironment struct {
	DB              *pg.DB
	RawDB           *gorm.DB
	Redis           *miniredis.Miniredis
	RedisAdapter    redis.RedisAdapter
	Queue           *queue.Queue
	GatewayRequests *atomic.Int64

	TenantRepo       *repository.TenantRepository
	LedgerRepo       *repository.LedgerRepository
	MessageLogRepo   *repository.MessageLogRepository
	NotificationRepo *repository.NotificationRepository
	SubscriptionRepo *repository.SubscriptionRepository
	WatchedLinkRepo  *repository.WatchedLinkRepository

	LedgerService       *services.LedgerService
	DispatchService     *services.DispatchService
	NotificationService *services.NotificationService
	FanoutService       *services.FanoutService
	ReminderService     *services.ReminderService
	WatchdogService     *services.WatchdogService
	Processor           *processor.NotificationProcessor
}

func planDefaults() map[model.SubscriptionPlan]int {
	return map[model.SubscriptionPlan]int{
		model.PlanFreeTrial: 10,
		model.PlanBasic:     50,
		model.PlanStandard:  200,
		model.PlanPro:       500,
	}
}

// startAcceptingGateway runs a loopback SMS gateway that accepts everything
// with code 101 and counts requests.
func startAcceptingGateway(t *testing.T, requests *atomic.Int64) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		n := requests.Add(1)
		mobile := string(ctx.PostArgs().Peek("mobile"))
		ctx.SetContentType("application/json")
		fmt.Fprintf(ctx, `{"responses":[{"response_code":101,"message_id":"e2e-%d","response_description":"accepted","mobile":%q}]}`, n, mobile)
	}}
	go srv.Serve(ln) //nolint:errcheck

	t.Cleanup(func() {
		srv.Shutdown() //nolint:errcheck
	})

	return "http://" + ln.Addr().String()
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
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

	pgDB := &testDB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := queue.NewQueue(redisAdapter, queue.QueueConfig{
		Name:              "test:notifications",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	})
	require.NoError(t, err)

	requests := &atomic.Int64{}
	gw, err := gateway.NewClient(&gateway.Config{
		URL:      startAcceptingGateway(t, requests),
		Username: "e2e",
		APIKey:   "e2e-key",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	tenantRepo := repository.NewTenantRepository(pgDB)
	ledgerRepo := repository.NewLedgerRepository(pgDB)
	messageLogRepo := repository.NewMessageLogRepository(pgDB)
	notificationRepo := repository.NewNotificationRepository(pgDB)
	subscriptionRepo := repository.NewSubscriptionRepository(pgDB)
	watchedLinkRepo := repository.NewWatchedLinkRepository(pgDB)

	ledgerService := services.NewLedgerService(ledgerRepo, tenantRepo, planDefaults())
	dispatchService := services.NewDispatchService(ledgerService, messageLogRepo, gw)
	notificationService := services.NewNotificationService(notificationRepo, q)
	fanoutService := services.NewFanoutService(tenantRepo, dispatchService)
	reminderService := services.NewReminderService(subscriptionRepo, tenantRepo, notificationService)
	watchdogService := services.NewWatchdogService(watchedLinkRepo, tenantRepo, notificationService)
	proc := processor.NewNotificationProcessor(fanoutService, redisAdapter)

	return &TestEnvironment{
		DB:                  pgDB,
		RawDB:               db,
		Redis:               mr,
		RedisAdapter:        redisAdapter,
		Queue:               q,
		GatewayRequests:     requests,
		TenantRepo:          tenantRepo,
		LedgerRepo:          ledgerRepo,
		MessageLogRepo:      messageLogRepo,
		NotificationRepo:    notificationRepo,
		SubscriptionRepo:    subscriptionRepo,
		WatchedLinkRepo:     watchedLinkRepo,
		LedgerService:       ledgerService,
		DispatchService:     dispatchService,
		NotificationService: notificationService,
		FanoutService:       fanoutService,
		ReminderService:     reminderService,
		WatchdogService:     watchdogService,
		Processor:           proc,
	}
}

func (env *TestEnvironment) Cleanup() {
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	time.Sleep(100 * time.Millisecond)
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func (env *TestEnvironment) seedTenant(t *testing.T, id, userID int64, phone string, plan model.SubscriptionPlan) {
	err := env.RawDB.Create(&repository.TenantEntity{
		ID:     id,
		UserID: userID,
		Phone:  phone,
		Plan:   string(plan),
		Status: "active",
	}).Error
	require.NoError(t, err)
}

func TestE2E_NotificationFanoutDeliversSMS(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanBasic)

	created, err := env.NotificationService.Create(ctx, model.NotificationCreateRequest{
		UserID:  10,
		Type:    model.NotificationInvoice,
		Title:   "Payment Reminder",
		Message: "invoice overdue",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	err = env.Queue.Consume(env.Processor.Process)
	require.NoError(t, err)

	// The consumer must hand exactly one SMS to the gateway.
	deadline := time.Now().Add(3 * time.Second)
	for env.GatewayRequests.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, int64(1), env.GatewayRequests.Load())

	var logs []repository.MessageLogEntity
	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		env.RawDB.Find(&logs)
		if len(logs) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Len(t, logs, 1)
	assert.Equal(t, "sent", logs[0].Status)
	assert.Equal(t, "+15550001", logs[0].Phone)
	assert.Equal(t, "Payment Reminder: invoice overdue", logs[0].Message)
	require.NotNil(t, logs[0].NotificationID)
	assert.Equal(t, created.ID, *logs[0].NotificationID)

	// A sent SMS consumes exactly one credit from the lazily created entry.
	var ledger repository.CreditLedgerEntity
	err = env.RawDB.Where("tenant_id = ?", 1).First(&ledger).Error
	require.NoError(t, err)
	assert.Equal(t, 50, ledger.CreditsAllocated)
	assert.Equal(t, 1, ledger.CreditsUsed)
}

func TestE2E_FanoutSkipsTenantWithoutPhone(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "", model.PlanBasic)

	res, err := env.FanoutService.OnNotificationCreated(ctx, &model.Notification{
		ID:      1,
		UserID:  10,
		Message: "hello",
	})
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, services.SkipReasonNoPhone, res.Reason)
	assert.Zero(t, env.GatewayRequests.Load())

	var count int64
	env.RawDB.Model(&repository.MessageLogEntity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestE2E_ExhaustedCreditsDropSMS(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanFreeTrial)

	err := env.RawDB.Create(&repository.CreditLedgerEntity{
		TenantID:         1,
		Month:            model.MonthStart(time.Now()),
		CreditsAllocated: 10,
		CreditsUsed:      10,
	}).Error
	require.NoError(t, err)

	res, err := env.DispatchService.Dispatch(ctx, services.DispatchRequest{
		TenantID: 1,
		Phone:    "+15550001",
		Body:     "over budget",
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, model.DeliveryNoCredits, res.Status)
	assert.Zero(t, env.GatewayRequests.Load())

	// The dropped attempt still leaves its audit row.
	var logs []repository.MessageLogEntity
	env.RawDB.Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "no_credits", logs[0].Status)
}

func TestE2E_RedeliveredEventDispatchesOnce(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanBasic)

	payload := []byte(`{"id":77,"user_id":10,"message":"once only"}`)
	msg := &queue.Message{ID: "1-1", Data: payload}

	require.NoError(t, env.Processor.Process(ctx, msg))
	require.NoError(t, env.Processor.Process(ctx, msg))

	assert.Equal(t, int64(1), env.GatewayRequests.Load())

	var count int64
	env.RawDB.Model(&repository.MessageLogEntity{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestE2E_ReminderSweepNotifiesAndEscalates(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanPro)
	require.NoError(t, env.RawDB.Create(&repository.UserRoleEntity{UserID: 100, Role: model.RoleSuperAdmin}).Error)

	require.NoError(t, env.RawDB.Create(&repository.SubscriptionEntity{
		ID:       1,
		TenantID: 1,
		Plan:     "pro",
		Status:   "active",
	}).Error)

	// Day 10, past the grace period.
	now := time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC)
	summary, err := env.ReminderService.RunMonthlyReminderSweep(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UnpaidSubscriptions)
	assert.Equal(t, 2, summary.NotificationsCreated)
	assert.Equal(t, 1, summary.Escalated)

	var sub repository.SubscriptionEntity
	require.NoError(t, env.RawDB.First(&sub, 1).Error)
	assert.Equal(t, "past_due", sub.Status)

	var notifs []repository.NotificationEntity
	env.RawDB.Order("id").Find(&notifs)
	require.Len(t, notifs, 2)
	assert.Equal(t, int64(10), notifs[0].UserID)
	assert.Equal(t, "Payment Reminder", notifs[0].Title)
	assert.Equal(t, int64(100), notifs[1].UserID)
	assert.Equal(t, "Unpaid Subscription", notifs[1].Title)

	// Rerunning while the reminders sit unread creates nothing new.
	summary, err = env.ReminderService.RunMonthlyReminderSweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, summary.NotificationsCreated)

	var count int64
	env.RawDB.Model(&repository.NotificationEntity{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestE2E_ReminderSweepSkipsPaidSubscriptions(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanBasic)

	require.NoError(t, env.RawDB.Create(&repository.SubscriptionEntity{
		ID:       1,
		TenantID: 1,
		Plan:     "basic",
		Status:   "active",
	}).Error)

	now := time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC)
	require.NoError(t, env.RawDB.Create(&repository.SubscriptionPaymentEntity{
		SubscriptionID: 1,
		Month:          model.MonthStart(now),
		Status:         "paid",
	}).Error)

	summary, err := env.ReminderService.RunMonthlyReminderSweep(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, "all payments received", summary.Message)

	var count int64
	env.RawDB.Model(&repository.NotificationEntity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestE2E_WatchdogFlagsStaleLinks(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanBasic)

	now := time.Now().UTC()
	fresh := now.Add(-1 * time.Hour)
	stale := now.Add(-80 * time.Hour)

	require.NoError(t, env.RawDB.Create(&repository.WatchedLinkEntity{
		ID: 1, TenantID: 1, Title: "Status page", URL: "https://status.example.com",
	}).Error)
	require.NoError(t, env.RawDB.Create(&repository.WatchedLinkEntity{
		ID: 2, TenantID: 1, URL: "https://fresh.example.com", LastVisitedAt: &fresh,
	}).Error)
	require.NoError(t, env.RawDB.Create(&repository.WatchedLinkEntity{
		ID: 3, TenantID: 1, URL: "https://old.example.com", LastVisitedAt: &stale,
	}).Error)

	summary, err := env.WatchdogService.RunStaleLinkSweep(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.StaleLinksFound)
	assert.Equal(t, 2, summary.NotificationsCreated)

	var notifs []repository.NotificationEntity
	env.RawDB.Order("reference_id").Find(&notifs)
	require.Len(t, notifs, 2)
	assert.Equal(t, "Status page has never been visited.", notifs[0].Message)
	assert.Contains(t, notifs[1].Message, "has not been checked in 3 days.")

	// Unread notifications keep the links quiet on the next sweep.
	summary, err = env.WatchdogService.RunStaleLinkSweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, summary.NotificationsCreated)
}

func TestE2E_ListMessageLog(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedTenant(t, 1, 10, "+15550001", model.PlanBasic)

	for i := 0; i < 5; i++ {
		_, err := env.DispatchService.Dispatch(ctx, services.DispatchRequest{
			TenantID: 1,
			Phone:    "+15550001",
			Body:     fmt.Sprintf("Message %d", i),
		})
		require.NoError(t, err)
	}

	tenantID := int64(1)
	entries, total, err := env.DispatchService.ListMessageLog(ctx, model.MessageLogFilter{
		TenantID: &tenantID,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, entries, 5)

	var ledger repository.CreditLedgerEntity
	require.NoError(t, env.RawDB.Where("tenant_id = ?", 1).First(&ledger).Error)
	assert.Equal(t, 5, ledger.CreditsUsed)
}
