package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/queue"
	"github.com/bizgrid/notification-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) HasUnreadByReference(ctx context.Context, referenceID int64, referenceType string, userID *int64) (bool, error) {
	args := m.Called(ctx, referenceID, referenceType, userID)
	return args.Bool(0), args.Error(1)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestNotificationService_Create_Validation(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, model.NotificationCreateRequest{Type: model.NotificationSystem, Message: "hi"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, model.NotificationCreateRequest{UserID: 1, Message: "hi"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, model.NotificationCreateRequest{UserID: 1, Type: model.NotificationSystem})
	assert.Error(t, err)

	repo.AssertNotCalled(t, "Create")
}

func TestNotificationService_Create_PublishesEvent(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	q, err := queue.NewQueue(adapter, queue.QueueConfig{
		Name:          "test:notifications",
		ConsumerGroup: "test-group",
	})
	require.NoError(t, err)

	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo, q)
	ctx := context.Background()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).
		Return(&model.Notification{
			ID:      9,
			UserID:  1,
			Type:    model.NotificationSystem,
			Message: "hello",
		}, nil)

	created, err := svc.Create(ctx, model.NotificationCreateRequest{
		UserID:  1,
		Type:    model.NotificationSystem,
		Message: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)

	// The created row must land on the fan-out stream.
	require.Eventually(t, func() bool {
		n, err := adapter.XLen("test:notifications")
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)

	repo.AssertExpectations(t)
}

func TestNotificationService_Create_WithoutQueue(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).
		Return(&model.Notification{ID: 3, UserID: 1, Type: model.NotificationQuote, Message: "m"}, nil)

	created, err := svc.Create(ctx, model.NotificationCreateRequest{
		UserID:  1,
		Type:    model.NotificationQuote,
		Message: "m",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
}
