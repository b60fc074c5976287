package services

import (
	"context"
	"testing"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DispatchResult), args.Error(1)
}

func TestFanoutService_NoTenantProfile(t *testing.T) {
	tenantRepo := new(MockTenantRepository)
	dispatcher := new(MockDispatcher)
	ctx := context.Background()

	svc := NewFanoutService(tenantRepo, dispatcher)

	tenantRepo.On("GetByUserID", mock.Anything, int64(5)).
		Return(nil, repository.ErrTenantNotFound)

	res, err := svc.OnNotificationCreated(ctx, &model.Notification{ID: 1, UserID: 5, Message: "hi"})
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, SkipReasonNoPhone, res.Reason)
	dispatcher.AssertNotCalled(t, "Dispatch")
}

func TestFanoutService_NoPhoneOnFile(t *testing.T) {
	tenantRepo := new(MockTenantRepository)
	dispatcher := new(MockDispatcher)
	ctx := context.Background()

	svc := NewFanoutService(tenantRepo, dispatcher)

	tenantRepo.On("GetByUserID", mock.Anything, int64(5)).
		Return(&model.Tenant{ID: 2, UserID: 5, Phone: ""}, nil)

	res, err := svc.OnNotificationCreated(ctx, &model.Notification{ID: 1, UserID: 5, Message: "hi"})
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, SkipReasonNoPhone, res.Reason)
	dispatcher.AssertNotCalled(t, "Dispatch")
}

func TestFanoutService_DispatchesTitlePrefixedText(t *testing.T) {
	tenantRepo := new(MockTenantRepository)
	dispatcher := new(MockDispatcher)
	ctx := context.Background()

	svc := NewFanoutService(tenantRepo, dispatcher)

	tenantRepo.On("GetByUserID", mock.Anything, int64(5)).
		Return(&model.Tenant{ID: 2, UserID: 5, Phone: "+15550009"}, nil)

	notificationID := int64(31)
	dispatcher.On("Dispatch", mock.Anything, DispatchRequest{
		TenantID:       2,
		Phone:          "+15550009",
		Body:           "Payment Reminder: invoice overdue",
		NotificationID: &notificationID,
	}).Return(&DispatchResult{Success: true, Status: model.DeliverySent}, nil)

	res, err := svc.OnNotificationCreated(ctx, &model.Notification{
		ID:      31,
		UserID:  5,
		Title:   "Payment Reminder",
		Message: "invoice overdue",
	})
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	require.NotNil(t, res.Dispatch)
	assert.True(t, res.Dispatch.Success)
	dispatcher.AssertExpectations(t)
}

func TestFanoutService_UntitledNotificationUsesMessageOnly(t *testing.T) {
	tenantRepo := new(MockTenantRepository)
	dispatcher := new(MockDispatcher)
	ctx := context.Background()

	svc := NewFanoutService(tenantRepo, dispatcher)

	tenantRepo.On("GetByUserID", mock.Anything, int64(5)).
		Return(&model.Tenant{ID: 2, UserID: 5, Phone: "+15550009"}, nil)

	var body string
	dispatcher.On("Dispatch", mock.Anything, mock.AnythingOfType("services.DispatchRequest")).
		Run(func(args mock.Arguments) {
			body = args.Get(1).(DispatchRequest).Body
		}).
		Return(&DispatchResult{Success: true, Status: model.DeliverySent}, nil)

	_, err := svc.OnNotificationCreated(ctx, &model.Notification{ID: 32, UserID: 5, Message: "plain text"})
	require.NoError(t, err)
	assert.Equal(t, "plain text", body)
}

func TestFanoutService_DeliveryFailureIsTerminal(t *testing.T) {
	tenantRepo := new(MockTenantRepository)
	dispatcher := new(MockDispatcher)
	ctx := context.Background()

	svc := NewFanoutService(tenantRepo, dispatcher)

	tenantRepo.On("GetByUserID", mock.Anything, int64(5)).
		Return(&model.Tenant{ID: 2, UserID: 5, Phone: "+15550009"}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.AnythingOfType("services.DispatchRequest")).
		Return(&DispatchResult{Success: false, Status: model.DeliveryFailed}, nil)

	res, err := svc.OnNotificationCreated(ctx, &model.Notification{ID: 33, UserID: 5, Message: "hi"})
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.False(t, res.Dispatch.Success)
	assert.Equal(t, model.DeliveryFailed, res.Dispatch.Status)
}
