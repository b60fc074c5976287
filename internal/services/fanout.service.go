package services

import (
	"context"
	"errors"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/bizgrid/notification-gateway/pkg/logger"
)

// SkipReasonNoPhone is recorded when the recipient tenant has no phone
// number on file and the dispatch is skipped entirely.
const SkipReasonNoPhone = "no_phone"

type TenantResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Tenant, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error)
}

type FanoutResult struct {
	Skipped  bool
	Reason   string
	Dispatch *DispatchResult
}

// FanoutService turns one notification-created event into at most one SMS
// dispatch. It never mutates the notification; delivery failures are
// surfaced in the result and go no further.
type FanoutService struct {
	tenantRepo TenantResolver
	dispatcher Dispatcher
}

func NewFanoutService(tenantRepo TenantResolver, dispatcher Dispatcher) *FanoutService {
	return &FanoutService{
		tenantRepo: tenantRepo,
		dispatcher: dispatcher,
	}
}

func (s *FanoutService) OnNotificationCreated(ctx context.Context, n *model.Notification) (*FanoutResult, error) {
	tenant, err := s.tenantRepo.GetByUserID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			// Recipient without a tenant profile cannot have a phone.
			logger.Info("notification fan-out skipped, no tenant profile",
				"notification_id", n.ID,
				"user_id", n.UserID)
			return &FanoutResult{Skipped: true, Reason: SkipReasonNoPhone}, nil
		}
		return nil, err
	}

	if tenant.Phone == "" {
		logger.Info("notification fan-out skipped, no phone on file",
			"notification_id", n.ID,
			"tenant_id", tenant.ID)
		return &FanoutResult{Skipped: true, Reason: SkipReasonNoPhone}, nil
	}

	text := n.Message
	if n.Title != "" {
		text = n.Title + ": " + n.Message
	}

	res, err := s.dispatcher.Dispatch(ctx, DispatchRequest{
		TenantID:       tenant.ID,
		Phone:          tenant.Phone,
		Body:           text,
		NotificationID: &n.ID,
	})
	if err != nil {
		return nil, err
	}

	return &FanoutResult{Dispatch: res}, nil
}
