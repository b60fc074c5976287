package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/prom"
)

const (
	// Reminders only start on the 5th of the month; earlier runs no-op.
	reminderMinDay = 5
	// Past this day an unpaid active subscription escalates to past_due.
	escalationGraceDay = 7
)

type SubscriptionRepository interface {
	ListByStatuses(ctx context.Context, statuses ...model.SubscriptionStatus) ([]*model.Subscription, error)
	PaidSubscriptionIDs(ctx context.Context, month time.Time) (map[int64]bool, error)
	EscalateToPastDue(ctx context.Context, subscriptionID int64) (bool, error)
}

type TenantDirectory interface {
	Get(ctx context.Context, id int64) (*model.Tenant, error)
	ListUserIDsByRole(ctx context.Context, role string) ([]int64, error)
}

type NotificationCreator interface {
	Create(ctx context.Context, p model.NotificationCreateRequest) (*model.Notification, error)
	HasUnreadByReference(ctx context.Context, referenceID int64, referenceType string, userID *int64) (bool, error)
}

type ReminderSummary struct {
	Message              string `json:"message"`
	UnpaidSubscriptions  int    `json:"unpaid_subscriptions"`
	NotificationsCreated int    `json:"notifications_created"`
	Escalated            int    `json:"escalated"`
}

// ReminderService runs the monthly billing-reminder sweep: find
// subscriptions without a paid payment row for the current month, nag the
// tenant and every super admin, and escalate overdue active subscriptions.
type ReminderService struct {
	subscriptionRepo SubscriptionRepository
	tenantRepo       TenantDirectory
	notifications    NotificationCreator
}

func NewReminderService(subscriptionRepo SubscriptionRepository, tenantRepo TenantDirectory, notifications NotificationCreator) *ReminderService {
	return &ReminderService{
		subscriptionRepo: subscriptionRepo,
		tenantRepo:       tenantRepo,
		notifications:    notifications,
	}
}

func (s *ReminderService) RunMonthlyReminderSweep(ctx context.Context, now time.Time) (*ReminderSummary, error) {
	start := time.Now()
	defer func() {
		prom.ObserveSweepDuration("billing_reminder", time.Since(start).Seconds())
	}()

	if now.Day() < reminderMinDay {
		return &ReminderSummary{Message: "too early in the month for billing reminders"}, nil
	}

	monthStart := model.MonthStart(now)

	subs, err := s.subscriptionRepo.ListByStatuses(ctx, model.SubscriptionActive, model.SubscriptionPastDue)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return &ReminderSummary{Message: "no active subscriptions"}, nil
	}

	paid, err := s.subscriptionRepo.PaidSubscriptionIDs(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	var unpaid []*model.Subscription
	for _, sub := range subs {
		if !paid[sub.ID] {
			unpaid = append(unpaid, sub)
		}
	}
	if len(unpaid) == 0 {
		return &ReminderSummary{Message: "all payments received"}, nil
	}

	adminIDs, err := s.tenantRepo.ListUserIDsByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("load admin users: %w", err)
	}

	summary := &ReminderSummary{UnpaidSubscriptions: len(unpaid)}
	for _, sub := range unpaid {
		// One subscription failing must not starve the rest of the sweep.
		created, escalated, err := s.remindSubscription(ctx, sub, adminIDs, now)
		if err != nil {
			logger.Error("billing reminder failed for subscription",
				"subscription_id", sub.ID,
				"tenant_id", sub.TenantID,
				"error", err)
			continue
		}
		summary.NotificationsCreated += created
		if escalated {
			summary.Escalated++
		}
	}

	summary.Message = fmt.Sprintf("processed %d unpaid subscriptions, created %d notifications",
		summary.UnpaidSubscriptions, summary.NotificationsCreated)
	return summary, nil
}

func (s *ReminderService) remindSubscription(ctx context.Context, sub *model.Subscription, adminIDs []int64, now time.Time) (int, bool, error) {
	companyName := "Unknown Company"
	var tenant *model.Tenant

	t, err := s.tenantRepo.Get(ctx, sub.TenantID)
	if err != nil && !errors.Is(err, repository.ErrTenantNotFound) {
		return 0, false, err
	}
	if err == nil {
		tenant = t
		if tenant.CompanyName != "" {
			companyName = tenant.CompanyName
		}
	}

	refID := sub.ID
	refType := model.ReferenceBillingReminder
	monthName := now.Format("January 2006")
	created := 0

	if tenant != nil {
		n, err := s.createIfNoUnread(ctx, model.NotificationCreateRequest{
			UserID:        tenant.UserID,
			TenantID:      &tenant.ID,
			Type:          model.NotificationInvoice,
			Title:         "Payment Reminder",
			Message:       fmt.Sprintf("Your %s subscription for %s is unpaid. Please settle the invoice to keep your account active.", sub.Plan, monthName),
			Link:          "/billing",
			ReferenceID:   &refID,
			ReferenceType: &refType,
		})
		if err != nil {
			return created, false, err
		}
		if n {
			created++
		}
	}

	for _, adminID := range adminIDs {
		n, err := s.createIfNoUnread(ctx, model.NotificationCreateRequest{
			UserID:        adminID,
			Type:          model.NotificationInvoice,
			Title:         "Unpaid Subscription",
			Message:       fmt.Sprintf("%s has not paid the %s subscription for %s.", companyName, sub.Plan, monthName),
			Link:          "/admin/billing",
			ReferenceID:   &refID,
			ReferenceType: &refType,
		})
		if err != nil {
			return created, false, err
		}
		if n {
			created++
		}
	}

	escalated := false
	if now.Day() > escalationGraceDay && sub.Status == model.SubscriptionActive {
		escalated, err = s.subscriptionRepo.EscalateToPastDue(ctx, sub.ID)
		if err != nil {
			return created, false, err
		}
		if escalated {
			logger.Warn("subscription escalated to past_due",
				"subscription_id", sub.ID,
				"tenant_id", sub.TenantID)
		}
	}

	return created, escalated, nil
}

// createIfNoUnread suppresses the reminder while the recipient still has an
// unread one for the same subscription, so daily sweeps do not pile up
// duplicate rows. Reports whether a notification was created.
func (s *ReminderService) createIfNoUnread(ctx context.Context, p model.NotificationCreateRequest) (bool, error) {
	has, err := s.notifications.HasUnreadByReference(ctx, *p.ReferenceID, *p.ReferenceType, &p.UserID)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	if _, err := s.notifications.Create(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}
