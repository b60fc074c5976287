package fixtures

import (
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
)

var (
	TestTenantPro = model.Tenant{
		ID:          1,
		UserID:      10,
		CompanyName: "Acme Corp",
		Phone:       "+15550001",
		Plan:        model.PlanPro,
		Status:      model.SubscriptionActive,
	}

	TestTenantBasic = model.Tenant{
		ID:          2,
		UserID:      20,
		CompanyName: "Beta LLC",
		Phone:       "+15550002",
		Plan:        model.PlanBasic,
		Status:      model.SubscriptionActive,
	}

	TestTenantNoPhone = model.Tenant{
		ID:          3,
		UserID:      30,
		CompanyName: "Gamma Inc",
		Phone:       "",
		Plan:        model.PlanStandard,
		Status:      model.SubscriptionActive,
	}

	TestTenantTrial = model.Tenant{
		ID:          4,
		UserID:      40,
		CompanyName: "Delta Co",
		Phone:       "+15550004",
		Plan:        model.PlanFreeTrial,
		Status:      model.SubscriptionTrialing,
	}
)

func NewTestLedgerEntry(tenantID int64, month time.Time, allocated, used int) *model.CreditLedgerEntry {
	return &model.CreditLedgerEntry{
		TenantID:         tenantID,
		Month:            model.MonthStart(month),
		CreditsAllocated: allocated,
		CreditsUsed:      used,
	}
}

func NewTestNotificationCreateRequest(userID int64, typ model.NotificationType, title, message string) model.NotificationCreateRequest {
	return model.NotificationCreateRequest{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
}

func NewTestSubscription(id, tenantID int64, plan model.SubscriptionPlan, status model.SubscriptionStatus) *model.Subscription {
	return &model.Subscription{
		ID:       id,
		TenantID: tenantID,
		Plan:     plan,
		Status:   status,
	}
}

func NewTestWatchedLink(id, tenantID int64, title, url string, lastVisitedAt *time.Time) *model.WatchedLink {
	return &model.WatchedLink{
		ID:            id,
		TenantID:      tenantID,
		Title:         title,
		URL:           url,
		LastVisitedAt: lastVisitedAt,
	}
}

var (
	ValidPhoneNumbers = []string{
		"+15550001",
		"+9876543210",
		"+4412345678",
		"+33123456789",
		"+81312345678",
	}

	ValidMessageBodies = []string{
		"Payment received",
		"Your invoice is ready",
		"Short",
		"This is a longer notification body used to exercise formatting paths",
	}
)

func MessageLogFilterByTenant(tenantID int64) model.MessageLogFilter {
	return model.MessageLogFilter{
		TenantID: &tenantID,
		Limit:    50,
		Offset:   0,
		Desc:     false,
	}
}

func MessageLogFilterWithPagination(tenantID int64, limit, offset int) model.MessageLogFilter {
	return model.MessageLogFilter{
		TenantID: &tenantID,
		Limit:    limit,
		Offset:   offset,
		Desc:     false,
	}
}

func MessageLogFilterByTimeRange(tenantID int64, from, to time.Time) model.MessageLogFilter {
	return model.MessageLogFilter{
		TenantID: &tenantID,
		From:     &from,
		To:       &to,
		Limit:    50,
		Offset:   0,
		Desc:     false,
	}
}
