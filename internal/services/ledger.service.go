package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/bizgrid/notification-gateway/pkg/logger"
)

type LedgerRepository interface {
	GetForMonth(ctx context.Context, tenantID int64, month time.Time) (*model.CreditLedgerEntry, error)
	CreateIfAbsent(ctx context.Context, entry *model.CreditLedgerEntry) (*model.CreditLedgerEntry, error)
	Consume(ctx context.Context, entryID int64) (*model.CreditLedgerEntry, error)
}

type TenantReader interface {
	Get(ctx context.Context, id int64) (*model.Tenant, error)
}

// LedgerService owns the monthly SMS credit budget. Allocation is lazy:
// the first send attempt of a month creates the entry from the tenant's
// plan default, every later call returns the existing row untouched.
type LedgerService struct {
	ledgerRepo   LedgerRepository
	tenantRepo   TenantReader
	planDefaults map[model.SubscriptionPlan]int
}

func NewLedgerService(ledgerRepo LedgerRepository, tenantRepo TenantReader, planDefaults map[model.SubscriptionPlan]int) *LedgerService {
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		tenantRepo:   tenantRepo,
		planDefaults: planDefaults,
	}
}

func (s *LedgerService) EnsureMonthlyAllocation(ctx context.Context, tenantID int64, month time.Time) (*model.CreditLedgerEntry, error) {
	entry, err := s.ledgerRepo.GetForMonth(ctx, tenantID, month)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, repository.ErrLedgerEntryNotFound) {
		return nil, fmt.Errorf("load ledger entry: %w", err)
	}

	tenant, err := s.tenantRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant plan: %w", err)
	}

	allocated := s.allocationFor(tenant.Plan)
	created, err := s.ledgerRepo.CreateIfAbsent(ctx, &model.CreditLedgerEntry{
		TenantID:         tenantID,
		Month:            model.MonthStart(month),
		CreditsAllocated: allocated,
		CreditsUsed:      0,
	})
	if err != nil {
		return nil, fmt.Errorf("allocate monthly credits: %w", err)
	}

	logger.Info("monthly SMS credits allocated",
		"tenant_id", tenantID,
		"month", created.Month.Format("2006-01"),
		"plan", string(tenant.Plan),
		"allocated", created.CreditsAllocated)

	return created, nil
}

// HasBalance gates a send. The used counter is only moved afterwards, on
// confirmation, so the check and the increment are deliberately separate.
func (s *LedgerService) HasBalance(entry *model.CreditLedgerEntry) bool {
	if entry == nil {
		return false
	}
	return entry.CreditsUsed < entry.CreditsAllocated
}

// Consume burns one credit. Call only after the gateway confirmed the send.
func (s *LedgerService) Consume(ctx context.Context, entry *model.CreditLedgerEntry) (*model.CreditLedgerEntry, error) {
	return s.ledgerRepo.Consume(ctx, entry.ID)
}

func (s *LedgerService) allocationFor(plan model.SubscriptionPlan) int {
	if v, ok := s.planDefaults[plan]; ok {
		return v
	}
	// Unknown plans get the trial allocation.
	return s.planDefaults[model.PlanFreeTrial]
}
