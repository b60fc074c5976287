package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")
	ErrNoCreditsRemaining  = errors.New("no credits remaining for this month")
)

type LedgerRepository struct {
	*pg.DB
}

func NewLedgerRepository(db *pg.DB) *LedgerRepository {
	return &LedgerRepository{
		db,
	}
}

// GetForMonth fetches the ledger row for (tenant, month).
func (r *LedgerRepository) GetForMonth(ctx context.Context, tenantID int64, month time.Time) (*model.CreditLedgerEntry, error) {
	var entity CreditLedgerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tenant_id = ? AND month = ?", tenantID, model.MonthStart(month)).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, err
	}

	return toLedgerModel(&entity), nil
}

// CreateIfAbsent inserts a fresh allocation row for (tenant, month). Two
// racing first-sends both reach this insert; the unique index on
// (tenant_id, month) plus ON CONFLICT DO NOTHING makes the loser fall
// through to the existing row, so allocation never doubles.
func (r *LedgerRepository) CreateIfAbsent(ctx context.Context, entry *model.CreditLedgerEntry) (*model.CreditLedgerEntry, error) {
	entity := toLedgerEntity(entry)
	entity.Month = model.MonthStart(entity.Month)

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entity).
		Error
	if err != nil {
		return nil, err
	}

	// Re-read: on conflict the entity keeps a zero id and the winner's
	// allocation is the authoritative one.
	return r.GetForMonth(ctx, entry.TenantID, entity.Month)
}

// Consume increments credits_used by one, guarded so the counter can never
// pass the allocation even under concurrent sends. RowsAffected 0 means the
// budget ran out between the balance check and the increment.
func (r *LedgerRepository) Consume(ctx context.Context, entryID int64) (*model.CreditLedgerEntry, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&CreditLedgerEntity{}).
		Where("id = ? AND credits_used < credits_allocated", entryID).
		Update("credits_used", gorm.Expr("credits_used + 1"))

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoCreditsRemaining
	}

	var entity CreditLedgerEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", entryID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, err
	}

	return toLedgerModel(&entity), nil
}
