package repository

import (
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
)

type CreditLedgerEntity struct {
	ID               int64     `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	TenantID         int64     `db:"tenant_id"         gorm:"column:tenant_id;not null;uniqueIndex:idx_ledger_tenant_month"`
	Month            time.Time `db:"month"             gorm:"column:month;not null;uniqueIndex:idx_ledger_tenant_month"`
	CreditsAllocated int       `db:"credits_allocated" gorm:"column:credits_allocated;not null"`
	CreditsUsed      int       `db:"credits_used"      gorm:"column:credits_used;not null;default:0"`
	CreatedAt        time.Time `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (CreditLedgerEntity) TableName() string {
	return "credit_ledger_entries"
}

func toLedgerEntity(m *model.CreditLedgerEntry) *CreditLedgerEntity {
	if m == nil {
		return nil
	}
	return &CreditLedgerEntity{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Month:            m.Month,
		CreditsAllocated: m.CreditsAllocated,
		CreditsUsed:      m.CreditsUsed,
		CreatedAt:        m.CreatedAt,
	}
}

func toLedgerModel(e *CreditLedgerEntity) *model.CreditLedgerEntry {
	if e == nil {
		return nil
	}
	return &model.CreditLedgerEntry{
		ID:               e.ID,
		TenantID:         e.TenantID,
		Month:            e.Month,
		CreditsAllocated: e.CreditsAllocated,
		CreditsUsed:      e.CreditsUsed,
		CreatedAt:        e.CreatedAt,
	}
}
