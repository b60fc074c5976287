package model

import "time"

// CreditLedgerEntry is the per-tenant, per-calendar-month SMS credit
// counter. CreditsUsed only moves up, and only after a confirmed send.
// One row per (tenant, month); a new month gets a fresh row, old rows are
// never reused or deleted.
type CreditLedgerEntry struct {
	ID               int64     `json:"id"`
	TenantID         int64     `json:"tenant_id"`
	Month            time.Time `json:"month"` // first day of the month, UTC
	CreditsAllocated int       `json:"credits_allocated"`
	CreditsUsed      int       `json:"credits_used"`
	CreatedAt        time.Time `json:"created_at"`
}

func (CreditLedgerEntry) TableName() string { return "credit_ledger_entries" }

// Remaining reports how many sends the entry still permits.
func (e *CreditLedgerEntry) Remaining() int {
	if e.CreditsUsed >= e.CreditsAllocated {
		return 0
	}
	return e.CreditsAllocated - e.CreditsUsed
}

// MonthStart normalizes a point in time to the first day of its calendar
// month in UTC. All ledger rows are keyed on this value.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
