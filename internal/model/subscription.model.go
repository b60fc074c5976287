package model

import "time"

// Subscription is the billing agreement for a tenant. Status is escalated
// by the reminder sweep; plan changes and cancellations happen elsewhere.
type Subscription struct {
	ID       int64              `json:"id"`
	TenantID int64              `json:"tenant_id"`
	Plan     SubscriptionPlan   `json:"plan"`
	Status   SubscriptionStatus `json:"status"`
}

func (Subscription) TableName() string { return "subscriptions" }

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

// SubscriptionPayment marks the payment state of one subscription for one
// calendar month. Read-only from this core's perspective.
type SubscriptionPayment struct {
	ID             int64         `json:"id"`
	SubscriptionID int64         `json:"subscription_id"`
	Month          time.Time     `json:"month"` // first day of the month, UTC
	Status         PaymentStatus `json:"status"`
}

func (SubscriptionPayment) TableName() string { return "subscription_payments" }
