package model

import "time"

// DeliveryStatus is the terminal outcome of one send attempt.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryNoCredits DeliveryStatus = "no_credits"
)

// MessageLogEntry is the immutable audit record of a single send attempt.
// Exactly one row is written per dispatch call, whatever the outcome.
type MessageLogEntry struct {
	ID               int64          `json:"id"`
	TenantID         int64          `json:"tenant_id"`
	Phone            string         `json:"phone"`
	Message          string         `json:"message"` // final body, post-truncation
	Status           DeliveryStatus `json:"status"`
	GatewayMessageID *string        `json:"gateway_message_id"` // nil unless sent
	NotificationID   *int64         `json:"notification_id"`    // nil for direct dispatches
	CreatedAt        time.Time      `json:"created_at"`
}

func (MessageLogEntry) TableName() string { return "message_log_entries" }

// MessageLogFilter controls List queries over the audit log.
type MessageLogFilter struct {
	TenantID *int64
	Statuses []DeliveryStatus
	From     *time.Time
	To       *time.Time
	Limit    int // default 50
	Offset   int
	Desc     bool // order by created_at
}
