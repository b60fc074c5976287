package model

import (
	"errors"
	"time"
)

type NotificationType string

const (
	NotificationInvoice NotificationType = "invoice"
	NotificationSystem  NotificationType = "system"
	NotificationQuote   NotificationType = "quote"
	NotificationClient  NotificationType = "client"
)

// Reference types used for dedup-by-reference. An unread notification
// carrying the same (reference_id, reference_type) suppresses a new one.
const (
	ReferenceBillingReminder = "billing_reminder"
	ReferenceWatchedLink     = "watched_link"
)

// Notification is an in-app record addressed to one user. Rows are created
// by the sweeps or by application events; this core never mutates them
// afterwards (marking read belongs to the UI layer).
type Notification struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	TenantID      *int64           `json:"tenant_id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Link          string           `json:"link"`
	ReferenceID   *int64           `json:"reference_id"`
	ReferenceType *string          `json:"reference_type"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationCreateRequest is the input for creating a notification.
type NotificationCreateRequest struct {
	UserID        int64
	TenantID      *int64
	Type          NotificationType
	Title         string
	Message       string
	Link          string
	ReferenceID   *int64
	ReferenceType *string
}

func (p NotificationCreateRequest) Validate() error {
	if p.UserID == 0 {
		return errors.New("user_id is required")
	}
	if p.Type == "" {
		return errors.New("type is required")
	}
	if p.Message == "" {
		return errors.New("message is required")
	}
	return nil
}
