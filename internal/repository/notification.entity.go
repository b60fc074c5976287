package repository

import (
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
)

type NotificationEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	UserID        int64     `db:"user_id"        gorm:"column:user_id;not null;index"`
	TenantID      *int64    `db:"tenant_id"      gorm:"column:tenant_id;index"`
	Type          string    `db:"type"           gorm:"column:type;not null"`
	Title         string    `db:"title"          gorm:"column:title"`
	Message       string    `db:"message"        gorm:"column:message;not null"`
	Link          string    `db:"link"           gorm:"column:link"`
	ReferenceID   *int64    `db:"reference_id"   gorm:"column:reference_id;index:idx_notifications_reference"`
	ReferenceType *string   `db:"reference_type" gorm:"column:reference_type;index:idx_notifications_reference"`
	Read          bool      `db:"read"           gorm:"column:read;not null;default:false"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toNotificationEntity(m *model.Notification) *NotificationEntity {
	if m == nil {
		return nil
	}
	return &NotificationEntity{
		ID:            m.ID,
		UserID:        m.UserID,
		TenantID:      m.TenantID,
		Type:          string(m.Type),
		Title:         m.Title,
		Message:       m.Message,
		Link:          m.Link,
		ReferenceID:   m.ReferenceID,
		ReferenceType: m.ReferenceType,
		Read:          m.Read,
		CreatedAt:     m.CreatedAt,
	}
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:            e.ID,
		UserID:        e.UserID,
		TenantID:      e.TenantID,
		Type:          model.NotificationType(e.Type),
		Title:         e.Title,
		Message:       e.Message,
		Link:          e.Link,
		ReferenceID:   e.ReferenceID,
		ReferenceType: e.ReferenceType,
		Read:          e.Read,
		CreatedAt:     e.CreatedAt,
	}
}
