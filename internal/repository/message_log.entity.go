package repository

import (
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
)

type MessageLogEntity struct {
	ID               int64     `db:"id"                 gorm:"primaryKey;autoIncrement;column:id"`
	TenantID         int64     `db:"tenant_id"          gorm:"column:tenant_id;not null;index"`
	Phone            string    `db:"phone"              gorm:"column:phone;not null"`
	Message          string    `db:"message"            gorm:"column:message;not null"`
	Status           string    `db:"status"             gorm:"column:status;not null;index"`
	GatewayMessageID *string   `db:"gateway_message_id" gorm:"column:gateway_message_id"`
	NotificationID   *int64    `db:"notification_id"    gorm:"column:notification_id;index"`
	CreatedAt        time.Time `db:"created_at"         gorm:"column:created_at;autoCreateTime"`
}

func (MessageLogEntity) TableName() string {
	return "message_log_entries"
}

func toMessageLogEntity(m *model.MessageLogEntry) *MessageLogEntity {
	if m == nil {
		return nil
	}
	return &MessageLogEntity{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Phone:            m.Phone,
		Message:          m.Message,
		Status:           string(m.Status),
		GatewayMessageID: m.GatewayMessageID,
		NotificationID:   m.NotificationID,
		CreatedAt:        m.CreatedAt,
	}
}

func toMessageLogModel(e *MessageLogEntity) *model.MessageLogEntry {
	if e == nil {
		return nil
	}
	return &model.MessageLogEntry{
		ID:               e.ID,
		TenantID:         e.TenantID,
		Phone:            e.Phone,
		Message:          e.Message,
		Status:           model.DeliveryStatus(e.Status),
		GatewayMessageID: e.GatewayMessageID,
		NotificationID:   e.NotificationID,
		CreatedAt:        e.CreatedAt,
	}
}

func toMessageLogModels(entities []*MessageLogEntity) []*model.MessageLogEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.MessageLogEntry, len(entities))
	for i, e := range entities {
		models[i] = toMessageLogModel(e)
	}
	return models
}
