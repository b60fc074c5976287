package repository

import (
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
)

type SubscriptionEntity struct {
	ID       int64  `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	TenantID int64  `db:"tenant_id" gorm:"column:tenant_id;not null;index"`
	Plan     string `db:"plan"      gorm:"column:plan;not null"`
	Status   string `db:"status"    gorm:"column:status;not null;index"`
}

func (SubscriptionEntity) TableName() string {
	return "subscriptions"
}

type SubscriptionPaymentEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	SubscriptionID int64     `db:"subscription_id" gorm:"column:subscription_id;not null;index"`
	Month          time.Time `db:"month"           gorm:"column:month;not null;index"`
	Status         string    `db:"status"          gorm:"column:status;not null"`
}

func (SubscriptionPaymentEntity) TableName() string {
	return "subscription_payments"
}

func toSubscriptionModel(e *SubscriptionEntity) *model.Subscription {
	if e == nil {
		return nil
	}
	return &model.Subscription{
		ID:       e.ID,
		TenantID: e.TenantID,
		Plan:     model.SubscriptionPlan(e.Plan),
		Status:   model.SubscriptionStatus(e.Status),
	}
}

func toSubscriptionModels(entities []*SubscriptionEntity) []*model.Subscription {
	if entities == nil {
		return nil
	}
	models := make([]*model.Subscription, len(entities))
	for i, e := range entities {
		models[i] = toSubscriptionModel(e)
	}
	return models
}
