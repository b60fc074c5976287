package repository

import (
	"context"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/pg"
)

type SubscriptionRepository struct {
	*pg.DB
}

func NewSubscriptionRepository(db *pg.DB) *SubscriptionRepository {
	return &SubscriptionRepository{
		db,
	}
}

func (r *SubscriptionRepository) ListByStatuses(ctx context.Context, statuses ...model.SubscriptionStatus) ([]*model.Subscription, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var entities []*SubscriptionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status IN ?", values).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toSubscriptionModels(entities), nil
}

// PaidSubscriptionIDs returns the set of subscriptions with a paid payment
// row for the given month.
func (r *SubscriptionRepository) PaidSubscriptionIDs(ctx context.Context, month time.Time) (map[int64]bool, error) {
	var ids []int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&SubscriptionPaymentEntity{}).
		Where("month = ? AND status = ?", model.MonthStart(month), string(model.PaymentPaid)).
		Pluck("subscription_id", &ids).
		Error
	if err != nil {
		return nil, err
	}

	paid := make(map[int64]bool, len(ids))
	for _, id := range ids {
		paid[id] = true
	}
	return paid, nil
}

// EscalateToPastDue flips an active subscription to past_due. The status
// guard in the WHERE clause makes re-application a no-op, so the sweep can
// safely run the escalation every day past the grace period.
func (r *SubscriptionRepository) EscalateToPastDue(ctx context.Context, subscriptionID int64) (bool, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&SubscriptionEntity{}).
		Where("id = ? AND status = ?", subscriptionID, string(model.SubscriptionActive)).
		Update("status", string(model.SubscriptionPastDue))

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
