package repository

import (
	"context"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/pg"
)

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	entity := toNotificationEntity(n)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toNotificationModel(entity), nil
}

// HasUnreadByReference reports whether an unread notification already points
// at (referenceID, referenceType). Pass a userID to scope the check to one
// recipient; nil checks across all recipients.
func (r *NotificationRepository) HasUnreadByReference(ctx context.Context, referenceID int64, referenceType string, userID *int64) (bool, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&NotificationEntity{}).
		Where("reference_id = ? AND reference_type = ? AND read = ?", referenceID, referenceType, false)

	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
