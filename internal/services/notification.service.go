package services

import (
	"context"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/queue"
	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/prom"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	HasUnreadByReference(ctx context.Context, referenceID int64, referenceType string, userID *int64) (bool, error)
}

// NotificationService creates in-app notification rows and publishes each
// created row onto the fan-out stream. The publish replaces the database
// trigger the managed-backend version relied on: the fan-out consumer is
// the only path from a notification to an SMS.
type NotificationService struct {
	repo  NotificationRepository
	queue *queue.Queue
}

func NewNotificationService(repo NotificationRepository, q *queue.Queue) *NotificationService {
	return &NotificationService{
		repo:  repo,
		queue: q,
	}
}

func (s *NotificationService) Create(ctx context.Context, p model.NotificationCreateRequest) (*model.Notification, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &model.Notification{
		UserID:        p.UserID,
		TenantID:      p.TenantID,
		Type:          p.Type,
		Title:         p.Title,
		Message:       p.Message,
		Link:          p.Link,
		ReferenceID:   p.ReferenceID,
		ReferenceType: p.ReferenceType,
	})
	if err != nil {
		return nil, err
	}

	prom.IncNotificationCreated(string(created.Type))

	// Fan-out is fire-and-forget relative to the row: a publish failure
	// loses the SMS, never the notification.
	if s.queue != nil {
		if _, err := s.queue.PublishJSON(ctx, created, nil); err != nil {
			logger.Error("failed to publish notification-created event",
				"notification_id", created.ID,
				"error", err)
		}
	}

	return created, nil
}

func (s *NotificationService) HasUnreadByReference(ctx context.Context, referenceID int64, referenceType string, userID *int64) (bool, error) {
	return s.repo.HasUnreadByReference(ctx, referenceID, referenceType, userID)
}
