package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/queue"
	"github.com/bizgrid/notification-gateway/internal/services"
	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/redis"
)

// NotificationProcessor consumes notification-created events and hands each
// one to the fan-out service. Delivery is best-effort and terminal: a failed
// or skipped SMS still ACKs the event, only infrastructure errors retry.
type NotificationProcessor struct {
	fanout      *services.FanoutService
	idempotency *IdempotencyService
}

func NewNotificationProcessor(fanout *services.FanoutService, redisAdapter redis.RedisAdapter) *NotificationProcessor {
	return &NotificationProcessor{
		fanout:      fanout,
		idempotency: NewIdempotencyService(redisAdapter, DefaultIdempotencyConfig()),
	}
}

func (p *NotificationProcessor) GetType() string {
	return "notification-created"
}

func (p *NotificationProcessor) Process(ctx context.Context, message *queue.Message) error {
	var n model.Notification
	if err := json.Unmarshal(message.Data, &n); err != nil {
		// Malformed payloads never succeed on retry, drop them.
		logger.Error("Failed to unmarshal notification event", "message_id", message.ID, "error", err)
		return nil
	}
	if n.ID == 0 {
		logger.Error("Notification event without id, dropping", "message_id", message.ID)
		return nil
	}

	notificationID := strconv.FormatInt(n.ID, 10)

	dc, err := p.idempotency.AcquireDispatchLock(ctx, notificationID)
	if err != nil {
		if errors.Is(err, ErrAlreadyDispatched) || errors.Is(err, ErrMaxRetriesExceeded) {
			return nil
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer holds the event, let the pending-claim cycle retry it.
			return err
		}
		return err
	}

	result, err := p.fanout.OnNotificationCreated(ctx, &n)
	if err != nil {
		p.idempotency.MarkFailure(ctx, dc, err)
		return fmt.Errorf("fan-out for notification %d: %w", n.ID, err)
	}

	// Skips and gateway rejections are terminal outcomes: the attempt is
	// logged in the message log and must not replay on redelivery.
	if markErr := p.idempotency.MarkDispatched(ctx, dc); markErr != nil {
		logger.Warn("Failed to persist dispatched marker", "notification_id", n.ID, "error", markErr)
	}

	if result.Skipped {
		logger.Info("Notification fan-out skipped",
			"notification_id", n.ID,
			"reason", result.Reason)
	} else {
		logger.Info("Notification fan-out complete",
			"notification_id", n.ID,
			"status", result.Dispatch.Status,
			"success", result.Dispatch.Success)
	}

	return nil
}
