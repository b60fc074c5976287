package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/redis"
)

var (
	ErrAlreadyDispatched  = errors.New("notification already dispatched")
	ErrLockAcquireFailed  = errors.New("failed to acquire dispatch lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// IdempotencyConfig tunes the per-notification dispatch guard.
type IdempotencyConfig struct {
	LockTTL time.Duration

	DispatchedTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	DispatchedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:             30 * time.Second,
		DispatchedTTL:       24 * time.Hour,
		MaxRetries:          3,
		RetryKeyPrefix:      "notify:retry:",
		LockKeyPrefix:       "notify:lock:",
		DispatchedKeyPrefix: "notify:dispatched:",
	}
}

// IdempotencyService keeps the at-most-one-dispatch-per-notification
// contract across consumers: a short SETNX lock serializes concurrent
// handling and a long-lived dispatched marker swallows redeliveries.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type DispatchContext struct {
	NotificationID string
	RetryCount     int
	IsRetry        bool
	lockAcquired   bool
	service        *IdempotencyService
}

func (s *IdempotencyService) AcquireDispatchLock(ctx context.Context, notificationID string) (*DispatchContext, error) {
	// Already-dispatched marker first: redelivered events are normal with
	// a streams consumer group and must stay silent.
	dispatchedKey := s.config.DispatchedKeyPrefix + notificationID
	exists, err := s.redis.Exist(dispatchedKey)
	if err != nil {
		logger.Warn("Failed to check dispatched marker", "notification_id", notificationID, "error", err)
		// Continue even if the check fails - better to risk a duplicate than block the stream
	} else if exists > 0 {
		logger.Info("Notification already dispatched, skipping", "notification_id", notificationID)
		return nil, ErrAlreadyDispatched
	}

	retryKey := s.config.RetryKeyPrefix + notificationID
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		logger.Error("Max retries exceeded for notification", "notification_id", notificationID, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: notification_id=%s, retries=%d", ErrMaxRetriesExceeded, notificationID, retryCount)
	}

	lockKey := s.config.LockKeyPrefix + notificationID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire lock", "notification_id", notificationID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("Lock already held by another consumer", "notification_id", notificationID)
		return nil, ErrLockAcquireFailed
	}

	logger.Debug("Dispatch lock acquired",
		"notification_id", notificationID,
		"retry_count", retryCount,
		"lock_ttl", s.config.LockTTL)

	return &DispatchContext{
		NotificationID: notificationID,
		RetryCount:     retryCount,
		IsRetry:        retryCount > 0,
		lockAcquired:   true,
		service:        s,
	}, nil
}

func (s *IdempotencyService) MarkDispatched(ctx context.Context, dc *DispatchContext) error {
	notificationID := dc.NotificationID

	dispatchedKey := s.config.DispatchedKeyPrefix + notificationID
	err := s.redis.Set(dispatchedKey, []byte("1"), s.config.DispatchedTTL)
	if err != nil {
		logger.Error("Failed to mark notification as dispatched", "notification_id", notificationID, "error", err)
		return fmt.Errorf("failed to mark as dispatched: %w", err)
	}

	s.cleanup(ctx, dc)

	logger.Info("Notification marked as dispatched",
		"notification_id", notificationID,
		"retry_count", dc.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, dc *DispatchContext, reason error) error {
	notificationID := dc.NotificationID

	retryKey := s.config.RetryKeyPrefix + notificationID
	newRetryCount := dc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// Keep the retry counter around so the count survives across retries
	err := s.redis.Set(retryKey, retryValue, s.config.DispatchedTTL)
	if err != nil {
		logger.Error("Failed to increment retry counter", "notification_id", notificationID, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + notificationID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to remove lock", "notification_id", notificationID, "error", err)
	}

	logger.Warn("Notification dispatch failed, will retry",
		"notification_id", notificationID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, dc *DispatchContext) error {
	if dc == nil || !dc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + dc.NotificationID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to release lock", "notification_id", dc.NotificationID, "error", err)
		return err
	}

	dc.lockAcquired = false
	logger.Debug("Dispatch lock released", "notification_id", dc.NotificationID)
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, dc *DispatchContext) {
	notificationID := dc.NotificationID

	lockKey := s.config.LockKeyPrefix + notificationID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to cleanup lock", "notification_id", notificationID, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + notificationID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("Failed to cleanup retry counter", "notification_id", notificationID, "error", err)
	}

	dc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, notificationID string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + notificationID
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsDispatched(ctx context.Context, notificationID string) (bool, error) {
	dispatchedKey := s.config.DispatchedKeyPrefix + notificationID
	exists, err := s.redis.Exist(dispatchedKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
