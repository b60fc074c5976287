package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/redis"
)

var ErrSweepAlreadyRunning = errors.New("sweep already running")

const sweepLockKeyPrefix = "sweep:lock:"

// SweepLock is a Redis advisory lock keeping two instances from running the
// same sweep job concurrently. Losing the lock holder is harmless, the TTL
// expires and the next run proceeds.
type SweepLock struct {
	redis redis.RedisAdapter
	ttl   time.Duration
}

func NewSweepLock(redisAdapter redis.RedisAdapter, ttl time.Duration) *SweepLock {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &SweepLock{redis: redisAdapter, ttl: ttl}
}

// Acquire takes the lock for the named job and returns a release func.
// Returns ErrSweepAlreadyRunning when another instance holds it.
func (l *SweepLock) Acquire(job string) (func(), error) {
	key := sweepLockKeyPrefix + job
	value := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := l.redis.SetNX(key, value, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		return nil, ErrSweepAlreadyRunning
	}

	release := func() {
		if err := l.redis.Del(key); err != nil {
			logger.Warn("failed to release sweep lock", "job", job, "error", err)
		}
	}
	return release, nil
}
