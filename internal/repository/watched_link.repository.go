package repository

import (
	"context"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/pg"
)

type WatchedLinkRepository struct {
	*pg.DB
}

func NewWatchedLinkRepository(db *pg.DB) *WatchedLinkRepository {
	return &WatchedLinkRepository{
		db,
	}
}

// ListStale returns links never visited or last visited before the cutoff.
func (r *WatchedLinkRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*model.WatchedLink, error) {
	var entities []*WatchedLinkEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("last_visited_at IS NULL OR last_visited_at < ?", cutoff).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toWatchedLinkModels(entities), nil
}
