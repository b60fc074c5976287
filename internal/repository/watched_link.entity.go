package repository

import (
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
)

type WatchedLinkEntity struct {
	ID            int64      `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	TenantID      int64      `db:"tenant_id"       gorm:"column:tenant_id;not null;index"`
	Title         string     `db:"title"           gorm:"column:title"`
	URL           string     `db:"url"             gorm:"column:url;not null"`
	LastVisitedAt *time.Time `db:"last_visited_at" gorm:"column:last_visited_at"`
}

func (WatchedLinkEntity) TableName() string {
	return "watched_links"
}

func toWatchedLinkModel(e *WatchedLinkEntity) *model.WatchedLink {
	if e == nil {
		return nil
	}
	return &model.WatchedLink{
		ID:            e.ID,
		TenantID:      e.TenantID,
		Title:         e.Title,
		URL:           e.URL,
		LastVisitedAt: e.LastVisitedAt,
	}
}

func toWatchedLinkModels(entities []*WatchedLinkEntity) []*model.WatchedLink {
	if entities == nil {
		return nil
	}
	models := make([]*model.WatchedLink, len(entities))
	for i, e := range entities {
		models[i] = toWatchedLinkModel(e)
	}
	return models
}
