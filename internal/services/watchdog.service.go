package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/prom"
)

// Links untouched for this long count as stale.
const staleLinkAge = 48 * time.Hour

type WatchedLinkRepository interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]*model.WatchedLink, error)
}

type WatchdogSummary struct {
	Success              bool `json:"success"`
	StaleLinksFound      int  `json:"stale_links_found"`
	NotificationsCreated int  `json:"notifications_created"`
}

// WatchdogService flags watched links nobody has visited recently. At most
// one unread notification exists per link at a time; a link stays quiet
// until its previous notification is read.
type WatchdogService struct {
	linkRepo      WatchedLinkRepository
	tenantRepo    TenantDirectory
	notifications NotificationCreator
}

func NewWatchdogService(linkRepo WatchedLinkRepository, tenantRepo TenantDirectory, notifications NotificationCreator) *WatchdogService {
	return &WatchdogService{
		linkRepo:      linkRepo,
		tenantRepo:    tenantRepo,
		notifications: notifications,
	}
}

func (s *WatchdogService) RunStaleLinkSweep(ctx context.Context, now time.Time) (*WatchdogSummary, error) {
	start := time.Now()
	defer func() {
		prom.ObserveSweepDuration("stale_links", time.Since(start).Seconds())
	}()

	links, err := s.linkRepo.ListStale(ctx, now.Add(-staleLinkAge))
	if err != nil {
		return nil, fmt.Errorf("load stale links: %w", err)
	}

	summary := &WatchdogSummary{Success: true, StaleLinksFound: len(links)}

	for _, link := range links {
		created, err := s.notifyStaleLink(ctx, link, now)
		if err != nil {
			logger.Error("stale-link notification failed",
				"link_id", link.ID,
				"tenant_id", link.TenantID,
				"error", err)
			continue
		}
		if created {
			summary.NotificationsCreated++
		}
	}

	return summary, nil
}

func (s *WatchdogService) notifyStaleLink(ctx context.Context, link *model.WatchedLink, now time.Time) (bool, error) {
	has, err := s.notifications.HasUnreadByReference(ctx, link.ID, model.ReferenceWatchedLink, nil)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	tenant, err := s.tenantRepo.Get(ctx, link.TenantID)
	if err != nil {
		return false, err
	}

	title := link.Title
	if title == "" {
		title = link.URL
	}

	var message string
	if link.LastVisitedAt == nil {
		message = fmt.Sprintf("%s has never been visited.", title)
	} else {
		daysStale := int(now.Sub(*link.LastVisitedAt).Hours() / 24)
		message = fmt.Sprintf("%s has not been checked in %d days.", title, daysStale)
	}

	refID := link.ID
	refType := model.ReferenceWatchedLink
	_, err = s.notifications.Create(ctx, model.NotificationCreateRequest{
		UserID:        tenant.UserID,
		TenantID:      &tenant.ID,
		Type:          model.NotificationSystem,
		Title:         "Link needs attention",
		Message:       message,
		Link:          "/dashboard",
		ReferenceID:   &refID,
		ReferenceType: &refType,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
