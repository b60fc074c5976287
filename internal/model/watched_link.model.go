package model

import "time"

// WatchedLink is an external resource a tenant monitors. The watchdog
// flags links that have not been visited for two days; visit timestamps
// are updated by the UI layer.
type WatchedLink struct {
	ID            int64      `json:"id"`
	TenantID      int64      `json:"tenant_id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	LastVisitedAt *time.Time `json:"last_visited_at"` // nil when never visited
}

func (WatchedLink) TableName() string { return "watched_links" }
