package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchedLinkRepository_ListStale(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewWatchedLinkRepository(tdb.DB)
	ctx := context.Background()

	now := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-48 * time.Hour)

	threeDaysAgo := now.Add(-72 * time.Hour)
	oneHourAgo := now.Add(-time.Hour)

	seed := []*WatchedLinkEntity{
		{TenantID: 1, Title: "never visited", URL: "https://example.com/a"},
		{TenantID: 1, Title: "old visit", URL: "https://example.com/b", LastVisitedAt: &threeDaysAgo},
		{TenantID: 2, Title: "fresh visit", URL: "https://example.com/c", LastVisitedAt: &oneHourAgo},
	}
	for _, l := range seed {
		require.NoError(t, tdb.rawDB.Create(l).Error)
	}

	links, err := repo.ListStale(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, links, 2)

	titles := []string{links[0].Title, links[1].Title}
	assert.Contains(t, titles, "never visited")
	assert.Contains(t, titles, "old visit")
	assert.NotContains(t, titles, "fresh visit")
}

func TestWatchedLinkRepository_ListStale_Empty(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewWatchedLinkRepository(db)
	ctx := context.Background()

	links, err := repo.ListStale(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, links)
}
