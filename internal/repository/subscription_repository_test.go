package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRepository_ListByStatuses(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewSubscriptionRepository(tdb.DB)
	ctx := context.Background()

	seed := []*SubscriptionEntity{
		{TenantID: 1, Plan: "basic", Status: "active"},
		{TenantID: 2, Plan: "pro", Status: "past_due"},
		{TenantID: 3, Plan: "standard", Status: "cancelled"},
	}
	for _, s := range seed {
		require.NoError(t, tdb.rawDB.Create(s).Error)
	}

	subs, err := repo.ListByStatuses(ctx, model.SubscriptionActive, model.SubscriptionPastDue)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
	for _, sub := range subs {
		assert.NotEqual(t, model.SubscriptionCancelled, sub.Status)
	}
}

func TestSubscriptionRepository_PaidSubscriptionIDs(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewSubscriptionRepository(tdb.DB)
	ctx := context.Background()

	month := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seed := []*SubscriptionPaymentEntity{
		{SubscriptionID: 1, Month: month, Status: "paid"},
		{SubscriptionID: 2, Month: month, Status: "pending"},
		{SubscriptionID: 3, Month: month.AddDate(0, -1, 0), Status: "paid"},
	}
	for _, p := range seed {
		require.NoError(t, tdb.rawDB.Create(p).Error)
	}

	// Any day inside the month resolves to the same payment rows.
	paid, err := repo.PaidSubscriptionIDs(ctx, time.Date(2026, 4, 17, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true}, paid)
}

func TestSubscriptionRepository_EscalateToPastDue(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewSubscriptionRepository(tdb.DB)
	ctx := context.Background()

	active := &SubscriptionEntity{TenantID: 1, Plan: "basic", Status: "active"}
	pastDue := &SubscriptionEntity{TenantID: 2, Plan: "pro", Status: "past_due"}
	require.NoError(t, tdb.rawDB.Create(active).Error)
	require.NoError(t, tdb.rawDB.Create(pastDue).Error)

	t.Run("active subscription escalates", func(t *testing.T) {
		escalated, err := repo.EscalateToPastDue(ctx, active.ID)
		require.NoError(t, err)
		assert.True(t, escalated)

		var got SubscriptionEntity
		require.NoError(t, tdb.rawDB.First(&got, active.ID).Error)
		assert.Equal(t, "past_due", got.Status)
	})

	t.Run("re-application is a no-op", func(t *testing.T) {
		escalated, err := repo.EscalateToPastDue(ctx, active.ID)
		require.NoError(t, err)
		assert.False(t, escalated)
	})

	t.Run("already past_due is untouched", func(t *testing.T) {
		escalated, err := repo.EscalateToPastDue(ctx, pastDue.ID)
		require.NoError(t, err)
		assert.False(t, escalated)
	})
}
