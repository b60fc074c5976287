package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_GetForMonth(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("missing entry returns not found", func(t *testing.T) {
		_, err := repo.GetForMonth(ctx, 1, time.Now())
		assert.ErrorIs(t, err, ErrLedgerEntryNotFound)
	})

	t.Run("finds entry regardless of day within month", func(t *testing.T) {
		created, err := repo.CreateIfAbsent(ctx, &model.CreditLedgerEntry{
			TenantID:         7,
			Month:            time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			CreditsAllocated: 50,
		})
		require.NoError(t, err)

		got, err := repo.GetForMonth(ctx, 7, time.Date(2026, 3, 28, 23, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, 50, got.CreditsAllocated)
		assert.Equal(t, 0, got.CreditsUsed)
	})
}

func TestLedgerRepository_CreateIfAbsent(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	month := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.CreateIfAbsent(ctx, &model.CreditLedgerEntry{
		TenantID:         10,
		Month:            month,
		CreditsAllocated: 200,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	t.Run("second insert keeps the winner's allocation", func(t *testing.T) {
		second, err := repo.CreateIfAbsent(ctx, &model.CreditLedgerEntry{
			TenantID:         10,
			Month:            month,
			CreditsAllocated: 500,
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 200, second.CreditsAllocated)
	})

	t.Run("different month gets its own entry", func(t *testing.T) {
		other, err := repo.CreateIfAbsent(ctx, &model.CreditLedgerEntry{
			TenantID:         10,
			Month:            month.AddDate(0, 1, 0),
			CreditsAllocated: 200,
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})
}

func TestLedgerRepository_Consume(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry, err := repo.CreateIfAbsent(ctx, &model.CreditLedgerEntry{
		TenantID:         20,
		Month:            time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CreditsAllocated: 2,
	})
	require.NoError(t, err)

	t.Run("increments used counter", func(t *testing.T) {
		updated, err := repo.Consume(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.CreditsUsed)
	})

	t.Run("stops at the allocation", func(t *testing.T) {
		updated, err := repo.Consume(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.CreditsUsed)

		_, err = repo.Consume(ctx, entry.ID)
		assert.ErrorIs(t, err, ErrNoCreditsRemaining)

		got, err := repo.GetForMonth(ctx, 20, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 2, got.CreditsUsed)
	})
}
