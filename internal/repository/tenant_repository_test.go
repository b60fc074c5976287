package repository

import (
	"context"
	"testing"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantRepository_Get(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewTenantRepository(tdb.DB)
	ctx := context.Background()

	entity := &TenantEntity{UserID: 100, CompanyName: "Acme Corp", Phone: "+15550001", Plan: "basic", Status: "active"}
	require.NoError(t, tdb.rawDB.Create(entity).Error)

	t.Run("found", func(t *testing.T) {
		tenant, err := repo.Get(ctx, entity.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", tenant.CompanyName)
		assert.Equal(t, model.PlanBasic, tenant.Plan)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})
}

func TestTenantRepository_GetByUserID(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewTenantRepository(tdb.DB)
	ctx := context.Background()

	entity := &TenantEntity{UserID: 200, CompanyName: "Beta LLC", Phone: "+15550002", Plan: "pro", Status: "active"}
	require.NoError(t, tdb.rawDB.Create(entity).Error)

	t.Run("found", func(t *testing.T) {
		tenant, err := repo.GetByUserID(ctx, 200)
		require.NoError(t, err)
		assert.Equal(t, entity.ID, tenant.ID)
		assert.Equal(t, "+15550002", tenant.Phone)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByUserID(ctx, 201)
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})
}

func TestTenantRepository_ListUserIDsByRole(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewTenantRepository(tdb.DB)
	ctx := context.Background()

	seed := []*UserRoleEntity{
		{UserID: 1, Role: "super_admin"},
		{UserID: 2, Role: "super_admin"},
		{UserID: 3, Role: "member"},
	}
	for _, r := range seed {
		require.NoError(t, tdb.rawDB.Create(r).Error)
	}

	ids, err := repo.ListUserIDsByRole(ctx, model.RoleSuperAdmin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}
