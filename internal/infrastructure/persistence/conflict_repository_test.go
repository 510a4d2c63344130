package persistence

import (
	"context"
	"testing"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupConflictTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE sync_conflicts (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			external_id TEXT,
			field TEXT NOT NULL,
			backend_value TEXT,
			external_value TEXT,
			detected_at DATETIME NOT NULL,
			resolution TEXT NOT NULL DEFAULT 'pending',
			resolved_by TEXT,
			resolved_at DATETIME,
			notes TEXT
		)
	`).Error
	require.NoError(t, err)

	return db
}

func newTestConflict(t *testing.T, tenantID, clientID uuid.UUID, field directory.SyncField) *ledgersync.Conflict {
	c, err := ledgersync.NewConflict(tenantID, clientID, nil, field, "backend says", "ledger says")
	require.NoError(t, err)
	return c
}

func TestGormConflictRepository_UpsertPendingInserts(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	conflict := newTestConflict(t, tenantID, uuid.New(), directory.FieldName)
	stored, err := repo.UpsertPending(ctx, conflict)
	require.NoError(t, err)
	assert.Equal(t, conflict.ID, stored.ID)

	found, err := repo.FindByID(ctx, tenantID, conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, ledgersync.ResolutionPending, found.Resolution)
	assert.Equal(t, directory.FieldName, found.Field)
}

func TestGormConflictRepository_UpsertPendingRefreshesExisting(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	clientID := uuid.New()

	first := newTestConflict(t, tenantID, clientID, directory.FieldPhone)
	_, err := repo.UpsertPending(ctx, first)
	require.NoError(t, err)

	second, err := ledgersync.NewConflict(tenantID, clientID, nil, directory.FieldPhone, "555-0100", "555-0199")
	require.NoError(t, err)
	stored, err := repo.UpsertPending(ctx, second)
	require.NoError(t, err)

	// The pending row is refreshed, not duplicated
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "555-0100", stored.BackendValue)
	assert.Equal(t, "555-0199", stored.ExternalValue)

	var count int64
	require.NoError(t, db.Table("sync_conflicts").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormConflictRepository_UpsertPendingDistinctFields(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	clientID := uuid.New()

	_, err := repo.UpsertPending(ctx, newTestConflict(t, tenantID, clientID, directory.FieldName))
	require.NoError(t, err)
	_, err = repo.UpsertPending(ctx, newTestConflict(t, tenantID, clientID, directory.FieldEmail))
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("sync_conflicts").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGormConflictRepository_UpsertPendingAfterResolution(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	clientID := uuid.New()

	conflict := newTestConflict(t, tenantID, clientID, directory.FieldName)
	_, err := repo.UpsertPending(ctx, conflict)
	require.NoError(t, err)

	require.NoError(t, conflict.ResolveBackendWins(uuid.New(), "keep ours"))
	require.NoError(t, repo.Update(ctx, conflict))

	// A fresh detection for the same pair opens a new pending conflict
	again := newTestConflict(t, tenantID, clientID, directory.FieldName)
	stored, err := repo.UpsertPending(ctx, again)
	require.NoError(t, err)
	assert.NotEqual(t, conflict.ID, stored.ID)

	var count int64
	require.NoError(t, db.Table("sync_conflicts").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGormConflictRepository_UpdateResolution(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := uuid.New()

	conflict := newTestConflict(t, tenantID, uuid.New(), directory.FieldAddress)
	_, err := repo.UpsertPending(ctx, conflict)
	require.NoError(t, err)

	require.NoError(t, conflict.ResolveExternalWins(resolver, "ledger is authoritative"))
	require.NoError(t, repo.Update(ctx, conflict))

	found, err := repo.FindByID(ctx, tenantID, conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, ledgersync.ResolutionExternalWins, found.Resolution)
	require.NotNil(t, found.ResolvedBy)
	assert.Equal(t, resolver, *found.ResolvedBy)
	assert.NotNil(t, found.ResolvedAt)
	assert.Equal(t, "ledger is authoritative", found.Notes)
}

func TestGormConflictRepository_FindByResolution(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	pending := newTestConflict(t, tenantID, uuid.New(), directory.FieldName)
	_, err := repo.UpsertPending(ctx, pending)
	require.NoError(t, err)

	resolved := newTestConflict(t, tenantID, uuid.New(), directory.FieldEmail)
	_, err = repo.UpsertPending(ctx, resolved)
	require.NoError(t, err)
	require.NoError(t, resolved.ResolveBackendWins(uuid.New(), ""))
	require.NoError(t, repo.Update(ctx, resolved))

	list, total, err := repo.FindByResolution(ctx, tenantID, ledgersync.ResolutionPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	all, total, err := repo.FindByResolution(ctx, tenantID, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestGormConflictRepository_FindPendingByClientFieldMissing(t *testing.T) {
	db := setupConflictTestDB(t)
	repo := NewGormConflictRepository(db)
	ctx := context.Background()

	_, err := repo.FindPendingByClientField(ctx, uuid.New(), uuid.New(), directory.FieldName)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
