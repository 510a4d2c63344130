package ledgersync

import (
	"context"
	"time"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/google/uuid"
)

// QueueRepository defines persistence for sync queue items.
// All queries are tenant-scoped.
type QueueRepository interface {
	// Save persists a new queue item
	Save(ctx context.Context, item *QueueItem) error
	// Update persists state changes to an existing item
	Update(ctx context.Context, item *QueueItem) error
	// FindByID retrieves an item by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*QueueItem, error)
	// ClaimPending atomically claims up to limit deliverable items
	// (status pending, attempts < max attempts) ordered by priority then
	// creation time, moving each to processing with its attempt consumed.
	// Items already claimed by a concurrent invocation are skipped.
	ClaimPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]*QueueItem, error)
	// FindByStatus lists items by status with pagination, newest first
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status ItemStatus, page, pageSize int) ([]*QueueItem, int64, error)
	// CountByStatus returns per-status item counts for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[ItemStatus]int64, error)
}

// ConflictRepository defines persistence for sync conflicts
type ConflictRepository interface {
	// UpsertPending inserts the conflict, or refreshes the values and
	// detection time of an existing pending conflict for the same
	// (client, field) pair. Returns the stored conflict.
	UpsertPending(ctx context.Context, conflict *Conflict) (*Conflict, error)
	// Update persists a resolution
	Update(ctx context.Context, conflict *Conflict) error
	// FindByID retrieves a conflict by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Conflict, error)
	// FindByResolution lists conflicts by resolution state with pagination
	FindByResolution(ctx context.Context, tenantID uuid.UUID, resolution Resolution, page, pageSize int) ([]*Conflict, int64, error)
	// FindPendingByClientField finds the pending conflict for a (client, field) pair
	FindPendingByClientField(ctx context.Context, tenantID, clientID uuid.UUID, field directory.SyncField) (*Conflict, error)
}

// HistoryRepository defines persistence for the append-only audit trail.
// There is deliberately no update or delete operation.
type HistoryRepository interface {
	// Append writes a history entry
	Append(ctx context.Context, entry *HistoryEntry) error
	// FindByClient lists entries for a client, newest first
	FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, page, pageSize int) ([]*HistoryEntry, int64, error)
	// FindByQueueItem lists the attempt trail of one queue item
	FindByQueueItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]*HistoryEntry, error)
}

// BridgeConfigRepository defines persistence for tenant bridge configuration
type BridgeConfigRepository interface {
	// Save persists a new configuration
	Save(ctx context.Context, cfg *BridgeConfig) error
	// Update persists configuration changes
	Update(ctx context.Context, cfg *BridgeConfig) error
	// FindByTenant retrieves the configuration for a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*BridgeConfig, error)
	// FindAutoSyncEnabled lists configurations with auto-sync turned on,
	// across tenants, for the scheduler
	FindAutoSyncEnabled(ctx context.Context) ([]*BridgeConfig, error)
}

// RunLogRepository defines persistence for ingestion run summaries
type RunLogRepository interface {
	// Save persists a run log row
	Save(ctx context.Context, log *RunLog) error
	// FindRecent lists recent runs for a tenant, newest first
	FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*RunLog, error)
	// FindSince lists runs finished at or after the given time
	FindSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*RunLog, error)
}
