package persistence

import (
	"context"

	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormHistoryRepository implements ledgersync.HistoryRepository using GORM.
// The table is append-only: the repository exposes no update or delete.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormHistoryRepository) WithTx(tx *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: tx}
}

// Append writes a history entry
func (r *GormHistoryRepository) Append(ctx context.Context, entry *ledgersync.HistoryEntry) error {
	var model models.HistoryEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByClient lists entries for a client, newest first
func (r *GormHistoryRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, page, pageSize int) ([]*ledgersync.HistoryEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.HistoryEntryModel{}).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.HistoryEntryModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*ledgersync.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, total, nil
}

// FindByQueueItem lists the attempt trail of one queue item, oldest first
func (r *GormHistoryRepository) FindByQueueItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]*ledgersync.HistoryEntry, error) {
	var rows []models.HistoryEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND queue_item_id = ?", tenantID, itemID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*ledgersync.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormHistoryRepository implements HistoryRepository
var _ ledgersync.HistoryRepository = (*GormHistoryRepository)(nil)
