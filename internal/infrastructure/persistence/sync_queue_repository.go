package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQueueRepository implements ledgersync.QueueRepository using GORM
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository creates a new GormQueueRepository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormQueueRepository) WithTx(tx *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: tx}
}

// Save persists a new queue item
func (r *GormQueueRepository) Save(ctx context.Context, item *ledgersync.QueueItem) error {
	var model models.QueueItemModel
	model.FromDomain(item)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists state changes to an existing item
func (r *GormQueueRepository) Update(ctx context.Context, item *ledgersync.QueueItem) error {
	var model models.QueueItemModel
	model.FromDomain(item)
	result := r.db.WithContext(ctx).
		Model(&models.QueueItemModel{}).
		Where("id = ? AND tenant_id = ?", item.ID, item.TenantID).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves an item by ID within a tenant
func (r *GormQueueRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledgersync.QueueItem, error) {
	var model models.QueueItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ClaimPending atomically claims up to limit deliverable items. The claim is
// a compare-and-swap on the pending status: a concurrent invocation that
// selected the same candidate loses the swap and skips the item, so the two
// transports can run against the same tenant without double delivery.
//
// The UPDATE mirrors QueueItem.MarkProcessing in SQL; it cannot delegate to
// the method because the swap and the transition must be one statement.
func (r *GormQueueRepository) ClaimPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]*ledgersync.QueueItem, error) {
	var candidates []models.QueueItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND attempts < max_attempts", tenantID, ledgersync.ItemStatusPending).
		Order("priority ASC, created_at ASC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	claimed := make([]*ledgersync.QueueItem, 0, len(candidates))
	for i := range candidates {
		result := r.db.WithContext(ctx).
			Model(&models.QueueItemModel{}).
			Where("id = ? AND status = ?", candidates[i].ID, ledgersync.ItemStatusPending).
			Updates(map[string]interface{}{
				"status":       ledgersync.ItemStatusProcessing,
				"attempts":     gorm.Expr("attempts + 1"),
				"processed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the claim to a concurrent invocation
			continue
		}

		var fresh models.QueueItemModel
		if err := r.db.WithContext(ctx).First(&fresh, "id = ?", candidates[i].ID).Error; err != nil {
			return claimed, err
		}
		claimed = append(claimed, fresh.ToDomain())
	}
	return claimed, nil
}

// FindByStatus lists items by status with pagination, newest first
func (r *GormQueueRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status ledgersync.ItemStatus, page, pageSize int) ([]*ledgersync.QueueItem, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QueueItemModel{}).
		Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.QueueItemModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*ledgersync.QueueItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, total, nil
}

// CountByStatus returns per-status item counts for a tenant
func (r *GormQueueRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[ledgersync.ItemStatus]int64, error) {
	type statusCount struct {
		Status ledgersync.ItemStatus
		Count  int64
	}

	var results []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.QueueItemModel{}).
		Select("status, count(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[ledgersync.ItemStatus]int64)
	for _, row := range results {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Ensure GormQueueRepository implements QueueRepository
var _ ledgersync.QueueRepository = (*GormQueueRepository)(nil)
