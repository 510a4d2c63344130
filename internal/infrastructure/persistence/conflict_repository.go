package persistence

import (
	"context"
	"errors"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConflictRepository implements ledgersync.ConflictRepository using GORM
type GormConflictRepository struct {
	db *gorm.DB
}

// NewGormConflictRepository creates a new GormConflictRepository
func NewGormConflictRepository(db *gorm.DB) *GormConflictRepository {
	return &GormConflictRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormConflictRepository) WithTx(tx *gorm.DB) *GormConflictRepository {
	return &GormConflictRepository{db: tx}
}

// UpsertPending inserts the conflict, or refreshes the values and detection
// time of an existing pending conflict for the same (client, field) pair.
// At most one pending conflict exists per pair.
func (r *GormConflictRepository) UpsertPending(ctx context.Context, conflict *ledgersync.Conflict) (*ledgersync.Conflict, error) {
	existing, err := r.FindPendingByClientField(ctx, conflict.TenantID, conflict.ClientID, conflict.Field)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if err := existing.Redetect(conflict.BackendValue, conflict.ExternalValue); err != nil {
			return nil, err
		}
		if err := r.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	var model models.ConflictModel
	model.FromDomain(conflict)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return conflict, nil
}

// Update persists a resolution or redetection
func (r *GormConflictRepository) Update(ctx context.Context, conflict *ledgersync.Conflict) error {
	var model models.ConflictModel
	model.FromDomain(conflict)
	result := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Where("id = ? AND tenant_id = ?", conflict.ID, conflict.TenantID).
		Select("*").
		Omit("id", "tenant_id").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves a conflict by ID within a tenant
func (r *GormConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledgersync.Conflict, error) {
	var model models.ConflictModel
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

// FindByResolution lists conflicts by resolution state with pagination
func (r *GormConflictRepository) FindByResolution(ctx context.Context, tenantID uuid.UUID, resolution ledgersync.Resolution, page, pageSize int) ([]*ledgersync.Conflict, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Where("tenant_id = ?", tenantID)
	if resolution != "" {
		query = query.Where("resolution = ?", resolution)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ConflictModel
	if err := query.
		Order("detected_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	conflicts := make([]*ledgersync.Conflict, len(rows))
	for i := range rows {
		conflicts[i] = rows[i].ToDomain()
	}
	return conflicts, total, nil
}

// FindPendingByClientField finds the pending conflict for a (client, field) pair
func (r *GormConflictRepository) FindPendingByClientField(ctx context.Context, tenantID, clientID uuid.UUID, field directory.SyncField) (*ledgersync.Conflict, error) {
	var model models.ConflictModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND field = ? AND resolution = ?",
			tenantID, clientID, field, ledgersync.ResolutionPending).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormConflictRepository implements ConflictRepository
var _ ledgersync.ConflictRepository = (*GormConflictRepository)(nil)
