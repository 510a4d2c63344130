package persistence

import (
	"context"
	"errors"

	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBridgeConfigRepository implements ledgersync.BridgeConfigRepository using GORM
type GormBridgeConfigRepository struct {
	db *gorm.DB
}

// NewGormBridgeConfigRepository creates a new GormBridgeConfigRepository
func NewGormBridgeConfigRepository(db *gorm.DB) *GormBridgeConfigRepository {
	return &GormBridgeConfigRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormBridgeConfigRepository) WithTx(tx *gorm.DB) *GormBridgeConfigRepository {
	return &GormBridgeConfigRepository{db: tx}
}

// Save persists a new configuration
func (r *GormBridgeConfigRepository) Save(ctx context.Context, cfg *ledgersync.BridgeConfig) error {
	var model models.BridgeConfigModel
	model.FromDomain(cfg)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists configuration changes
func (r *GormBridgeConfigRepository) Update(ctx context.Context, cfg *ledgersync.BridgeConfig) error {
	var model models.BridgeConfigModel
	model.FromDomain(cfg)
	result := r.db.WithContext(ctx).
		Model(&models.BridgeConfigModel{}).
		Where("id = ? AND tenant_id = ?", cfg.ID, cfg.TenantID).
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

// FindByTenant retrieves the configuration for a tenant
func (r *GormBridgeConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ledgersync.BridgeConfig, error) {
	var model models.BridgeConfigModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAutoSyncEnabled lists configurations with auto-sync turned on, across tenants
func (r *GormBridgeConfigRepository) FindAutoSyncEnabled(ctx context.Context) ([]*ledgersync.BridgeConfig, error) {
	var rows []models.BridgeConfigModel
	if err := r.db.WithContext(ctx).
		Where("auto_sync_enabled = ?", true).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	configs := make([]*ledgersync.BridgeConfig, len(rows))
	for i := range rows {
		configs[i] = rows[i].ToDomain()
	}
	return configs, nil
}

// Ensure GormBridgeConfigRepository implements BridgeConfigRepository
var _ ledgersync.BridgeConfigRepository = (*GormBridgeConfigRepository)(nil)
