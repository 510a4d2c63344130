package persistence

import (
	"context"
	"time"

	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRunLogRepository implements ledgersync.RunLogRepository using GORM
type GormRunLogRepository struct {
	db *gorm.DB
}

// NewGormRunLogRepository creates a new GormRunLogRepository
func NewGormRunLogRepository(db *gorm.DB) *GormRunLogRepository {
	return &GormRunLogRepository{db: db}
}

// Save persists a run log row
func (r *GormRunLogRepository) Save(ctx context.Context, log *ledgersync.RunLog) error {
	var model models.RunLogModel
	model.FromDomain(log)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindRecent lists recent runs for a tenant, newest first
func (r *GormRunLogRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*ledgersync.RunLog, error) {
	var rows []models.RunLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("finished_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return runLogsToDomain(rows), nil
}

// FindSince lists runs finished at or after the given time, newest first
func (r *GormRunLogRepository) FindSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*ledgersync.RunLog, error) {
	var rows []models.RunLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND finished_at >= ?", tenantID, since).
		Order("finished_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return runLogsToDomain(rows), nil
}

func runLogsToDomain(rows []models.RunLogModel) []*ledgersync.RunLog {
	logs := make([]*ledgersync.RunLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs
}

// Ensure GormRunLogRepository implements RunLogRepository
var _ ledgersync.RunLogRepository = (*GormRunLogRepository)(nil)
