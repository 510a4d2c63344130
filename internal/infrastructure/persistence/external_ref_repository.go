package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExternalRefRepository implements directory.ExternalRefRepository using GORM
type GormExternalRefRepository struct {
	db *gorm.DB
}

// NewGormExternalRefRepository creates a new GormExternalRefRepository
func NewGormExternalRefRepository(db *gorm.DB) *GormExternalRefRepository {
	return &GormExternalRefRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormExternalRefRepository) WithTx(tx *gorm.DB) *GormExternalRefRepository {
	return &GormExternalRefRepository{db: tx}
}

// Upsert inserts or updates the mapping for (tenant, external id)
func (r *GormExternalRefRepository) Upsert(ctx context.Context, ref *directory.ExternalRef) error {
	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	now := time.Now()
	model := models.ExternalRefModel{
		CreatedAt: now,
		UpdatedAt: now,
	}
	model.FromDomain(ref)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"client_id": ref.ClientID, "updated_at": now}),
		}).
		Create(&model).Error
}

// FindClientID resolves an external identifier to a client ID
func (r *GormExternalRefRepository) FindClientID(ctx context.Context, tenantID uuid.UUID, externalID string) (uuid.UUID, error) {
	var model models.ExternalRefModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return model.ClientID, nil
}

// Ensure GormExternalRefRepository implements ExternalRefRepository
var _ directory.ExternalRefRepository = (*GormExternalRefRepository)(nil)
