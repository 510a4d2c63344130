package persistence

import (
	"context"
	"errors"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements directory.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormClientRepository) WithTx(tx *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: tx}
}

// Save persists a new client
func (r *GormClientRepository) Save(ctx context.Context, client *directory.Client) error {
	var model models.ClientModel
	model.FromDomain(client)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing client
func (r *GormClientRepository) Update(ctx context.Context, client *directory.Client) error {
	var model models.ClientModel
	model.FromDomain(client)
	result := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("id = ? AND tenant_id = ?", client.ID, client.TenantID).
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

// FindByID finds a client by ID within a tenant
func (r *GormClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*directory.Client, error) {
	var model models.ClientModel
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

// FindByExternalID finds a client by its external ledger identifier
func (r *GormClientRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*directory.Client, error) {
	if externalID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmailFold finds a client by case-insensitive, trimmed email
func (r *GormClientRepository) FindByEmailFold(ctx context.Context, tenantID uuid.UUID, email string) (*directory.Client, error) {
	folded := directory.FoldEmail(email)
	if folded == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(TRIM(email)) = ?", tenantID, folded).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPhoneDigits finds a client by its digit-stripped phone number.
// The digit string is maintained as a dedicated indexed column on write.
func (r *GormClientRepository) FindByPhoneDigits(ctx context.Context, tenantID uuid.UUID, digits string) (*directory.Client, error) {
	if len(digits) < directory.MinPhoneMatchDigits {
		return nil, shared.ErrNotFound
	}
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND phone_digits = ?", tenantID, digits).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormClientRepository implements ClientRepository
var _ directory.ClientRepository = (*GormClientRepository)(nil)
