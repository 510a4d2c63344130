package models

import (
	"encoding/json"
	"time"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/google/uuid"
)

// ClientModel is the persistence model for the Client domain aggregate.
type ClientModel struct {
	TenantModel
	ExternalID    *string                  `gorm:"type:varchar(100);uniqueIndex:idx_clients_tenant_external,priority:2"`
	Name          string                   `gorm:"type:varchar(200);not null"`
	Email         string                   `gorm:"type:varchar(200);index"`
	Phone         string                   `gorm:"type:varchar(50)"`
	PhoneDigits   string                   `gorm:"type:varchar(50);index"`
	Address       string                   `gorm:"type:text"`
	PostalCode    string                   `gorm:"type:varchar(20)"`
	Notes         string                   `gorm:"type:text"`
	Source        string                   `gorm:"type:varchar(50)"`
	Status        directory.ClientStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	Latitude      *float64                 `gorm:"type:double precision"`
	Longitude     *float64                 `gorm:"type:double precision"`
	SyncStatus    directory.SyncStatus     `gorm:"type:varchar(20);not null;default:'unsynced';index"`
	PendingFields string                   `gorm:"type:jsonb;default:'[]'"`
	LastSyncAt    *time.Time
	LastSyncError string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *directory.Client {
	c := &directory.Client{
		TenantEntity:  m.ToDomainTenantEntity(),
		ExternalID:    m.ExternalID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		PostalCode:    m.PostalCode,
		Notes:         m.Notes,
		Source:        m.Source,
		Status:        m.Status,
		Latitude:      m.Latitude,
		Longitude:     m.Longitude,
		SyncStatus:    m.SyncStatus,
		LastSyncAt:    m.LastSyncAt,
		LastSyncError: m.LastSyncError,
	}
	if m.PendingFields != "" {
		_ = json.Unmarshal([]byte(m.PendingFields), &c.PendingFields)
	}
	return c
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *directory.Client) {
	m.FromDomainTenantEntity(c.TenantEntity)
	m.ExternalID = c.ExternalID
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.PhoneDigits = directory.PhoneDigits(c.Phone)
	m.Address = c.Address
	m.PostalCode = c.PostalCode
	m.Notes = c.Notes
	m.Source = c.Source
	m.Status = c.Status
	m.Latitude = c.Latitude
	m.Longitude = c.Longitude
	m.SyncStatus = c.SyncStatus
	m.LastSyncAt = c.LastSyncAt
	m.LastSyncError = c.LastSyncError

	if data, err := json.Marshal(c.PendingFields); err == nil {
		m.PendingFields = string(data)
	} else {
		m.PendingFields = "[]"
	}
}

// ExternalRefModel maps an external ledger identifier to a local client.
type ExternalRefModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_external_refs_tenant_external,priority:1"`
	ExternalID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_external_refs_tenant_external,priority:2"`
	ClientID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExternalRefModel) TableName() string {
	return "client_external_refs"
}

// ToDomain converts the persistence model to a domain ExternalRef
func (m *ExternalRefModel) ToDomain() *directory.ExternalRef {
	return &directory.ExternalRef{
		ID:         m.ID,
		TenantID:   m.TenantID,
		ExternalID: m.ExternalID,
		ClientID:   m.ClientID,
	}
}

// FromDomain populates the persistence model from a domain ExternalRef
func (m *ExternalRefModel) FromDomain(r *directory.ExternalRef) {
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.ExternalID = r.ExternalID
	m.ClientID = r.ClientID
}
