package directory

import (
	"context"

	"github.com/google/uuid"
)

// ClientRepository defines persistence for the Client aggregate.
// Every operation is tenant-scoped.
type ClientRepository interface {
	// Save persists a new client
	Save(ctx context.Context, client *Client) error
	// Update persists changes to an existing client
	Update(ctx context.Context, client *Client) error
	// FindByID retrieves a client by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	// FindByExternalID retrieves a client by its external ledger identifier
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Client, error)
	// FindByEmailFold retrieves a client by case-insensitive, trimmed email
	FindByEmailFold(ctx context.Context, tenantID uuid.UUID, email string) (*Client, error)
	// FindByPhoneDigits retrieves a client whose phone matches after
	// stripping non-digit characters
	FindByPhoneDigits(ctx context.Context, tenantID uuid.UUID, digits string) (*Client, error)
}

// ExternalRef maps an external ledger identifier to a local client,
// making identifier lookups O(1) on subsequent ingestion runs.
type ExternalRef struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ExternalID string
	ClientID   uuid.UUID
}

// ExternalRefRepository defines persistence for external-identifier mappings
type ExternalRefRepository interface {
	// Upsert inserts or updates the mapping for (tenant, external id)
	Upsert(ctx context.Context, ref *ExternalRef) error
	// FindClientID resolves an external identifier to a client ID
	FindClientID(ctx context.Context, tenantID uuid.UUID, externalID string) (uuid.UUID, error)
}

// ClientCounter is notified of client-count deltas after ingestion commits.
// Quota and billing accounting live in a separate collaborator; this core
// only reports the delta.
type ClientCounter interface {
	AddClients(ctx context.Context, tenantID uuid.UUID, delta int) error
}
