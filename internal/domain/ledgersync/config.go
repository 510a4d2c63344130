package ledgersync

import (
	"time"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BridgeConfig is the per-tenant configuration for the bridge process that
// relays changes to the external bookkeeping system. It is created and
// updated by tenant admins and read-only to the dispatch worker.
type BridgeConfig struct {
	shared.TenantEntity
	SystemName      string
	Endpoint        string
	Credentials     []byte
	AutoSyncEnabled bool
	SyncInterval    time.Duration
}

// NewBridgeConfig creates a bridge configuration for a tenant
func NewBridgeConfig(tenantID uuid.UUID, systemName, endpoint string, credentials []byte, autoSync bool, interval time.Duration) (*BridgeConfig, error) {
	if systemName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "External system name is required")
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &BridgeConfig{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		SystemName:      systemName,
		Endpoint:        endpoint,
		Credentials:     credentials,
		AutoSyncEnabled: autoSync,
		SyncInterval:    interval,
	}, nil
}

// DefaultSyncInterval applies when a tenant configures no interval
const DefaultSyncInterval = 15 * time.Minute

// IsConfigured reports whether dispatch can proceed for this tenant.
// A missing credential blob must short-circuit dispatch with an explicit
// "not configured" outcome instead of sending empty credentials.
func (c *BridgeConfig) IsConfigured() bool {
	return len(c.Credentials) > 0 && c.Endpoint != ""
}

// Update applies admin changes. A nil credentials argument keeps the stored blob.
func (c *BridgeConfig) Update(systemName, endpoint string, credentials []byte, autoSync bool, interval time.Duration) error {
	if systemName == "" {
		return shared.NewDomainError("INVALID_INPUT", "External system name is required")
	}
	c.SystemName = systemName
	c.Endpoint = endpoint
	if credentials != nil {
		c.Credentials = credentials
	}
	c.AutoSyncEnabled = autoSync
	if interval > 0 {
		c.SyncInterval = interval
	}
	c.Touch()
	return nil
}
