package ledgersync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
)

// ConfigService manages tenant bridge configuration. Written by tenant
// admins, read-only to the dispatch worker.
type ConfigService struct {
	configRepo ledgersync.BridgeConfigRepository
	logger     *zap.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(configRepo ledgersync.BridgeConfigRepository, logger *zap.Logger) *ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{
		configRepo: configRepo,
		logger:     logger,
	}
}

// Get returns the tenant's bridge configuration with the credential blob masked
func (s *ConfigService) Get(ctx context.Context, tenantID uuid.UUID) (*BridgeConfigResponse, error) {
	cfg, err := s.configRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	response := ToBridgeConfigResponse(cfg)
	return &response, nil
}

// Put creates or updates the tenant's bridge configuration. An empty
// credentials value on an update keeps the stored blob.
func (s *ConfigService) Put(ctx context.Context, tenantID uuid.UUID, req PutBridgeConfigRequest) (*BridgeConfigResponse, error) {
	interval := time.Duration(req.SyncIntervalSec) * time.Second

	var credentials []byte
	if req.Credentials != "" {
		credentials = []byte(req.Credentials)
	}

	cfg, err := s.configRepo.FindByTenant(ctx, tenantID)
	switch {
	case err == nil:
		if err := cfg.Update(req.SystemName, req.Endpoint, credentials, req.AutoSyncEnabled, interval); err != nil {
			return nil, err
		}
		if err := s.configRepo.Update(ctx, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		cfg, err = ledgersync.NewBridgeConfig(tenantID, req.SystemName, req.Endpoint, credentials, req.AutoSyncEnabled, interval)
		if err != nil {
			return nil, err
		}
		if err := s.configRepo.Save(ctx, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.logger.Info("bridge configuration saved",
		zap.String("tenant_id", tenantID.String()),
		zap.String("system_name", cfg.SystemName),
		zap.Bool("auto_sync_enabled", cfg.AutoSyncEnabled),
	)
	response := ToBridgeConfigResponse(cfg)
	return &response, nil
}
