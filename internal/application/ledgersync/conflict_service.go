package ledgersync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
)

// ConflictService persists bridge-reported field conflicts and exposes the
// manual resolution operation.
type ConflictService struct {
	scope        TransactionScope
	conflictRepo ledgersync.ConflictRepository
	clientRepo   directory.ClientRepository
	logger       *zap.Logger
}

// NewConflictService creates a new ConflictService
func NewConflictService(
	scope TransactionScope,
	conflictRepo ledgersync.ConflictRepository,
	clientRepo directory.ClientRepository,
	logger *zap.Logger,
) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		scope:        scope,
		conflictRepo: conflictRepo,
		clientRepo:   clientRepo,
		logger:       logger,
	}
}

// Report persists a bridge-reported divergence between the backend's and the
// external system's value for a client field. A repeated detection for a
// (client, field) pair with a pending conflict refreshes that row instead of
// creating a second one.
func (s *ConflictService) Report(ctx context.Context, tenantID, clientID uuid.UUID, field directory.SyncField, backendValue, externalValue string) (*ConflictResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}

	conflict, err := ledgersync.NewConflict(tenantID, clientID, client.ExternalID, field, backendValue, externalValue)
	if err != nil {
		return nil, err
	}

	stored, err := s.conflictRepo.UpsertPending(ctx, conflict)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync conflict recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("field", string(field)),
		zap.String("conflict_id", stored.ID.String()),
	)
	response := ToConflictResponse(stored)
	return &response, nil
}

// Resolve applies an operator's decision to a pending conflict. Backend-wins
// re-enqueues the backend's value at normal priority; external-wins writes
// the external value straight onto the client, bypassing the queue. Both
// resolved states are terminal.
func (s *ConflictService) Resolve(ctx context.Context, tenantID, conflictID uuid.UUID, decision ledgersync.Resolution, resolvedBy uuid.UUID, notes string) (*ConflictResponse, error) {
	var response ConflictResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		conflict, err := repos.ConflictRepo().FindByID(ctx, tenantID, conflictID)
		if err != nil {
			return err
		}

		client, err := repos.ClientRepo().FindByID(ctx, tenantID, conflict.ClientID)
		if err != nil {
			return err
		}

		var applied map[string]string
		switch decision {
		case ledgersync.ResolutionBackendWins:
			if err := conflict.ResolveBackendWins(resolvedBy, notes); err != nil {
				return err
			}
			applied = map[string]string{string(conflict.Field): conflict.BackendValue}

			item, err := ledgersync.NewQueueItem(tenantID, conflict.ClientID, client.ExternalID,
				ledgersync.OperationUpdateField, applied, ledgersync.DefaultPriority)
			if err != nil {
				return err
			}
			if err := repos.QueueRepo().Save(ctx, item); err != nil {
				return err
			}
			client.MarkFieldsPending(conflict.Field)

		case ledgersync.ResolutionExternalWins:
			if err := conflict.ResolveExternalWins(resolvedBy, notes); err != nil {
				return err
			}
			applied = map[string]string{string(conflict.Field): conflict.ExternalValue}

			if err := client.ApplyExternalValue(conflict.Field, conflict.ExternalValue); err != nil {
				return err
			}

		default:
			return shared.NewDomainError("INVALID_INPUT", "Resolution must be backend-wins or external-wins")
		}

		if err := repos.ClientRepo().Update(ctx, client); err != nil {
			return err
		}
		if err := repos.ConflictRepo().Update(ctx, conflict); err != nil {
			return err
		}

		entry := ledgersync.NewResolutionEntry(conflict, applied, resolvedBy.String())
		if err := repos.HistoryRepo().Append(ctx, entry); err != nil {
			return err
		}

		response = ToConflictResponse(conflict)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync conflict resolved",
		zap.String("tenant_id", tenantID.String()),
		zap.String("conflict_id", conflictID.String()),
		zap.String("decision", string(decision)),
	)
	return &response, nil
}
