package ledgersync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/bridge"
)

const (
	// ActorWorker is the history actor recorded for worker-driven dispatches
	ActorWorker = "dispatch-worker"
	// ActorBridge is the history actor recorded for bridge-reported outcomes
	ActorBridge = "bridge"
)

// DefaultPacingDelay separates consecutive pushes within one batch
const DefaultPacingDelay = 200 * time.Millisecond

// DispatchService drains the sync queue. It supports two transports: the
// worker-driven push (ProcessBatch) and the bridge-driven poll
// (FetchPending / ReportOutcome). Both apply identical state transitions;
// the processing status is the shared claim that keeps them from double
// delivering one item.
type DispatchService struct {
	scope        TransactionScope
	queueRepo    ledgersync.QueueRepository
	clientRepo   directory.ClientRepository
	configRepo   ledgersync.BridgeConfigRepository
	bridgeClient bridge.Client
	pacingDelay  time.Duration
	logger       *zap.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	scope TransactionScope,
	queueRepo ledgersync.QueueRepository,
	clientRepo directory.ClientRepository,
	configRepo ledgersync.BridgeConfigRepository,
	bridgeClient bridge.Client,
	logger *zap.Logger,
) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		scope:        scope,
		queueRepo:    queueRepo,
		clientRepo:   clientRepo,
		configRepo:   configRepo,
		bridgeClient: bridgeClient,
		pacingDelay:  DefaultPacingDelay,
		logger:       logger,
	}
}

// SetPacingDelay overrides the delay between consecutive pushes in a batch
func (s *DispatchService) SetPacingDelay(d time.Duration) {
	s.pacingDelay = d
}

// Enqueue appends a new queue item for a client change and marks the
// asserted fields pending on the client. The queue performs no
// deduplication; callers coalesce via the client's pending-field set.
func (s *DispatchService) Enqueue(ctx context.Context, tenantID, clientID uuid.UUID, op ledgersync.Operation, payload map[string]string, priority int) (*QueueItemResponse, error) {
	var response QueueItemResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		client, err := repos.ClientRepo().FindByID(ctx, tenantID, clientID)
		if err != nil {
			return err
		}

		item, err := ledgersync.NewQueueItem(tenantID, clientID, client.ExternalID, op, payload, priority)
		if err != nil {
			return err
		}
		if err := repos.QueueRepo().Save(ctx, item); err != nil {
			return err
		}

		client.MarkFieldsPending(item.Fields()...)
		if err := repos.ClientRepo().Update(ctx, client); err != nil {
			return err
		}

		response = ToQueueItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ProcessBatch claims up to maxItems deliverable items for the tenant and
// pushes each to the bridge. Per-item transactions: one item's failure never
// rolls back a completed sibling. A missing bridge configuration
// short-circuits before anything is claimed, so no attempt is consumed.
func (s *DispatchService) ProcessBatch(ctx context.Context, tenantID uuid.UUID, maxItems int) (*DispatchBatchResult, error) {
	cfg, err := s.configRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotConfigured
		}
		return nil, err
	}
	if !cfg.IsConfigured() {
		return nil, shared.ErrNotConfigured
	}

	items, err := s.queueRepo.ClaimPending(ctx, tenantID, maxItems)
	if err != nil {
		return nil, err
	}

	result := &DispatchBatchResult{Claimed: len(items)}
	for i, item := range items {
		if i > 0 && s.pacingDelay > 0 {
			select {
			case <-time.After(s.pacingDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		delivered, err := s.dispatchItem(ctx, cfg, item)
		if err != nil {
			return result, err
		}
		if delivered {
			result.Delivered++
		} else {
			result.Failed++
		}
	}

	s.logger.Info("dispatch batch finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("claimed", result.Claimed),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// dispatchItem pushes one claimed item to the bridge and commits the outcome.
// The bridge call happens outside any transaction; the claim was committed
// before it and the outcome commits after it.
func (s *DispatchService) dispatchItem(ctx context.Context, cfg *ledgersync.BridgeConfig, item *ledgersync.QueueItem) (bool, error) {
	pushResult, pushErr := s.bridgeClient.Push(ctx, cfg, item)

	outcome := ledgersync.OutcomeDelivered
	errText := ""
	raw := ""
	externalID := ""
	if pushResult != nil {
		raw = pushResult.RawBody
		externalID = pushResult.ExternalID
	}
	if pushErr != nil {
		if errors.Is(pushErr, bridge.ErrTimeout) {
			outcome = ledgersync.OutcomeTimeout
			errText = "bridge timeout"
		} else {
			outcome = ledgersync.OutcomeFailed
			errText = pushErr.Error()
		}
	}

	err := s.applyOutcome(ctx, item, outcome, errText, raw, externalID, ActorWorker)
	if err != nil {
		return false, err
	}
	return pushErr == nil, nil
}

// applyOutcome commits the state transition for one attempt: queue item,
// owning client mirror, and exactly one history entry, atomically.
func (s *DispatchService) applyOutcome(ctx context.Context, item *ledgersync.QueueItem, outcome ledgersync.Outcome, errText, raw, externalID, actor string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		client, err := repos.ClientRepo().FindByID(ctx, item.TenantID, item.ClientID)
		if err != nil {
			return err
		}

		before := make(map[string]string, len(item.Payload))
		for _, field := range item.Fields() {
			before[string(field)] = client.FieldValue(field)
		}

		if outcome == ledgersync.OutcomeDelivered {
			if err := item.Complete(); err != nil {
				return err
			}
			client.CompleteSync(item.Fields()...)
			if externalID != "" && !client.HasExternalID() {
				client.LinkExternalID(externalID)
				item.ExternalID = &externalID
				ref := &directory.ExternalRef{
					ID:         uuid.New(),
					TenantID:   item.TenantID,
					ExternalID: externalID,
					ClientID:   client.ID,
				}
				if err := repos.ExternalRefRepo().Upsert(ctx, ref); err != nil {
					return err
				}
			}
		} else {
			if err := item.Fail(errText); err != nil {
				return err
			}
			if item.IsTerminalFailure() {
				client.FailSync(errText)
			} else {
				client.RetrySync(errText)
			}
		}

		if err := repos.QueueRepo().Update(ctx, item); err != nil {
			return err
		}
		if err := repos.ClientRepo().Update(ctx, client); err != nil {
			return err
		}

		entry := ledgersync.NewAttemptEntry(item, before, outcome, errText, raw, actor)
		return repos.HistoryRepo().Append(ctx, entry)
	})
}

// FetchPending is the bridge-driven transport's claim operation: up to limit
// deliverable items are claimed and returned together with the tenant's
// bridge credentials.
func (s *DispatchService) FetchPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]PendingItemResponse, error) {
	cfg, err := s.configRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotConfigured
		}
		return nil, err
	}
	if !cfg.IsConfigured() {
		return nil, shared.ErrNotConfigured
	}

	items, err := s.queueRepo.ClaimPending(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]PendingItemResponse, len(items))
	for i, item := range items {
		responses[i] = PendingItemResponse{
			ItemID:         item.ID.String(),
			ClientID:       item.ClientID.String(),
			ExternalID:     item.ExternalID,
			Operation:      string(item.Operation),
			Payload:        item.Payload,
			Attempt:        item.Attempts,
			IdempotencyKey: item.IdempotencyKey(),
			Credentials:    string(cfg.Credentials),
		}
	}
	return responses, nil
}

// ReportOutcome records a bridge-reported delivery result for a previously
// fetched item, applying the same transitions as a worker-driven dispatch.
func (s *DispatchService) ReportOutcome(ctx context.Context, tenantID, itemID uuid.UUID, success bool, errText, raw string) error {
	item, err := s.queueRepo.FindByID(ctx, tenantID, itemID)
	if err != nil {
		return err
	}

	outcome := ledgersync.OutcomeDelivered
	if !success {
		outcome = ledgersync.OutcomeFailed
		if errText == "" {
			errText = "delivery failed"
		}
	}
	return s.applyOutcome(ctx, item, outcome, errText, raw, "", ActorBridge)
}

// Retry is the operator action that re-enters an item into the queue: the
// attempt count returns to zero and the item becomes pending again. It
// covers terminally failed items and items stranded in processing by a
// crash between claim and outcome. Never automatic.
func (s *DispatchService) Retry(ctx context.Context, tenantID, itemID uuid.UUID) (*QueueItemResponse, error) {
	var response QueueItemResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.QueueRepo().FindByID(ctx, tenantID, itemID)
		if err != nil {
			return err
		}
		if err := item.ResetForRetry(); err != nil {
			return err
		}
		if err := repos.QueueRepo().Update(ctx, item); err != nil {
			return err
		}

		client, err := repos.ClientRepo().FindByID(ctx, tenantID, item.ClientID)
		if err != nil {
			return err
		}
		client.MarkFieldsPending(item.Fields()...)
		if err := repos.ClientRepo().Update(ctx, client); err != nil {
			return err
		}

		response = ToQueueItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}
