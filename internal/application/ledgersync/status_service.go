package ledgersync

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
)

// StatusService serves the operator read side: queue listings, stats, the
// audit trail, conflict lists and ingestion run logs.
type StatusService struct {
	queueRepo    ledgersync.QueueRepository
	conflictRepo ledgersync.ConflictRepository
	historyRepo  ledgersync.HistoryRepository
	runLogRepo   ledgersync.RunLogRepository
}

// NewStatusService creates a new StatusService
func NewStatusService(
	queueRepo ledgersync.QueueRepository,
	conflictRepo ledgersync.ConflictRepository,
	historyRepo ledgersync.HistoryRepository,
	runLogRepo ledgersync.RunLogRepository,
) *StatusService {
	return &StatusService{
		queueRepo:    queueRepo,
		conflictRepo: conflictRepo,
		historyRepo:  historyRepo,
		runLogRepo:   runLogRepo,
	}
}

// QueueList lists queue items, newest first, optionally filtered by status
func (s *StatusService) QueueList(ctx context.Context, tenantID uuid.UUID, status string, page, pageSize int) ([]QueueItemResponse, int64, error) {
	itemStatus := ledgersync.ItemStatus(status)
	switch itemStatus {
	case "", ledgersync.ItemStatusPending, ledgersync.ItemStatusProcessing,
		ledgersync.ItemStatusCompleted, ledgersync.ItemStatusFailed:
	default:
		return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown queue item status")
	}

	items, total, err := s.queueRepo.FindByStatus(ctx, tenantID, itemStatus, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return ToQueueItemResponses(items), total, nil
}

// Stats returns the per-status queue item counts for a tenant
func (s *StatusService) Stats(ctx context.Context, tenantID uuid.UUID) (*QueueStatsResponse, error) {
	counts, err := s.queueRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &QueueStatsResponse{
		Pending:    counts[ledgersync.ItemStatusPending],
		Processing: counts[ledgersync.ItemStatusProcessing],
		Completed:  counts[ledgersync.ItemStatusCompleted],
		Failed:     counts[ledgersync.ItemStatusFailed],
	}, nil
}

// History lists a client's audit trail, newest first
func (s *StatusService) History(ctx context.Context, tenantID, clientID uuid.UUID, page, pageSize int) ([]HistoryEntryResponse, int64, error) {
	entries, total, err := s.historyRepo.FindByClient(ctx, tenantID, clientID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return ToHistoryEntryResponses(entries), total, nil
}

// Conflicts lists conflicts, optionally filtered by resolution state
func (s *StatusService) Conflicts(ctx context.Context, tenantID uuid.UUID, resolution string, page, pageSize int) ([]ConflictResponse, int64, error) {
	res := ledgersync.Resolution(resolution)
	switch res {
	case "", ledgersync.ResolutionPending, ledgersync.ResolutionBackendWins, ledgersync.ResolutionExternalWins:
	default:
		return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown conflict resolution state")
	}

	conflicts, total, err := s.conflictRepo.FindByResolution(ctx, tenantID, res, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return ToConflictResponses(conflicts), total, nil
}

// RunLogs lists recent ingestion run summaries, newest first
func (s *StatusService) RunLogs(ctx context.Context, tenantID uuid.UUID, limit int) ([]RunLogResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	logs, err := s.runLogRepo.FindRecent(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	return ToRunLogResponses(logs), nil
}
