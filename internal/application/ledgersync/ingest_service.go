package ledgersync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
)

// IngestService reconciles batches of external ledger records into client
// rows. Each batch runs inside one all-or-nothing transaction; the run
// summary is persisted success or failure.
type IngestService struct {
	scope      TransactionScope
	runLogRepo ledgersync.RunLogRepository
	counter    directory.ClientCounter
	logger     *zap.Logger
}

// NewIngestService creates a new IngestService. The counter may be nil when
// no quota collaborator is wired.
func NewIngestService(
	scope TransactionScope,
	runLogRepo ledgersync.RunLogRepository,
	counter directory.ClientCounter,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		scope:      scope,
		runLogRepo: runLogRepo,
		counter:    counter,
		logger:     logger,
	}
}

// Run ingests one batch of ledger records for a tenant and returns the run
// summary. Per-record validation failures are counted and the batch
// continues; an unexpected repository failure rolls back the whole batch and
// logs a failed run with zero counts.
func (s *IngestService) Run(ctx context.Context, tenantID uuid.UUID, records []ledgersync.LedgerRecord) (*ledgersync.RunSummary, error) {
	startedAt := time.Now()
	summary := &ledgersync.RunSummary{Total: len(records)}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		for i := range records {
			if err := s.ingestRecord(ctx, repos, tenantID, i, &records[i], summary); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		s.logger.Error("ingestion batch rolled back",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("total", len(records)),
			zap.Error(err),
		)
		failed := ledgersync.NewRunLog(tenantID, ledgersync.RunStatusFailed,
			ledgersync.RunSummary{Total: len(records)}, err.Error(), startedAt)
		if logErr := s.runLogRepo.Save(ctx, failed); logErr != nil {
			s.logger.Error("failed to persist run log", zap.Error(logErr))
		}
		return nil, err
	}

	runLog := ledgersync.NewRunLog(tenantID, ledgersync.RunStatusSuccess, *summary, "", startedAt)
	if logErr := s.runLogRepo.Save(ctx, runLog); logErr != nil {
		s.logger.Error("failed to persist run log", zap.Error(logErr))
	}

	if s.counter != nil && summary.Created > 0 {
		if cntErr := s.counter.AddClients(ctx, tenantID, summary.Created); cntErr != nil {
			// Quota accounting failures never fail a committed batch
			s.logger.Warn("failed to report client-count delta",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("delta", summary.Created),
				zap.Error(cntErr),
			)
		}
	}

	s.logger.Info("ingestion batch completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("total", summary.Total),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// ingestRecord reconciles a single record. A validation failure is recorded
// in the summary and returns nil; a repository failure is batch-fatal.
func (s *IngestService) ingestRecord(
	ctx context.Context,
	repos TransactionalRepositories,
	tenantID uuid.UUID,
	index int,
	rec *ledgersync.LedgerRecord,
	summary *ledgersync.RunSummary,
) error {
	if strings.TrimSpace(rec.Name) == "" {
		summary.Failed++
		summary.Errors = append(summary.Errors, ledgersync.RecordError{
			Index:      index,
			ExternalID: rec.ExternalID,
			Message:    "name is required",
		})
		return nil
	}

	client, err := s.matchClient(ctx, repos.ClientRepo(), tenantID, rec)
	if err != nil {
		return err
	}

	if client != nil {
		s.mergeRecord(client, rec)
		if err := repos.ClientRepo().Update(ctx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}
		summary.Updated++
	} else {
		client, err = s.newClientFromRecord(tenantID, rec)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ledgersync.RecordError{
				Index:      index,
				ExternalID: rec.ExternalID,
				Message:    err.Error(),
			})
			return nil
		}
		if err := repos.ClientRepo().Save(ctx, client); err != nil {
			return fmt.Errorf("failed to save client: %w", err)
		}
		summary.Created++
	}

	if rec.ExternalID != "" {
		ref := &directory.ExternalRef{
			ID:         uuid.New(),
			TenantID:   tenantID,
			ExternalID: rec.ExternalID,
			ClientID:   client.ID,
		}
		if err := repos.ExternalRefRepo().Upsert(ctx, ref); err != nil {
			return fmt.Errorf("failed to upsert external ref: %w", err)
		}
	}
	return nil
}

// matchClient resolves an existing client through the ordered cascade:
// external id, then folded email, then phone digits. The first hit wins.
// Returns nil when no clause matches.
func (s *IngestService) matchClient(ctx context.Context, repo directory.ClientRepository, tenantID uuid.UUID, rec *ledgersync.LedgerRecord) (*directory.Client, error) {
	if rec.ExternalID != "" {
		client, err := repo.FindByExternalID(ctx, tenantID, rec.ExternalID)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if email := directory.FoldEmail(rec.Email); email != "" {
		client, err := repo.FindByEmailFold(ctx, tenantID, email)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if digits := directory.PhoneDigits(rec.Phone); len(digits) >= directory.MinPhoneMatchDigits {
		client, err := repo.FindByPhoneDigits(ctx, tenantID, digits)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// mergeRecord applies the field-level merge policy onto a matched client:
// name, status and source are overwritten; email, phone, address, notes and
// postal code are filled only when currently absent; coordinates are never
// overwritten; a missing external id is backfilled.
func (s *IngestService) mergeRecord(client *directory.Client, rec *ledgersync.LedgerRecord) {
	client.Name = rec.Name
	if rec.Status != "" {
		client.Status = directory.ClientStatus(rec.Status)
	}
	if rec.Source != "" {
		client.Source = rec.Source
	}

	if client.Email == "" {
		client.Email = rec.Email
	}
	if client.Phone == "" {
		client.Phone = rec.Phone
	}
	if client.Address == "" {
		client.Address = rec.Address
	}
	if client.PostalCode == "" {
		client.PostalCode = rec.PostalCode
	}
	if client.Notes == "" {
		client.Notes = rec.Notes
	}

	client.FillCoordinates(rec.Latitude, rec.Longitude)
	client.LinkExternalID(rec.ExternalID)
	client.Touch()
}

// newClientFromRecord builds a fresh client row tagged as an external import
func (s *IngestService) newClientFromRecord(tenantID uuid.UUID, rec *ledgersync.LedgerRecord) (*directory.Client, error) {
	client, err := directory.NewClient(tenantID, rec.Name)
	if err != nil {
		return nil, err
	}
	client.Email = rec.Email
	client.Phone = rec.Phone
	client.Address = rec.Address
	client.PostalCode = rec.PostalCode
	client.Notes = rec.Notes
	client.Source = directory.SourceExternalImport
	if rec.Status != "" {
		client.Status = directory.ClientStatus(rec.Status)
	}
	client.FillCoordinates(rec.Latitude, rec.Longitude)
	client.LinkExternalID(rec.ExternalID)
	return client, nil
}
