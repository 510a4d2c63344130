package ledgersync

import (
	"context"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
)

// TransactionScope provides transactional access to sync repositories.
// When a function is executed within a transaction scope, all repository
// operations will be part of the same database transaction and will be
// committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories an ingestion
// run touches, within one transaction. All repositories returned share the
// same underlying database transaction.
type TransactionalRepositories interface {
	// ClientRepo returns the client repository scoped to the current transaction
	ClientRepo() directory.ClientRepository
	// ExternalRefRepo returns the external-reference repository scoped to the current transaction
	ExternalRefRepo() directory.ExternalRefRepository
	// QueueRepo returns the sync queue repository scoped to the current transaction
	QueueRepo() ledgersync.QueueRepository
	// ConflictRepo returns the conflict repository scoped to the current transaction
	ConflictRepo() ledgersync.ConflictRepository
	// HistoryRepo returns the audit trail repository scoped to the current transaction
	HistoryRepo() ledgersync.HistoryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	clientRepo      directory.ClientRepository
	externalRefRepo directory.ExternalRefRepository
	queueRepo       ledgersync.QueueRepository
	conflictRepo    ledgersync.ConflictRepository
	historyRepo     ledgersync.HistoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	clientRepo directory.ClientRepository,
	externalRefRepo directory.ExternalRefRepository,
	queueRepo ledgersync.QueueRepository,
	conflictRepo ledgersync.ConflictRepository,
	historyRepo ledgersync.HistoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		clientRepo:      clientRepo,
		externalRefRepo: externalRefRepo,
		queueRepo:       queueRepo,
		conflictRepo:    conflictRepo,
		historyRepo:     historyRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ClientRepo returns the client repository.
func (s *NoOpTransactionScope) ClientRepo() directory.ClientRepository {
	return s.clientRepo
}

// ExternalRefRepo returns the external-reference repository.
func (s *NoOpTransactionScope) ExternalRefRepo() directory.ExternalRefRepository {
	return s.externalRefRepo
}

// QueueRepo returns the sync queue repository.
func (s *NoOpTransactionScope) QueueRepo() ledgersync.QueueRepository {
	return s.queueRepo
}

// ConflictRepo returns the conflict repository.
func (s *NoOpTransactionScope) ConflictRepo() ledgersync.ConflictRepository {
	return s.conflictRepo
}

// HistoryRepo returns the audit trail repository.
func (s *NoOpTransactionScope) HistoryRepo() ledgersync.HistoryRepository {
	return s.historyRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
