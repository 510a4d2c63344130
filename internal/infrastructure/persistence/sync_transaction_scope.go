package persistence

import (
	"context"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"gorm.io/gorm"
)

// GormSyncTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations, so an
// ingestion batch either lands as a whole or not at all.
type GormSyncTransactionScope struct {
	db *gorm.DB
}

// NewGormSyncTransactionScope creates a new GormSyncTransactionScope.
func NewGormSyncTransactionScope(db *gorm.DB) *GormSyncTransactionScope {
	return &GormSyncTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormSyncTransactionScope) Execute(ctx context.Context, fn func(repos appsync.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormSyncRepositories{tx: tx}
		return fn(repos)
	})
}

// gormSyncRepositories provides access to all sync repositories within a transaction.
type gormSyncRepositories struct {
	tx *gorm.DB
}

// ClientRepo returns the client repository scoped to the current transaction.
func (r *gormSyncRepositories) ClientRepo() directory.ClientRepository {
	return NewGormClientRepository(r.tx)
}

// ExternalRefRepo returns the external-reference repository scoped to the current transaction.
func (r *gormSyncRepositories) ExternalRefRepo() directory.ExternalRefRepository {
	return NewGormExternalRefRepository(r.tx)
}

// QueueRepo returns the sync queue repository scoped to the current transaction.
func (r *gormSyncRepositories) QueueRepo() ledgersync.QueueRepository {
	return NewGormQueueRepository(r.tx)
}

// ConflictRepo returns the conflict repository scoped to the current transaction.
func (r *gormSyncRepositories) ConflictRepo() ledgersync.ConflictRepository {
	return NewGormConflictRepository(r.tx)
}

// HistoryRepo returns the audit trail repository scoped to the current transaction.
func (r *gormSyncRepositories) HistoryRepo() ledgersync.HistoryRepository {
	return NewGormHistoryRepository(r.tx)
}

// Ensure GormSyncTransactionScope implements TransactionScope
var _ appsync.TransactionScope = (*GormSyncTransactionScope)(nil)

// Ensure gormSyncRepositories implements TransactionalRepositories
var _ appsync.TransactionalRepositories = (*gormSyncRepositories)(nil)
