package ledgersync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/infrastructure/bridge"
)

// MockClientRepository is a mock implementation of directory.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Save(ctx context.Context, client *directory.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Update(ctx context.Context, client *directory.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*directory.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

func (m *MockClientRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*directory.Client, error) {
	args := m.Called(ctx, tenantID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

func (m *MockClientRepository) FindByEmailFold(ctx context.Context, tenantID uuid.UUID, email string) (*directory.Client, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

func (m *MockClientRepository) FindByPhoneDigits(ctx context.Context, tenantID uuid.UUID, digits string) (*directory.Client, error) {
	args := m.Called(ctx, tenantID, digits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

// MockExternalRefRepository is a mock implementation of directory.ExternalRefRepository
type MockExternalRefRepository struct {
	mock.Mock
}

func (m *MockExternalRefRepository) Upsert(ctx context.Context, ref *directory.ExternalRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockExternalRefRepository) FindClientID(ctx context.Context, tenantID uuid.UUID, externalID string) (uuid.UUID, error) {
	args := m.Called(ctx, tenantID, externalID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockQueueRepository is a mock implementation of ledgersync.QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Save(ctx context.Context, item *ledgersync.QueueItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockQueueRepository) Update(ctx context.Context, item *ledgersync.QueueItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockQueueRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledgersync.QueueItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersync.QueueItem), args.Error(1)
}

func (m *MockQueueRepository) ClaimPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]*ledgersync.QueueItem, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgersync.QueueItem), args.Error(1)
}

func (m *MockQueueRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status ledgersync.ItemStatus, page, pageSize int) ([]*ledgersync.QueueItem, int64, error) {
	args := m.Called(ctx, tenantID, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledgersync.QueueItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockQueueRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[ledgersync.ItemStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[ledgersync.ItemStatus]int64), args.Error(1)
}

// MockConflictRepository is a mock implementation of ledgersync.ConflictRepository
type MockConflictRepository struct {
	mock.Mock
}

func (m *MockConflictRepository) UpsertPending(ctx context.Context, conflict *ledgersync.Conflict) (*ledgersync.Conflict, error) {
	args := m.Called(ctx, conflict)
	if fn, ok := args.Get(0).(func(context.Context, *ledgersync.Conflict) (*ledgersync.Conflict, error)); ok {
		return fn(ctx, conflict)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersync.Conflict), args.Error(1)
}

func (m *MockConflictRepository) Update(ctx context.Context, conflict *ledgersync.Conflict) error {
	args := m.Called(ctx, conflict)
	return args.Error(0)
}

func (m *MockConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledgersync.Conflict, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersync.Conflict), args.Error(1)
}

func (m *MockConflictRepository) FindByResolution(ctx context.Context, tenantID uuid.UUID, resolution ledgersync.Resolution, page, pageSize int) ([]*ledgersync.Conflict, int64, error) {
	args := m.Called(ctx, tenantID, resolution, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledgersync.Conflict), args.Get(1).(int64), args.Error(2)
}

func (m *MockConflictRepository) FindPendingByClientField(ctx context.Context, tenantID, clientID uuid.UUID, field directory.SyncField) (*ledgersync.Conflict, error) {
	args := m.Called(ctx, tenantID, clientID, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersync.Conflict), args.Error(1)
}

// MockHistoryRepository is a mock implementation of ledgersync.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *ledgersync.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, page, pageSize int) ([]*ledgersync.HistoryEntry, int64, error) {
	args := m.Called(ctx, tenantID, clientID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledgersync.HistoryEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockHistoryRepository) FindByQueueItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]*ledgersync.HistoryEntry, error) {
	args := m.Called(ctx, tenantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgersync.HistoryEntry), args.Error(1)
}

// MockBridgeConfigRepository is a mock implementation of ledgersync.BridgeConfigRepository
type MockBridgeConfigRepository struct {
	mock.Mock
}

func (m *MockBridgeConfigRepository) Save(ctx context.Context, cfg *ledgersync.BridgeConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockBridgeConfigRepository) Update(ctx context.Context, cfg *ledgersync.BridgeConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockBridgeConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ledgersync.BridgeConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersync.BridgeConfig), args.Error(1)
}

func (m *MockBridgeConfigRepository) FindAutoSyncEnabled(ctx context.Context) ([]*ledgersync.BridgeConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgersync.BridgeConfig), args.Error(1)
}

// MockRunLogRepository is a mock implementation of ledgersync.RunLogRepository
type MockRunLogRepository struct {
	mock.Mock
}

func (m *MockRunLogRepository) Save(ctx context.Context, log *ledgersync.RunLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRunLogRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*ledgersync.RunLog, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgersync.RunLog), args.Error(1)
}

func (m *MockRunLogRepository) FindSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*ledgersync.RunLog, error) {
	args := m.Called(ctx, tenantID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgersync.RunLog), args.Error(1)
}

// MockClientCounter is a mock implementation of directory.ClientCounter
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) AddClients(ctx context.Context, tenantID uuid.UUID, delta int) error {
	args := m.Called(ctx, tenantID, delta)
	return args.Error(0)
}

// MockBridgeClient is a mock implementation of bridge.Client
type MockBridgeClient struct {
	mock.Mock
}

func (m *MockBridgeClient) Push(ctx context.Context, cfg *ledgersync.BridgeConfig, item *ledgersync.QueueItem) (*bridge.PushResult, error) {
	args := m.Called(ctx, cfg, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bridge.PushResult), args.Error(1)
}

// newTestScope wires a NoOpTransactionScope over the given mocks
func newTestScope(
	clientRepo *MockClientRepository,
	refRepo *MockExternalRefRepository,
	queueRepo *MockQueueRepository,
	conflictRepo *MockConflictRepository,
	historyRepo *MockHistoryRepository,
) *NoOpTransactionScope {
	return NewNoOpTransactionScope(clientRepo, refRepo, queueRepo, conflictRepo, historyRepo)
}
