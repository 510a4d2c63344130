package handler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/bridge"
)

// In-memory fakes backing handler tests. They implement just enough of the
// repository contracts for full request/response round trips.

type fakeClientRepo struct {
	clients map[uuid.UUID]*directory.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uuid.UUID]*directory.Client)}
}

func (r *fakeClientRepo) Save(_ context.Context, client *directory.Client) error {
	r.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) Update(_ context.Context, client *directory.Client) error {
	if _, ok := r.clients[client.ID]; !ok {
		return shared.ErrNotFound
	}
	r.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*directory.Client, error) {
	if client, ok := r.clients[id]; ok && client.TenantID == tenantID {
		return client, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeClientRepo) FindByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*directory.Client, error) {
	for _, client := range r.clients {
		if client.TenantID == tenantID && client.HasExternalID() && *client.ExternalID == externalID {
			return client, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeClientRepo) FindByEmailFold(_ context.Context, tenantID uuid.UUID, email string) (*directory.Client, error) {
	for _, client := range r.clients {
		if client.TenantID == tenantID && directory.FoldEmail(client.Email) == email {
			return client, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeClientRepo) FindByPhoneDigits(_ context.Context, tenantID uuid.UUID, digits string) (*directory.Client, error) {
	for _, client := range r.clients {
		if client.TenantID == tenantID && directory.PhoneDigits(client.Phone) == digits {
			return client, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeExternalRefRepo struct {
	refs map[string]uuid.UUID // tenant|external id -> client id
}

func newFakeExternalRefRepo() *fakeExternalRefRepo {
	return &fakeExternalRefRepo{refs: make(map[string]uuid.UUID)}
}

func refKey(tenantID uuid.UUID, externalID string) string {
	return tenantID.String() + "|" + externalID
}

func (r *fakeExternalRefRepo) Upsert(_ context.Context, ref *directory.ExternalRef) error {
	r.refs[refKey(ref.TenantID, ref.ExternalID)] = ref.ClientID
	return nil
}

func (r *fakeExternalRefRepo) FindClientID(_ context.Context, tenantID uuid.UUID, externalID string) (uuid.UUID, error) {
	if clientID, ok := r.refs[refKey(tenantID, externalID)]; ok {
		return clientID, nil
	}
	return uuid.Nil, shared.ErrNotFound
}

type fakeQueueRepo struct {
	items map[uuid.UUID]*ledgersync.QueueItem
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{items: make(map[uuid.UUID]*ledgersync.QueueItem)}
}

func (r *fakeQueueRepo) Save(_ context.Context, item *ledgersync.QueueItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *fakeQueueRepo) Update(_ context.Context, item *ledgersync.QueueItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return shared.ErrNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeQueueRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ledgersync.QueueItem, error) {
	if item, ok := r.items[id]; ok && item.TenantID == tenantID {
		return item, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeQueueRepo) ClaimPending(_ context.Context, tenantID uuid.UUID, limit int) ([]*ledgersync.QueueItem, error) {
	candidates := make([]*ledgersync.QueueItem, 0)
	for _, item := range r.items {
		if item.TenantID == tenantID && item.Status == ledgersync.ItemStatusPending && item.Attempts < item.MaxAttempts {
			candidates = append(candidates, item)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for _, item := range candidates {
		if err := item.MarkProcessing(); err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

func (r *fakeQueueRepo) FindByStatus(_ context.Context, tenantID uuid.UUID, status ledgersync.ItemStatus, page, pageSize int) ([]*ledgersync.QueueItem, int64, error) {
	matched := make([]*ledgersync.QueueItem, 0)
	for _, item := range r.items {
		if item.TenantID == tenantID && (status == "" || item.Status == status) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeQueueRepo) CountByStatus(_ context.Context, tenantID uuid.UUID) (map[ledgersync.ItemStatus]int64, error) {
	counts := make(map[ledgersync.ItemStatus]int64)
	for _, item := range r.items {
		if item.TenantID == tenantID {
			counts[item.Status]++
		}
	}
	return counts, nil
}

type fakeConflictRepo struct {
	conflicts map[uuid.UUID]*ledgersync.Conflict
}

func newFakeConflictRepo() *fakeConflictRepo {
	return &fakeConflictRepo{conflicts: make(map[uuid.UUID]*ledgersync.Conflict)}
}

func (r *fakeConflictRepo) UpsertPending(_ context.Context, conflict *ledgersync.Conflict) (*ledgersync.Conflict, error) {
	for _, existing := range r.conflicts {
		if existing.TenantID == conflict.TenantID && existing.ClientID == conflict.ClientID &&
			existing.Field == conflict.Field && existing.Resolution == ledgersync.ResolutionPending {
			if err := existing.Redetect(conflict.BackendValue, conflict.ExternalValue); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}
	r.conflicts[conflict.ID] = conflict
	return conflict, nil
}

func (r *fakeConflictRepo) Update(_ context.Context, conflict *ledgersync.Conflict) error {
	if _, ok := r.conflicts[conflict.ID]; !ok {
		return shared.ErrNotFound
	}
	r.conflicts[conflict.ID] = conflict
	return nil
}

func (r *fakeConflictRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ledgersync.Conflict, error) {
	if conflict, ok := r.conflicts[id]; ok && conflict.TenantID == tenantID {
		return conflict, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeConflictRepo) FindByResolution(_ context.Context, tenantID uuid.UUID, resolution ledgersync.Resolution, page, pageSize int) ([]*ledgersync.Conflict, int64, error) {
	matched := make([]*ledgersync.Conflict, 0)
	for _, conflict := range r.conflicts {
		if conflict.TenantID == tenantID && (resolution == "" || conflict.Resolution == resolution) {
			matched = append(matched, conflict)
		}
	}
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeConflictRepo) FindPendingByClientField(_ context.Context, tenantID, clientID uuid.UUID, field directory.SyncField) (*ledgersync.Conflict, error) {
	for _, conflict := range r.conflicts {
		if conflict.TenantID == tenantID && conflict.ClientID == clientID &&
			conflict.Field == field && conflict.Resolution == ledgersync.ResolutionPending {
			return conflict, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeHistoryRepo struct {
	entries []*ledgersync.HistoryEntry
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *ledgersync.HistoryEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) FindByClient(_ context.Context, tenantID, clientID uuid.UUID, page, pageSize int) ([]*ledgersync.HistoryEntry, int64, error) {
	matched := make([]*ledgersync.HistoryEntry, 0)
	for _, entry := range r.entries {
		if entry.TenantID == tenantID && entry.ClientID == clientID {
			matched = append(matched, entry)
		}
	}
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeHistoryRepo) FindByQueueItem(_ context.Context, tenantID, itemID uuid.UUID) ([]*ledgersync.HistoryEntry, error) {
	matched := make([]*ledgersync.HistoryEntry, 0)
	for _, entry := range r.entries {
		if entry.TenantID == tenantID && entry.QueueItemID != nil && *entry.QueueItemID == itemID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

type fakeConfigRepo struct {
	configs map[uuid.UUID]*ledgersync.BridgeConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[uuid.UUID]*ledgersync.BridgeConfig)}
}

func (r *fakeConfigRepo) Save(_ context.Context, cfg *ledgersync.BridgeConfig) error {
	r.configs[cfg.TenantID] = cfg
	return nil
}

func (r *fakeConfigRepo) Update(_ context.Context, cfg *ledgersync.BridgeConfig) error {
	if _, ok := r.configs[cfg.TenantID]; !ok {
		return shared.ErrNotFound
	}
	r.configs[cfg.TenantID] = cfg
	return nil
}

func (r *fakeConfigRepo) FindByTenant(_ context.Context, tenantID uuid.UUID) (*ledgersync.BridgeConfig, error) {
	if cfg, ok := r.configs[tenantID]; ok {
		return cfg, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeConfigRepo) FindAutoSyncEnabled(_ context.Context) ([]*ledgersync.BridgeConfig, error) {
	enabled := make([]*ledgersync.BridgeConfig, 0)
	for _, cfg := range r.configs {
		if cfg.AutoSyncEnabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled, nil
}

type fakeRunLogRepo struct {
	logs []*ledgersync.RunLog
}

func newFakeRunLogRepo() *fakeRunLogRepo {
	return &fakeRunLogRepo{}
}

func (r *fakeRunLogRepo) Save(_ context.Context, log *ledgersync.RunLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeRunLogRepo) FindRecent(_ context.Context, tenantID uuid.UUID, limit int) ([]*ledgersync.RunLog, error) {
	matched := make([]*ledgersync.RunLog, 0)
	for i := len(r.logs) - 1; i >= 0 && len(matched) < limit; i-- {
		if r.logs[i].TenantID == tenantID {
			matched = append(matched, r.logs[i])
		}
	}
	return matched, nil
}

func (r *fakeRunLogRepo) FindSince(_ context.Context, tenantID uuid.UUID, since time.Time) ([]*ledgersync.RunLog, error) {
	matched := make([]*ledgersync.RunLog, 0)
	for _, log := range r.logs {
		if log.TenantID == tenantID && !log.FinishedAt.Before(since) {
			matched = append(matched, log)
		}
	}
	return matched, nil
}

type fakeCounter struct {
	totals map[uuid.UUID]int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{totals: make(map[uuid.UUID]int)}
}

func (c *fakeCounter) AddClients(_ context.Context, tenantID uuid.UUID, delta int) error {
	c.totals[tenantID] += delta
	return nil
}

type fakeBridgeClient struct {
	result *bridge.PushResult
	err    error
	pushes int
}

func (f *fakeBridgeClient) Push(_ context.Context, _ *ledgersync.BridgeConfig, _ *ledgersync.QueueItem) (*bridge.PushResult, error) {
	f.pushes++
	return f.result, f.err
}
