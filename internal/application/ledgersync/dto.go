package ledgersync

import (
	"time"

	"github.com/fieldops/backend/internal/domain/ledgersync"
)

// QueueItemResponse is the read model for a sync queue item
type QueueItemResponse struct {
	ID          string            `json:"id"`
	ClientID    string            `json:"client_id"`
	ExternalID  *string           `json:"external_id,omitempty"`
	Operation   string            `json:"operation"`
	Payload     map[string]string `json:"payload"`
	Priority    int               `json:"priority"`
	Status      string            `json:"status"`
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"max_attempts"`
	LastError   string            `json:"last_error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// ToQueueItemResponse converts a queue item to its response representation
func ToQueueItemResponse(item *ledgersync.QueueItem) QueueItemResponse {
	return QueueItemResponse{
		ID:          item.ID.String(),
		ClientID:    item.ClientID.String(),
		ExternalID:  item.ExternalID,
		Operation:   string(item.Operation),
		Payload:     item.Payload,
		Priority:    item.Priority,
		Status:      string(item.Status),
		Attempts:    item.Attempts,
		MaxAttempts: item.MaxAttempts,
		LastError:   item.LastError,
		CreatedAt:   item.CreatedAt,
		ProcessedAt: item.ProcessedAt,
		CompletedAt: item.CompletedAt,
	}
}

// ToQueueItemResponses converts a slice of queue items
func ToQueueItemResponses(items []*ledgersync.QueueItem) []QueueItemResponse {
	responses := make([]QueueItemResponse, len(items))
	for i, item := range items {
		responses[i] = ToQueueItemResponse(item)
	}
	return responses
}

// PendingItemResponse is one entry of a bridge "fetch pending" answer. It
// bundles the claimed item with the tenant's bridge credentials so the bridge
// can act on it without a second round trip.
type PendingItemResponse struct {
	ItemID         string            `json:"item_id"`
	ClientID       string            `json:"client_id"`
	ExternalID     *string           `json:"external_id,omitempty"`
	Operation      string            `json:"operation"`
	Payload        map[string]string `json:"payload"`
	Attempt        int               `json:"attempt"`
	IdempotencyKey string            `json:"idempotency_key"`
	Credentials    string            `json:"credentials"`
}

// DispatchBatchResult summarizes one worker-driven dispatch cycle
type DispatchBatchResult struct {
	Claimed   int `json:"claimed"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// ConflictResponse is the read model for a sync conflict
type ConflictResponse struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	ExternalID    *string    `json:"external_id,omitempty"`
	Field         string     `json:"field"`
	BackendValue  string     `json:"backend_value"`
	ExternalValue string     `json:"external_value"`
	DetectedAt    time.Time  `json:"detected_at"`
	Resolution    string     `json:"resolution"`
	ResolvedBy    *string    `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ToConflictResponse converts a conflict to its response representation
func ToConflictResponse(c *ledgersync.Conflict) ConflictResponse {
	resp := ConflictResponse{
		ID:            c.ID.String(),
		ClientID:      c.ClientID.String(),
		ExternalID:    c.ExternalID,
		Field:         string(c.Field),
		BackendValue:  c.BackendValue,
		ExternalValue: c.ExternalValue,
		DetectedAt:    c.DetectedAt,
		Resolution:    string(c.Resolution),
		ResolvedAt:    c.ResolvedAt,
		Notes:         c.Notes,
	}
	if c.ResolvedBy != nil {
		s := c.ResolvedBy.String()
		resp.ResolvedBy = &s
	}
	return resp
}

// ToConflictResponses converts a slice of conflicts
func ToConflictResponses(conflicts []*ledgersync.Conflict) []ConflictResponse {
	responses := make([]ConflictResponse, len(conflicts))
	for i, c := range conflicts {
		responses[i] = ToConflictResponse(c)
	}
	return responses
}

// HistoryEntryResponse is the read model for an audit trail entry
type HistoryEntryResponse struct {
	ID             string            `json:"id"`
	QueueItemID    *string           `json:"queue_item_id,omitempty"`
	ClientID       string            `json:"client_id"`
	ExternalID     *string           `json:"external_id,omitempty"`
	Operation      string            `json:"operation"`
	BeforePayload  map[string]string `json:"before_payload,omitempty"`
	AfterPayload   map[string]string `json:"after_payload,omitempty"`
	Outcome        string            `json:"outcome"`
	ErrorText      string            `json:"error_text,omitempty"`
	BridgeResponse string            `json:"bridge_response,omitempty"`
	Actor          string            `json:"actor"`
	Attempt        int               `json:"attempt"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToHistoryEntryResponse converts a history entry to its response representation
func ToHistoryEntryResponse(e *ledgersync.HistoryEntry) HistoryEntryResponse {
	resp := HistoryEntryResponse{
		ID:             e.ID.String(),
		ClientID:       e.ClientID.String(),
		ExternalID:     e.ExternalID,
		Operation:      string(e.Operation),
		BeforePayload:  e.BeforePayload,
		AfterPayload:   e.AfterPayload,
		Outcome:        string(e.Outcome),
		ErrorText:      e.ErrorText,
		BridgeResponse: e.BridgeResponse,
		Actor:          e.Actor,
		Attempt:        e.Attempt,
		CreatedAt:      e.CreatedAt,
	}
	if e.QueueItemID != nil {
		s := e.QueueItemID.String()
		resp.QueueItemID = &s
	}
	return resp
}

// ToHistoryEntryResponses converts a slice of history entries
func ToHistoryEntryResponses(entries []*ledgersync.HistoryEntry) []HistoryEntryResponse {
	responses := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToHistoryEntryResponse(e)
	}
	return responses
}

// BridgeConfigResponse is the read model for a tenant's bridge configuration.
// The credential blob itself is never returned.
type BridgeConfigResponse struct {
	SystemName      string    `json:"system_name"`
	Endpoint        string    `json:"endpoint"`
	HasCredentials  bool      `json:"has_credentials"`
	AutoSyncEnabled bool      `json:"auto_sync_enabled"`
	SyncIntervalSec int64     `json:"sync_interval_sec"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToBridgeConfigResponse converts a bridge configuration to its response representation
func ToBridgeConfigResponse(cfg *ledgersync.BridgeConfig) BridgeConfigResponse {
	return BridgeConfigResponse{
		SystemName:      cfg.SystemName,
		Endpoint:        cfg.Endpoint,
		HasCredentials:  len(cfg.Credentials) > 0,
		AutoSyncEnabled: cfg.AutoSyncEnabled,
		SyncIntervalSec: int64(cfg.SyncInterval.Seconds()),
		UpdatedAt:       cfg.UpdatedAt,
	}
}

// PutBridgeConfigRequest carries a tenant admin's configuration change.
// An empty credentials value keeps the stored blob.
type PutBridgeConfigRequest struct {
	SystemName      string `json:"system_name" binding:"required,max=100"`
	Endpoint        string `json:"endpoint" binding:"omitempty,url,max=500"`
	Credentials     string `json:"credentials" binding:"omitempty,max=10000"`
	AutoSyncEnabled bool   `json:"auto_sync_enabled"`
	SyncIntervalSec int64  `json:"sync_interval_sec" binding:"omitempty,min=60"`
}

// QueueStatsResponse is the per-status queue item count for a tenant
type QueueStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// RunLogResponse is the read model for an ingestion run summary
type RunLogResponse struct {
	ID         string                   `json:"id"`
	Status     string                   `json:"status"`
	Total      int                      `json:"total"`
	Created    int                      `json:"created"`
	Updated    int                      `json:"updated"`
	Failed     int                      `json:"failed"`
	Errors     []ledgersync.RecordError `json:"errors,omitempty"`
	Error      string                   `json:"error,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// ToRunLogResponse converts a run log to its response representation
func ToRunLogResponse(log *ledgersync.RunLog) RunLogResponse {
	return RunLogResponse{
		ID:         log.ID.String(),
		Status:     string(log.Status),
		Total:      log.Total,
		Created:    log.Created,
		Updated:    log.Updated,
		Failed:     log.Failed,
		Errors:     log.Errors,
		Error:      log.Error,
		StartedAt:  log.StartedAt,
		FinishedAt: log.FinishedAt,
	}
}

// ToRunLogResponses converts a slice of run logs
func ToRunLogResponses(logs []*ledgersync.RunLog) []RunLogResponse {
	responses := make([]RunLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = ToRunLogResponse(log)
	}
	return responses
}
