package models

import (
	"encoding/json"
	"time"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/google/uuid"
)

// QueueItemModel is the persistence model for sync queue items.
type QueueItemModel struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID             `gorm:"type:uuid;not null;index:idx_queue_tenant_status,priority:1"`
	ClientID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	ExternalID  *string               `gorm:"type:varchar(100)"`
	Operation   ledgersync.Operation  `gorm:"type:varchar(20);not null"`
	Payload     string                `gorm:"type:jsonb;not null"`
	Priority    int                   `gorm:"not null;default:5;index:idx_queue_dispatch_order,priority:1"`
	Status      ledgersync.ItemStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_queue_tenant_status,priority:2"`
	Attempts    int                   `gorm:"not null;default:0"`
	MaxAttempts int                   `gorm:"not null;default:3"`
	LastError   string                `gorm:"type:text"`
	CreatedAt   time.Time             `gorm:"not null;index:idx_queue_dispatch_order,priority:2"`
	UpdatedAt   time.Time             `gorm:"not null"`
	ProcessedAt *time.Time
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (QueueItemModel) TableName() string {
	return "sync_queue_items"
}

// ToDomain converts the persistence model to a domain QueueItem
func (m *QueueItemModel) ToDomain() *ledgersync.QueueItem {
	item := &ledgersync.QueueItem{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ClientID:    m.ClientID,
		ExternalID:  m.ExternalID,
		Operation:   m.Operation,
		Priority:    m.Priority,
		Status:      m.Status,
		Attempts:    m.Attempts,
		MaxAttempts: m.MaxAttempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ProcessedAt: m.ProcessedAt,
		CompletedAt: m.CompletedAt,
	}
	if m.Payload != "" {
		_ = json.Unmarshal([]byte(m.Payload), &item.Payload)
	}
	return item
}

// FromDomain populates the persistence model from a domain QueueItem
func (m *QueueItemModel) FromDomain(item *ledgersync.QueueItem) {
	m.ID = item.ID
	m.TenantID = item.TenantID
	m.ClientID = item.ClientID
	m.ExternalID = item.ExternalID
	m.Operation = item.Operation
	m.Priority = item.Priority
	m.Status = item.Status
	m.Attempts = item.Attempts
	m.MaxAttempts = item.MaxAttempts
	m.LastError = item.LastError
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
	m.ProcessedAt = item.ProcessedAt
	m.CompletedAt = item.CompletedAt

	if data, err := json.Marshal(item.Payload); err == nil {
		m.Payload = string(data)
	} else {
		m.Payload = "{}"
	}
}

// ConflictModel is the persistence model for sync conflicts.
type ConflictModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID             `gorm:"type:uuid;not null;index:idx_conflicts_tenant_resolution,priority:1"`
	ClientID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ExternalID    *string               `gorm:"type:varchar(100)"`
	Field         directory.SyncField   `gorm:"type:varchar(30);not null"`
	BackendValue  string                `gorm:"type:text"`
	ExternalValue string                `gorm:"type:text"`
	DetectedAt    time.Time             `gorm:"not null"`
	Resolution    ledgersync.Resolution `gorm:"type:varchar(30);not null;default:'pending';index:idx_conflicts_tenant_resolution,priority:2"`
	ResolvedBy    *uuid.UUID            `gorm:"type:uuid"`
	ResolvedAt    *time.Time
	Notes         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ConflictModel) TableName() string {
	return "sync_conflicts"
}

// ToDomain converts the persistence model to a domain Conflict
func (m *ConflictModel) ToDomain() *ledgersync.Conflict {
	return &ledgersync.Conflict{
		ID:            m.ID,
		TenantID:      m.TenantID,
		ClientID:      m.ClientID,
		ExternalID:    m.ExternalID,
		Field:         m.Field,
		BackendValue:  m.BackendValue,
		ExternalValue: m.ExternalValue,
		DetectedAt:    m.DetectedAt,
		Resolution:    m.Resolution,
		ResolvedBy:    m.ResolvedBy,
		ResolvedAt:    m.ResolvedAt,
		Notes:         m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Conflict
func (m *ConflictModel) FromDomain(c *ledgersync.Conflict) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.ClientID = c.ClientID
	m.ExternalID = c.ExternalID
	m.Field = c.Field
	m.BackendValue = c.BackendValue
	m.ExternalValue = c.ExternalValue
	m.DetectedAt = c.DetectedAt
	m.Resolution = c.Resolution
	m.ResolvedBy = c.ResolvedBy
	m.ResolvedAt = c.ResolvedAt
	m.Notes = c.Notes
}

// HistoryEntryModel is the persistence model for the append-only audit trail.
type HistoryEntryModel struct {
	ID             uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_history_tenant_client,priority:1"`
	QueueItemID    *uuid.UUID           `gorm:"type:uuid;index"`
	ClientID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_history_tenant_client,priority:2"`
	ExternalID     *string              `gorm:"type:varchar(100)"`
	Operation      ledgersync.Operation `gorm:"type:varchar(20);not null"`
	BeforePayload  string               `gorm:"type:jsonb"`
	AfterPayload   string               `gorm:"type:jsonb"`
	Outcome        ledgersync.Outcome   `gorm:"type:varchar(30);not null"`
	ErrorText      string               `gorm:"type:text"`
	BridgeResponse string               `gorm:"type:text"`
	Actor          string               `gorm:"type:varchar(100)"`
	Attempt        int                  `gorm:"not null;default:0"`
	CreatedAt      time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (HistoryEntryModel) TableName() string {
	return "sync_history"
}

// ToDomain converts the persistence model to a domain HistoryEntry
func (m *HistoryEntryModel) ToDomain() *ledgersync.HistoryEntry {
	e := &ledgersync.HistoryEntry{
		ID:             m.ID,
		TenantID:       m.TenantID,
		QueueItemID:    m.QueueItemID,
		ClientID:       m.ClientID,
		ExternalID:     m.ExternalID,
		Operation:      m.Operation,
		Outcome:        m.Outcome,
		ErrorText:      m.ErrorText,
		BridgeResponse: m.BridgeResponse,
		Actor:          m.Actor,
		Attempt:        m.Attempt,
		CreatedAt:      m.CreatedAt,
	}
	if m.BeforePayload != "" {
		_ = json.Unmarshal([]byte(m.BeforePayload), &e.BeforePayload)
	}
	if m.AfterPayload != "" {
		_ = json.Unmarshal([]byte(m.AfterPayload), &e.AfterPayload)
	}
	return e
}

// FromDomain populates the persistence model from a domain HistoryEntry
func (m *HistoryEntryModel) FromDomain(e *ledgersync.HistoryEntry) {
	m.ID = e.ID
	m.TenantID = e.TenantID
	m.QueueItemID = e.QueueItemID
	m.ClientID = e.ClientID
	m.ExternalID = e.ExternalID
	m.Operation = e.Operation
	m.Outcome = e.Outcome
	m.ErrorText = e.ErrorText
	m.BridgeResponse = e.BridgeResponse
	m.Actor = e.Actor
	m.Attempt = e.Attempt
	m.CreatedAt = e.CreatedAt

	m.BeforePayload = marshalPayload(e.BeforePayload)
	m.AfterPayload = marshalPayload(e.AfterPayload)
}

func marshalPayload(p map[string]string) string {
	if len(p) == 0 {
		return "{}"
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// BridgeConfigModel is the persistence model for tenant bridge configuration.
type BridgeConfigModel struct {
	BaseModel
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	SystemName      string    `gorm:"type:varchar(100);not null"`
	Endpoint        string    `gorm:"type:varchar(500)"`
	Credentials     []byte    `gorm:"type:bytea"`
	AutoSyncEnabled bool      `gorm:"not null;default:false"`
	SyncIntervalSec int64     `gorm:"not null;default:900"`
}

// TableName returns the table name for GORM
func (BridgeConfigModel) TableName() string {
	return "tenant_bridge_configs"
}

// ToDomain converts the persistence model to a domain BridgeConfig
func (m *BridgeConfigModel) ToDomain() *ledgersync.BridgeConfig {
	cfg := &ledgersync.BridgeConfig{
		SystemName:      m.SystemName,
		Endpoint:        m.Endpoint,
		Credentials:     m.Credentials,
		AutoSyncEnabled: m.AutoSyncEnabled,
		SyncInterval:    time.Duration(m.SyncIntervalSec) * time.Second,
	}
	cfg.BaseEntity = m.BaseModel.ToDomain()
	cfg.TenantID = m.TenantID
	return cfg
}

// FromDomain populates the persistence model from a domain BridgeConfig
func (m *BridgeConfigModel) FromDomain(c *ledgersync.BridgeConfig) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.SystemName = c.SystemName
	m.Endpoint = c.Endpoint
	m.Credentials = c.Credentials
	m.AutoSyncEnabled = c.AutoSyncEnabled
	m.SyncIntervalSec = int64(c.SyncInterval / time.Second)
}

// RunLogModel is the persistence model for ingestion run summaries.
type RunLogModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_run_logs_tenant_finished,priority:1"`
	Status     ledgersync.RunStatus `gorm:"type:varchar(20);not null"`
	Total      int                  `gorm:"not null;default:0"`
	Created    int                  `gorm:"not null;default:0"`
	Updated    int                  `gorm:"not null;default:0"`
	Failed     int                  `gorm:"not null;default:0"`
	Errors     string               `gorm:"type:jsonb;default:'[]'"`
	Error      string               `gorm:"type:text"`
	StartedAt  time.Time            `gorm:"not null"`
	FinishedAt time.Time            `gorm:"not null;index:idx_run_logs_tenant_finished,priority:2"`
}

// TableName returns the table name for GORM
func (RunLogModel) TableName() string {
	return "ingest_run_logs"
}

// ToDomain converts the persistence model to a domain RunLog
func (m *RunLogModel) ToDomain() *ledgersync.RunLog {
	log := &ledgersync.RunLog{
		ID:         m.ID,
		TenantID:   m.TenantID,
		Status:     m.Status,
		Total:      m.Total,
		Created:    m.Created,
		Updated:    m.Updated,
		Failed:     m.Failed,
		Error:      m.Error,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
	if m.Errors != "" {
		_ = json.Unmarshal([]byte(m.Errors), &log.Errors)
	}
	return log
}

// FromDomain populates the persistence model from a domain RunLog
func (m *RunLogModel) FromDomain(l *ledgersync.RunLog) {
	m.ID = l.ID
	m.TenantID = l.TenantID
	m.Status = l.Status
	m.Total = l.Total
	m.Created = l.Created
	m.Updated = l.Updated
	m.Failed = l.Failed
	m.Error = l.Error
	m.StartedAt = l.StartedAt
	m.FinishedAt = l.FinishedAt

	if data, err := json.Marshal(l.Errors); err == nil && l.Errors != nil {
		m.Errors = string(data)
	} else {
		m.Errors = "[]"
	}
}
