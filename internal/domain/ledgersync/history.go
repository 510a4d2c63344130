package ledgersync

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies the result recorded in a history entry
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeResolved  Outcome = "conflict-resolved"
)

// HistoryEntry is one row of the append-only audit trail. Exactly one entry
// is written per queue item per delivery attempt; ad-hoc entries (conflict
// resolutions) carry a nil queue item reference. Entries are never mutated
// or deleted.
type HistoryEntry struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	QueueItemID    *uuid.UUID
	ClientID       uuid.UUID
	ExternalID     *string
	Operation      Operation
	BeforePayload  map[string]string
	AfterPayload   map[string]string
	Outcome        Outcome
	ErrorText      string
	BridgeResponse string
	Actor          string
	Attempt        int
	CreatedAt      time.Time
}

// NewAttemptEntry records the outcome of one delivery attempt for a queue item
func NewAttemptEntry(item *QueueItem, before map[string]string, outcome Outcome, errText, bridgeResponse, actor string) *HistoryEntry {
	id := item.ID
	return &HistoryEntry{
		ID:             uuid.New(),
		TenantID:       item.TenantID,
		QueueItemID:    &id,
		ClientID:       item.ClientID,
		ExternalID:     item.ExternalID,
		Operation:      item.Operation,
		BeforePayload:  before,
		AfterPayload:   item.Payload,
		Outcome:        outcome,
		ErrorText:      errText,
		BridgeResponse: bridgeResponse,
		Actor:          actor,
		Attempt:        item.Attempts,
		CreatedAt:      time.Now(),
	}
}

// NewResolutionEntry records an ad-hoc conflict resolution (no queue item)
func NewResolutionEntry(c *Conflict, applied map[string]string, actor string) *HistoryEntry {
	return &HistoryEntry{
		ID:           uuid.New(),
		TenantID:     c.TenantID,
		ClientID:     c.ClientID,
		ExternalID:   c.ExternalID,
		Operation:    OperationUpdateField,
		BeforePayload: map[string]string{
			string(c.Field): c.BackendValue,
		},
		AfterPayload: applied,
		Outcome:      OutcomeResolved,
		Actor:        actor,
		CreatedAt:    time.Now(),
	}
}
