package ledgersync

import (
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Operation is the kind of outbound change a queue item carries
type Operation string

const (
	OperationCreate      Operation = "create"
	OperationUpdateField Operation = "update-field"
)

// ItemStatus represents the delivery state of a queue item
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
)

// DefaultMaxAttempts is the retry budget applied when none is configured
const DefaultMaxAttempts = 3

// DefaultPriority is the priority assigned to re-enqueued conflict resolutions
// and ordinary field changes. Lower sorts sooner.
const DefaultPriority = 5

// QueueItem is a durable, tenant-scoped pending outbound change.
//
// Invariants: Attempts <= MaxAttempts at all times; status failed is only
// reachable once Attempts == MaxAttempts; completed is terminal.
type QueueItem struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ClientID    uuid.UUID
	ExternalID  *string
	Operation   Operation
	Payload     map[string]string
	Priority    int
	Status      ItemStatus
	Attempts    int
	MaxAttempts int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	CompletedAt *time.Time
}

// NewQueueItem creates a pending queue item for a client change
func NewQueueItem(tenantID, clientID uuid.UUID, externalID *string, op Operation, payload map[string]string, priority int) (*QueueItem, error) {
	if op != OperationCreate && op != OperationUpdateField {
		return nil, shared.NewDomainError("INVALID_OPERATION", "Unknown sync operation")
	}
	if len(payload) == 0 {
		return nil, shared.NewDomainError("EMPTY_PAYLOAD", "Queue item payload cannot be empty")
	}
	now := time.Now()
	return &QueueItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ClientID:    clientID,
		ExternalID:  externalID,
		Operation:   op,
		Payload:     payload,
		Priority:    priority,
		Status:      ItemStatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Fields returns the sync fields asserted by this item's payload
func (i *QueueItem) Fields() []directory.SyncField {
	set := directory.FieldSet{}
	for k := range i.Payload {
		if f, ok := directory.ParseSyncField(k); ok {
			set.Add(f)
		}
	}
	return set.Fields()
}

// IdempotencyKey returns the deterministic per-attempt delivery token. The
// bridge and the external system deduplicate on it, so a crash between claim
// and outcome cannot double-apply a side effect.
func (i *QueueItem) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d", i.ID, i.Attempts)
}

// MarkProcessing claims the item for delivery: the status moves to
// processing, the attempt is consumed and the processed-at time is stamped.
// The processing status is the mutual-exclusion mechanism shared by the
// worker-driven and bridge-polling transports. The storage layer performs
// this same transition as a single compare-and-swap UPDATE; the two must
// stay in step.
func (i *QueueItem) MarkProcessing() error {
	if i.Status != ItemStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending items can be claimed")
	}
	if i.Attempts >= i.MaxAttempts {
		return shared.NewDomainError("ATTEMPTS_EXHAUSTED", "Item has no remaining delivery attempts")
	}
	now := time.Now()
	i.Status = ItemStatusProcessing
	i.Attempts++
	i.ProcessedAt = &now
	i.UpdatedAt = now
	return nil
}

// Complete marks a claimed item as delivered. Completed is terminal.
func (i *QueueItem) Complete() error {
	if i.Status != ItemStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only claimed items can be completed")
	}
	now := time.Now()
	i.Status = ItemStatusCompleted
	i.CompletedAt = &now
	i.LastError = ""
	i.UpdatedAt = now
	return nil
}

// Fail records a delivery failure. With attempts remaining the item reverts
// to pending; once the budget is exhausted it becomes terminally failed.
func (i *QueueItem) Fail(reason string) error {
	if i.Status != ItemStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only claimed items can fail")
	}
	i.LastError = reason
	if i.Attempts >= i.MaxAttempts {
		i.Status = ItemStatusFailed
	} else {
		i.Status = ItemStatusPending
	}
	i.UpdatedAt = time.Now()
	return nil
}

// IsTerminalFailure reports whether the item has exhausted its retry budget
func (i *QueueItem) IsTerminalFailure() bool {
	return i.Status == ItemStatusFailed
}

// ResetForRetry is the operator action that re-enters an item into the
// queue: the attempt count returns to zero and the status becomes pending.
// It applies to terminally failed items and to items stranded in processing
// by a crash between the claim and the outcome commit. The engine never
// resurrects either on its own.
func (i *QueueItem) ResetForRetry() error {
	if i.Status != ItemStatusFailed && i.Status != ItemStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only failed or stranded items can be retried manually")
	}
	i.Status = ItemStatusPending
	i.Attempts = 0
	i.LastError = ""
	i.ProcessedAt = nil
	i.UpdatedAt = time.Now()
	return nil
}
