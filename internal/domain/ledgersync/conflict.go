package ledgersync

import (
	"time"

	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Resolution represents the lifecycle state of a sync conflict
type Resolution string

const (
	ResolutionPending      Resolution = "pending"
	ResolutionBackendWins  Resolution = "resolved-backend-wins"
	ResolutionExternalWins Resolution = "resolved-external-wins"
)

// Conflict is a field-level disagreement between the backend and the
// external ledger, reported by the bridge. It is not an error: it records a
// detected divergence awaiting a human decision.
//
// At most one pending conflict exists per (client, field) pair; a repeated
// detection updates the pending row instead of creating a second one.
type Conflict struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ClientID      uuid.UUID
	ExternalID    *string
	Field         directory.SyncField
	BackendValue  string
	ExternalValue string
	DetectedAt    time.Time
	Resolution    Resolution
	ResolvedBy    *uuid.UUID
	ResolvedAt    *time.Time
	Notes         string
}

// NewConflict records a bridge-reported divergence for a client field
func NewConflict(tenantID, clientID uuid.UUID, externalID *string, field directory.SyncField, backendValue, externalValue string) (*Conflict, error) {
	if !field.IsValid() {
		return nil, shared.NewDomainError("INVALID_FIELD", "Unknown sync field")
	}
	return &Conflict{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ClientID:      clientID,
		ExternalID:    externalID,
		Field:         field,
		BackendValue:  backendValue,
		ExternalValue: externalValue,
		DetectedAt:    time.Now(),
		Resolution:    ResolutionPending,
	}, nil
}

// IsResolved reports whether the conflict has reached a terminal state
func (c *Conflict) IsResolved() bool {
	return c.Resolution != ResolutionPending
}

// Redetect refreshes a still-pending conflict with the latest observed values
func (c *Conflict) Redetect(backendValue, externalValue string) error {
	if c.IsResolved() {
		return shared.NewDomainError("INVALID_STATE", "Resolved conflicts cannot be redetected")
	}
	c.BackendValue = backendValue
	c.ExternalValue = externalValue
	c.DetectedAt = time.Now()
	return nil
}

// ResolveBackendWins marks the conflict resolved in the backend's favor.
// Both resolved states are terminal; there is no way back to pending.
func (c *Conflict) ResolveBackendWins(resolvedBy uuid.UUID, notes string) error {
	return c.resolve(ResolutionBackendWins, resolvedBy, notes)
}

// ResolveExternalWins marks the conflict resolved in the external system's favor
func (c *Conflict) ResolveExternalWins(resolvedBy uuid.UUID, notes string) error {
	return c.resolve(ResolutionExternalWins, resolvedBy, notes)
}

func (c *Conflict) resolve(r Resolution, resolvedBy uuid.UUID, notes string) error {
	if c.IsResolved() {
		return shared.NewDomainError("ALREADY_RESOLVED", "Conflict has already been resolved")
	}
	now := time.Now()
	c.Resolution = r
	c.ResolvedBy = &resolvedBy
	c.ResolvedAt = &now
	c.Notes = notes
	return nil
}
