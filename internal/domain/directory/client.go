package directory

import (
	"strings"
	"time"
	"unicode"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SyncStatus represents a client's position in the push pipeline
type SyncStatus string

const (
	SyncStatusUnsynced SyncStatus = "unsynced"
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusFailed   SyncStatus = "failed"
)

// ClientStatus represents the business status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// SourceExternalImport tags clients created by the ingestion matcher
const SourceExternalImport = "external-import"

// Client represents a field-operations client. It is the aggregate root for
// the directory context and the local side of external-ledger synchronization.
//
// Invariant: SyncStatus == synced implies PendingFields is empty.
type Client struct {
	shared.TenantEntity
	ExternalID    *string
	Name          string
	Email         string
	Phone         string
	Address       string
	PostalCode    string
	Notes         string
	Source        string
	Status        ClientStatus
	Latitude      *float64
	Longitude     *float64
	SyncStatus    SyncStatus
	PendingFields FieldSet
	LastSyncAt    *time.Time
	LastSyncError string
}

// NewClient creates a new client with required fields
func NewClient(tenantID uuid.UUID, name string) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Client name is required")
	}
	return &Client{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Status:       ClientStatusActive,
		SyncStatus:   SyncStatusUnsynced,
	}, nil
}

// HasExternalID reports whether the client is linked to an external ledger record
func (c *Client) HasExternalID() bool {
	return c.ExternalID != nil && *c.ExternalID != ""
}

// LinkExternalID backfills the external ledger identifier. An existing link
// is never overwritten.
func (c *Client) LinkExternalID(externalID string) {
	if externalID == "" || c.HasExternalID() {
		return
	}
	c.ExternalID = &externalID
	c.Touch()
}

// HasCoordinates reports whether the client already carries an enriched position
func (c *Client) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// FillCoordinates sets coordinates only when none are present. Incoming
// coordinates never overwrite existing enrichment.
func (c *Client) FillCoordinates(lat, lng *float64) {
	if c.HasCoordinates() || lat == nil || lng == nil {
		return
	}
	c.Latitude = lat
	c.Longitude = lng
	c.Touch()
}

// MarkFieldsPending records locally-changed fields awaiting push and moves the
// client into the pending sync state.
func (c *Client) MarkFieldsPending(fields ...SyncField) {
	c.PendingFields.Add(fields...)
	if !c.PendingFields.IsEmpty() {
		c.SyncStatus = SyncStatusPending
	}
	c.Touch()
}

// CompleteSync clears exactly the given pushed fields. The client becomes
// synced only once no pending fields remain.
func (c *Client) CompleteSync(pushed ...SyncField) {
	c.PendingFields.Remove(pushed...)
	if c.PendingFields.IsEmpty() {
		c.SyncStatus = SyncStatusSynced
	}
	now := time.Now()
	c.LastSyncAt = &now
	c.LastSyncError = ""
	c.Touch()
}

// FailSync records a terminal delivery failure for this client
func (c *Client) FailSync(reason string) {
	c.SyncStatus = SyncStatusFailed
	c.LastSyncError = reason
	c.Touch()
}

// RetrySync reflects a non-terminal delivery failure: the client stays in the
// pending state with the failure reason recorded.
func (c *Client) RetrySync(reason string) {
	c.SyncStatus = SyncStatusPending
	c.LastSyncError = reason
	c.Touch()
}

// ApplyExternalValue writes an external-system value directly onto a field,
// bypassing the push pipeline. Used by external-wins conflict resolution.
func (c *Client) ApplyExternalValue(field SyncField, value string) error {
	switch field {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return shared.NewDomainError("INVALID_NAME", "Client name is required")
		}
		c.Name = value
	case FieldEmail:
		c.Email = value
	case FieldPhone:
		c.Phone = value
	case FieldAddress:
		c.Address = value
	case FieldPostalCode:
		c.PostalCode = value
	case FieldNotes:
		c.Notes = value
	case FieldStatus:
		c.Status = ClientStatus(value)
	default:
		return shared.NewDomainError("INVALID_FIELD", "Field cannot be written from an external value")
	}
	c.PendingFields.Remove(field)
	c.Touch()
	return nil
}

// FieldValue returns the client's current value for a sync field
func (c *Client) FieldValue(field SyncField) string {
	switch field {
	case FieldName:
		return c.Name
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	case FieldAddress:
		return c.Address
	case FieldPostalCode:
		return c.PostalCode
	case FieldNotes:
		return c.Notes
	case FieldStatus:
		return string(c.Status)
	default:
		return ""
	}
}

// FoldEmail normalizes an email for case-insensitive, whitespace-trimmed matching
func FoldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PhoneDigits strips every non-digit character from a phone number.
// Matching on phone is only attempted when the result has at least
// MinPhoneMatchDigits digits.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MinPhoneMatchDigits is the minimum digit-string length for phone matching
const MinPhoneMatchDigits = 10
