package ledgersync

import (
	"time"

	"github.com/google/uuid"
)

// LedgerRecord is a customer/account entry as represented inside the
// external bookkeeping system, uploaded by the bridge in pull batches.
type LedgerRecord struct {
	ExternalID string
	Name       string
	Email      string
	Phone      string
	Address    string
	PostalCode string
	Latitude   *float64
	Longitude  *float64
	Status     string
	Notes      string
	Source     string
}

// RecordError is a per-record validation or merge failure inside a batch
type RecordError struct {
	Index      int    `json:"index"`
	ExternalID string `json:"external_id,omitempty"`
	Message    string `json:"message"`
}

// RunStatus classifies an ingestion run
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunSummary is the outcome of one ingestion batch
type RunSummary struct {
	Total   int           `json:"total"`
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Failed  int           `json:"failed"`
	Errors  []RecordError `json:"errors,omitempty"`
}

// RunLog is the persisted record of an ingestion run, written success or
// failure so operators can audit and monitor pull batches.
type RunLog struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Status     RunStatus
	Total      int
	Created    int
	Updated    int
	Failed     int
	Errors     []RecordError
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRunLog builds a run log row from a finished batch
func NewRunLog(tenantID uuid.UUID, status RunStatus, summary RunSummary, runErr string, startedAt time.Time) *RunLog {
	return &RunLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Status:     status,
		Total:      summary.Total,
		Created:    summary.Created,
		Updated:    summary.Updated,
		Failed:     summary.Failed,
		Errors:     summary.Errors,
		Error:      runErr,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
}
