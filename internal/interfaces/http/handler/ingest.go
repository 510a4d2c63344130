package handler

import (
	"github.com/gin-gonic/gin"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/domain/ledgersync"
)

// IngestHandler receives pull batches uploaded by the bridge
type IngestHandler struct {
	BaseHandler
	ingestService *appsync.IngestService
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(ingestService *appsync.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// LedgerRecordRequest is one external ledger record in an upload batch.
// Per-record validation (missing name) is reported in the run summary, not
// as a request error, so no binding constraint is placed on the fields.
type LedgerRecordRequest struct {
	ExternalID string   `json:"external_id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Status     string   `json:"status"`
	Notes      string   `json:"notes"`
	Source     string   `json:"source"`
}

// IngestRequest is the bridge's pull-batch upload
type IngestRequest struct {
	Records []LedgerRecordRequest `json:"records" binding:"required,min=1,max=1000"`
}

// Ingest handles POST /bridge/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	records := make([]ledgersync.LedgerRecord, len(req.Records))
	for i, r := range req.Records {
		records[i] = ledgersync.LedgerRecord{
			ExternalID: r.ExternalID,
			Name:       r.Name,
			Email:      r.Email,
			Phone:      r.Phone,
			Address:    r.Address,
			PostalCode: r.PostalCode,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Status:     r.Status,
			Notes:      r.Notes,
			Source:     r.Source,
		}
	}

	summary, err := h.ingestService.Run(c.Request.Context(), tenantID, records)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
