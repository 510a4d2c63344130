package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
)

// BridgeHandler serves the bridge's pull-based dispatch transport: the
// connector fetches claimed queue items and reports delivery outcomes.
type BridgeHandler struct {
	BaseHandler
	dispatchService *appsync.DispatchService
	batchSize       int
}

// NewBridgeHandler creates a new BridgeHandler
func NewBridgeHandler(dispatchService *appsync.DispatchService, batchSize int) *BridgeHandler {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BridgeHandler{dispatchService: dispatchService, batchSize: batchSize}
}

// ReportOutcomeRequest is the bridge's delivery report for one item
type ReportOutcomeRequest struct {
	ItemID   string `json:"item_id" binding:"required,uuid"`
	Success  bool   `json:"success"`
	Error    string `json:"error" binding:"max=2000"`
	Response string `json:"response" binding:"max=65536"`
}

// FetchPending handles GET /bridge/pending
func (h *BridgeHandler) FetchPending(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	limit := h.batchSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	items, err := h.dispatchService.FetchPending(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// ReportOutcome handles POST /bridge/outcome
func (h *BridgeHandler) ReportOutcome(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req ReportOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		h.BadRequest(c, "item_id must be a valid UUID")
		return
	}

	if err := h.dispatchService.ReportOutcome(c.Request.Context(), tenantID, itemID, req.Success, req.Error, req.Response); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"acknowledged": true})
}
