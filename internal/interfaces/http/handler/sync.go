package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes the operator-facing sync surface: queue reads, manual
// retry, manual dispatch, audit history and run logs.
type SyncHandler struct {
	BaseHandler
	dispatchService *appsync.DispatchService
	statusService   *appsync.StatusService
	batchSize       int
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(dispatchService *appsync.DispatchService, statusService *appsync.StatusService, batchSize int) *SyncHandler {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncHandler{
		dispatchService: dispatchService,
		statusService:   statusService,
		batchSize:       batchSize,
	}
}

// parsePagination reads page/page_size query parameters with defaults
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// ListQueue handles GET /sync/queue
func (h *SyncHandler) ListQueue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	page, pageSize := parsePagination(c)
	status := c.Query("status")

	items, total, err := h.statusService.QueueList(c.Request.Context(), tenantID, status, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(items, total, page, pageSize))
}

// QueueStats handles GET /sync/queue/stats
func (h *SyncHandler) QueueStats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	stats, err := h.statusService.Stats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RetryItem handles POST /sync/queue/:id/retry
func (h *SyncHandler) RetryItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid queue item ID")
		return
	}

	item, err := h.dispatchService.Retry(c.Request.Context(), tenantID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Dispatch handles POST /sync/dispatch, a manual one-batch dispatch trigger
func (h *SyncHandler) Dispatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	result, err := h.dispatchService.ProcessBatch(c.Request.Context(), tenantID, h.batchSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ClientHistory handles GET /sync/clients/:id/history
func (h *SyncHandler) ClientHistory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	page, pageSize := parsePagination(c)
	entries, total, err := h.statusService.History(c.Request.Context(), tenantID, clientID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(entries, total, page, pageSize))
}

// RunLogs handles GET /sync/runs
func (h *SyncHandler) RunLogs(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			h.BadRequest(c, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	logs, err := h.statusService.RunLogs(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logs)
}
