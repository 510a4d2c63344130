package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/interfaces/http/dto"
)

// ConflictHandler exposes conflict reporting (bridge) and resolution
// (operator) endpoints.
type ConflictHandler struct {
	BaseHandler
	conflictService *appsync.ConflictService
	statusService   *appsync.StatusService
}

// NewConflictHandler creates a new ConflictHandler
func NewConflictHandler(conflictService *appsync.ConflictService, statusService *appsync.StatusService) *ConflictHandler {
	return &ConflictHandler{conflictService: conflictService, statusService: statusService}
}

// ReportConflictRequest is the bridge's divergence report for one field
type ReportConflictRequest struct {
	ClientID      string `json:"client_id" binding:"required,uuid"`
	Field         string `json:"field" binding:"required"`
	BackendValue  string `json:"backend_value" binding:"max=2000"`
	ExternalValue string `json:"external_value" binding:"max=2000"`
}

// ResolveConflictRequest is the operator's decision on a pending conflict
type ResolveConflictRequest struct {
	Decision string `json:"decision" binding:"required,oneof=backend-wins external-wins"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// Report handles POST /bridge/conflicts
func (h *ConflictHandler) Report(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req ReportConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "client_id must be a valid UUID")
		return
	}

	field, ok := directory.ParseSyncField(req.Field)
	if !ok {
		h.BadRequest(c, "Unknown sync field: "+req.Field)
		return
	}

	conflict, err := h.conflictService.Report(c.Request.Context(), tenantID, clientID, field, req.BackendValue, req.ExternalValue)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, conflict)
}

// Resolve handles POST /sync/conflicts/:id/resolve
func (h *ConflictHandler) Resolve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	conflictID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	var req ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	var decision ledgersync.Resolution
	switch req.Decision {
	case "backend-wins":
		decision = ledgersync.ResolutionBackendWins
	case "external-wins":
		decision = ledgersync.ResolutionExternalWins
	}

	conflict, err := h.conflictService.Resolve(c.Request.Context(), tenantID, conflictID, decision, operatorID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, conflict)
}

// List handles GET /sync/conflicts
func (h *ConflictHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	page, pageSize := parsePagination(c)
	resolution := c.Query("resolution")

	conflicts, total, err := h.statusService.Conflicts(c.Request.Context(), tenantID, resolution, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(conflicts, total, page, pageSize))
}
