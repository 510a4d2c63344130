package handler

import (
	"github.com/gin-gonic/gin"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
)

// BridgeConfigHandler lets tenant admins read and change their bridge
// configuration. Credentials are write-only.
type BridgeConfigHandler struct {
	BaseHandler
	configService *appsync.ConfigService
}

// NewBridgeConfigHandler creates a new BridgeConfigHandler
func NewBridgeConfigHandler(configService *appsync.ConfigService) *BridgeConfigHandler {
	return &BridgeConfigHandler{configService: configService}
}

// Get handles GET /sync/config
func (h *BridgeConfigHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	cfg, err := h.configService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cfg)
}

// Put handles PUT /sync/config
func (h *BridgeConfigHandler) Put(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req appsync.PutBridgeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cfg, err := h.configService.Put(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cfg)
}
