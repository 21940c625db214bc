package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/ratewatch/currency-rates-service/internal/core/ports/services"
	"github.com/ratewatch/currency-rates-service/internal/dto"
	"github.com/ratewatch/currency-rates-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// syncHandler handles HTTP requests that trigger provider syncs.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

// newSyncHandler creates a new syncHandler.
func newSyncHandler(ss portssvc.SyncSvcFacade) *syncHandler {
	return &syncHandler{
		syncService: ss,
	}
}

// registerSyncRoutes registers the manual sync trigger routes.
func registerSyncRoutes(r *gin.Engine, syncService portssvc.SyncSvcFacade) {
	h := newSyncHandler(syncService)

	r.POST("/sync", h.triggerSyncAll)
	r.POST("/sync/:provider", h.triggerProviderSync)
}

// triggerSyncAll godoc
// @Summary Sync all providers
// @Description Triggers a sync of every registered provider and reports per-provider outcomes.
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncAllResponse
// @Router /sync [post]
func (h *syncHandler) triggerSyncAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received request to sync all providers")

	outcomes := h.syncService.SyncAll(c.Request.Context())

	c.JSON(http.StatusOK, dto.ToSyncAllResponse(outcomes))
}

// triggerProviderSync godoc
// @Summary Sync one provider
// @Description Triggers a sync of a single provider by name and reports how many records were written.
// @Tags sync
// @Produce json
// @Param provider path string true "Provider name"
// @Success 200 {object} dto.SyncResponse
// @Failure 404 {object} map[string]string "Unknown provider"
// @Failure 502 {object} map[string]string "Upstream provider unavailable"
// @Router /sync/{provider} [post]
func (h *syncHandler) triggerProviderSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	provider := c.Param("provider")
	logger.Info("Received request to sync provider", slog.String("provider", provider))

	count, err := h.syncService.SyncProvider(c.Request.Context(), provider)
	if err != nil {
		writeRatesError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SyncResponse{
		Status:        "ok",
		Provider:      provider,
		RecordsSynced: count,
	})
}
