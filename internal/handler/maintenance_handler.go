package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/service"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// MaintenanceHandler exposes the orphan file scan endpoints.
type MaintenanceHandler struct {
	service *service.MaintenanceService
}

// NewMaintenanceHandler constructs the handler.
func NewMaintenanceHandler(svc *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: svc}
}

// StartScan godoc
// @Summary Start an orphan file scan
// @Description Compare stored note files against the notes table; orphans are reported, never deleted
// @Tags Maintenance
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/maintenance/orphan-scans [post]
func (h *MaintenanceHandler) StartScan(c *gin.Context) {
	scan, err := h.service.StartScan(c.Request.Context(), currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, scan, nil)
}

// GetScan godoc
// @Summary Get orphan scan status
// @Tags Maintenance
// @Produce json
// @Param id path string true "Scan id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/maintenance/orphan-scans/{id} [get]
func (h *MaintenanceHandler) GetScan(c *gin.Context) {
	scan, err := h.service.GetScan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scan, nil)
}
