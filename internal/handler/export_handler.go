package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/service"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// ExportHandler manages catalog export endpoints.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Generate godoc
// @Summary Export the catalog
// @Description Render the full catalog as CSV or PDF and return a signed download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param format query string true "Export format (csv or pdf)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/exports [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	format := models.ExportFormat(strings.ToLower(c.Query("format")))
	result, err := h.service.Generate(c.Request.Context(), format, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// Download godoc
// @Summary Download a generated export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	contentType := "text/csv"
	if result.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export metadata"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, result.File, nil)
}
