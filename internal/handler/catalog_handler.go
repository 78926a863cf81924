package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/service"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// CatalogHandler serves the assembled content hierarchy.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Tree godoc
// @Summary Full catalog tree
// @Description Subjects with their chapters, notes and video links
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /catalog [get]
func (h *CatalogHandler) Tree(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree, nil)
}
