package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/service"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// ChapterHandler exposes chapter browsing and administration endpoints.
type ChapterHandler struct {
	service *service.ChapterService
}

// NewChapterHandler creates a new handler.
func NewChapterHandler(svc *service.ChapterService) *ChapterHandler {
	return &ChapterHandler{service: svc}
}

// ListForSubject godoc
// @Summary List chapters of a subject
// @Tags Chapters
// @Produce json
// @Param id path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id}/chapters [get]
func (h *ChapterHandler) ListForSubject(c *gin.Context) {
	chapters, err := h.service.ListForSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chapters, nil)
}

// Get godoc
// @Summary Get chapter
// @Tags Chapters
// @Produce json
// @Param id path string true "Chapter id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /chapters/{id} [get]
func (h *ChapterHandler) Get(c *gin.Context) {
	chapter, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chapter, nil)
}

// Create godoc
// @Summary Create chapter
// @Tags Chapters
// @Accept json
// @Produce json
// @Param payload body service.CreateChapterRequest true "Chapter payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/chapters [post]
func (h *ChapterHandler) Create(c *gin.Context) {
	var req service.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chapter payload"))
		return
	}

	chapter, err := h.service.Create(c.Request.Context(), req, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, chapter)
}

// Delete godoc
// @Summary Delete chapter
// @Description Remove the chapter and every note and video under it
// @Tags Chapters
// @Produce json
// @Param id path string true "Chapter id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/chapters/{id} [delete]
func (h *ChapterHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), currentPrincipal(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
