package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/service"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// VideoHandler manages video link HTTP endpoints.
type VideoHandler struct {
	service *service.VideoService
}

// NewVideoHandler constructs the handler.
func NewVideoHandler(svc *service.VideoService) *VideoHandler {
	return &VideoHandler{service: svc}
}

// ListForChapter godoc
// @Summary List videos of a chapter
// @Tags Videos
// @Produce json
// @Param id path string true "Chapter id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /chapters/{id}/videos [get]
func (h *VideoHandler) ListForChapter(c *gin.Context) {
	videos, err := h.service.ListForChapters(c.Request.Context(), []string{c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, videos, nil)
}

// Get godoc
// @Summary Get video
// @Tags Videos
// @Produce json
// @Param id path string true "Video id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, video, nil)
}

// Create godoc
// @Summary Register a video link
// @Tags Videos
// @Accept json
// @Produce json
// @Param payload body service.CreateVideoRequest true "Video payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/videos [post]
func (h *VideoHandler) Create(c *gin.Context) {
	var req service.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid video payload"))
		return
	}

	video, err := h.service.Create(c.Request.Context(), req, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, video)
}

// Delete godoc
// @Summary Delete a video link
// @Tags Videos
// @Produce json
// @Param id path string true "Video id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), currentPrincipal(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
