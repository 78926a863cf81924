package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/service"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// NoteHandler manages note HTTP endpoints.
type NoteHandler struct {
	service *service.NoteService
}

// NewNoteHandler constructs the handler.
func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{service: svc}
}

// ListForChapter godoc
// @Summary List notes of a chapter
// @Tags Notes
// @Produce json
// @Param id path string true "Chapter id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /chapters/{id}/notes [get]
func (h *NoteHandler) ListForChapter(c *gin.Context) {
	notes, err := h.service.ListForChapters(c.Request.Context(), []string{c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// Get godoc
// @Summary Get note metadata with a signed download URL
// @Tags Notes
// @Produce json
// @Param id path string true "Note id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	downloadURL, expiresAt, err := h.service.GetDownloadURL(c.Request.Context(), note.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"note":         note,
		"download_url": downloadURL,
		"expires_at":   expiresAt,
	}, nil)
}

// Upload godoc
// @Summary Upload a note PDF
// @Tags Notes
// @Accept multipart/form-data
// @Produce json
// @Param chapter_id formData string true "Chapter id"
// @Param title formData string true "Title"
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/notes [post]
func (h *NoteHandler) Upload(c *gin.Context) {
	var req service.UploadNoteRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid note payload"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}

	upload := service.NoteUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	note, err := h.service.Upload(c.Request.Context(), req, upload, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, note, nil)
}

// Download godoc
// @Summary Download note PDF via signed token
// @Tags Notes
// @Produce octet-stream
// @Param id path string true "Note id"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id}/download [get]
func (h *NoteHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}

// Delete godoc
// @Summary Delete a note
// @Description Remove the metadata row; the stored file stays until the orphan scan reports it
// @Tags Notes
// @Produce json
// @Param id path string true "Note id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), currentPrincipal(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
