package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/service"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// UserHandler exposes admin user management endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List accounts with optional role/access filters
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param access query bool false "Filter by access flag"
// @Param search query string false "Search by email or name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(strings.ToUpper(raw))
		filter.Role = &role
	}
	if raw := c.Query("access"); raw != "" {
		access, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "access must be true or false"))
			return
		}
		filter.Access = &access
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// GrantAccess godoc
// @Summary Grant content access
// @Description Turn on the access flag so the user can read content
// @Tags Users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id}/access [post]
func (h *UserHandler) GrantAccess(c *gin.Context) {
	user, err := h.service.GrantAccess(c.Request.Context(), c.Param("id"), currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// RevokeAccess godoc
// @Summary Revoke content access
// @Description Turn off the access flag; takes effect on the user's next request
// @Tags Users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id}/access [delete]
func (h *UserHandler) RevokeAccess(c *gin.Context) {
	user, err := h.service.RevokeAccess(c.Request.Context(), c.Param("id"), currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// SetAdmin godoc
// @Summary Set admin role
// @Description Promote or demote a user; demoting yourself is allowed and applies immediately
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param payload body service.SetAdminRequest true "Admin flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) SetAdmin(c *gin.Context) {
	var req service.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.service.SetAdmin(c.Request.Context(), c.Param("id"), req, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
