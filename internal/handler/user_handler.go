package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/internal/service"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/response"
)

type userAdminService interface {
	List(ctx context.Context) ([]models.User, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string, meta service.RequestMeta) (*models.User, error)
	Revoke(ctx context.Context, actor *models.JWTClaims, id string, meta service.RequestMeta) (*models.User, error)
	SetRole(ctx context.Context, actor *models.JWTClaims, id string, req dto.SetRoleRequest, meta service.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string, meta service.RequestMeta) error
}

// UserHandler exposes admin user management endpoints.
type UserHandler struct {
	service      userAdminService
	exposeErrors bool
}

// NewUserHandler creates a user handler. exposeErrors echoes raw causes of
// server errors on registration deletes and must be off in production.
func NewUserHandler(svc userAdminService, exposeErrors bool) *UserHandler {
	return &UserHandler{service: svc, exposeErrors: exposeErrors}
}

// List godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// Approve godoc
// @Summary Approve a registration
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/approve [put]
func (h *UserHandler) Approve(c *gin.Context) {
	user, err := h.service.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Pengguna berhasil disetujui.", user)
}

// Revoke godoc
// @Summary Revoke account access
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/revoke [put]
func (h *UserHandler) Revoke(c *gin.Context) {
	user, err := h.service.Revoke(c.Request.Context(), claimsFromContext(c), c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Akses pengguna berhasil dicabut.", user)
}

// SetRole godoc
// @Summary Grant or remove admin rights
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body dto.SetRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) SetRole(c *gin.Context) {
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Nilai isAdmin harus berupa boolean."))
		return
	}
	user, err := h.service.SetRole(c.Request.Context(), claimsFromContext(c), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Peran pengguna berhasil diperbarui.", user)
}

// Delete godoc
// @Summary Delete a registration
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id"), requestMeta(c)); err != nil {
		if h.exposeErrors {
			response.ErrorWithDetail(c, err)
			return
		}
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Pendaftaran pengguna berhasil dihapus.", nil)
}
