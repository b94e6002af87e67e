package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

// AdminHandler exposes the privileged account-management operations.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// GrantAdmin handles POST /v1/clients/:id/admin.
//
// @Summary      Grant admin privileges
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      200  {object}  domain.Client
// @Failure      404  {object}  errorResponse
// @Router       /v1/clients/{id}/admin [post]
func (h *AdminHandler) GrantAdmin(c echo.Context) error {
	return h.setAdmin(c, true)
}

// RevokeAdmin handles DELETE /v1/clients/:id/admin.
//
// @Summary      Revoke admin privileges
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      200  {object}  domain.Client
// @Failure      403  {object}  errorResponse  "Revoking your own privileges"
// @Failure      404  {object}  errorResponse
// @Router       /v1/clients/{id}/admin [delete]
func (h *AdminHandler) RevokeAdmin(c echo.Context) error {
	return h.setAdmin(c, false)
}

// ChangeRole handles PUT /v1/clients/:id/role.
//
// @Summary      Change a client's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Client id"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  domain.Client
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/clients/{id}/role [put]
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.ChangeRole(c.Request().Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// ChangeStatus handles PUT /v1/clients/:id/status.
//
// @Summary      Activate, deactivate or suspend a client
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Client id"
// @Param        body  body      changeStatusRequest  true  "New status"
// @Success      200   {object}  domain.Client
// @Failure      403   {object}  errorResponse  "Deactivating your own account"
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/clients/{id}/status [put]
func (h *AdminHandler) ChangeStatus(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req changeStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.ChangeStatus(c.Request().Context(), who.ClientID, c.Param("id"), domain.ClientStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *AdminHandler) setAdmin(c echo.Context, grant bool) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	updated, err := h.service.SetAdmin(c.Request().Context(), who.ClientID, c.Param("id"), grant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
