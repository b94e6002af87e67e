package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/skillhub/client-registry/internal/api/metrics"
	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

const idempotencyHeader = "Idempotency-Key"

// ClientHandler handles HTTP requests for the client registry.
type ClientHandler struct {
	service     ports.ClientService
	idempotency ports.IdempotencyStore
	log         zerolog.Logger
}

// NewClientHandler wires the handler. idempotency may be nil, in which case
// the Idempotency-Key header is ignored.
func NewClientHandler(service ports.ClientService, idempotency ports.IdempotencyStore, log zerolog.Logger) *ClientHandler {
	return &ClientHandler{service: service, idempotency: idempotency, log: log}
}

// List handles GET /v1/clients.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        search       query     string  false  "Substring of name, email or company"
// @Param        status       query     string  false  "active, inactive or pending"
// @Param        role         query     string  false  "reseller, customer or admin"
// @Param        tags         query     string  false  "Comma-separated tags; any match"
// @Param        from         query     string  false  "Created at or after (RFC3339)"
// @Param        to           query     string  false  "Created at or before (RFC3339)"
// @Param        assigned_to  query     string  false  "Assigned account manager"
// @Success      200          {object}  listClientsResponse
// @Failure      400          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Router       /v1/clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	filter, err := toClientFilter(c)
	if err != nil {
		return err
	}

	clients, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listClientsResponse{Data: clients, Total: len(clients)})
}

// Create handles POST /v1/clients.
//
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createClientRequest  true   "Client details"
// @Success      201              {object}  domain.Client
// @Success      200              {object}  domain.Client  "Replayed from the idempotency key"
// @Failure      400              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	key := c.Request().Header.Get(idempotencyHeader)
	if key != "" && h.idempotency != nil {
		clientID, found, err := h.idempotency.Lookup(ctx, key)
		if err != nil {
			h.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
		} else if found {
			existing, err := h.service.GetByID(ctx, clientID)
			if err != nil {
				return err
			}
			if existing != nil {
				metrics.IdempotentReplaysTotal.Inc()
				return c.JSON(http.StatusOK, existing)
			}
		}
	}

	client, err := h.service.Create(ctx, toCreateInput(req))
	if err != nil {
		return err
	}
	metrics.ClientsCreatedTotal.WithLabelValues(string(client.Role)).Inc()

	if key != "" && h.idempotency != nil {
		if err := h.idempotency.Remember(ctx, key, client.ID); err != nil {
			h.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
		}
	}
	return c.JSON(http.StatusCreated, client)
}

// Get handles GET /v1/clients/:id.
//
// @Summary      Get a client by id
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id (e.g. CLIENT_001)"
// @Success      200  {object}  domain.Client
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	return h.getByID(c, c.Param("id"))
}

// Update handles PATCH /v1/clients/:id.
//
// @Summary      Partially update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Client id"
// @Param        body  body      updateClientRequest  true  "Fields to change"
// @Success      200   {object}  domain.Client
// @Failure      403   {object}  errorResponse  "Revoking your own admin flag or deactivating yourself"
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/clients/{id} [patch]
func (h *ClientHandler) Update(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id := c.Param("id")
	if id == who.ClientID {
		if req.IsAdmin != nil && !*req.IsAdmin {
			return domain.ErrSelfDemotion
		}
		if req.Status != nil && domain.ClientStatus(*req.Status) == domain.StatusInactive {
			return domain.ErrSelfDeactivation
		}
	}

	updated, err := h.service.Update(c.Request().Context(), id, toClientPatch(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/clients/:id.
//
// @Summary      Delete a client
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path  string  true  "Client id"
// @Success      204
// @Failure      403  {object}  errorResponse  "Deleting your own account"
// @Failure      404  {object}  errorResponse
// @Router       /v1/clients/{id} [delete]
func (h *ClientHandler) Delete(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == who.ClientID {
		return domain.ErrSelfDeletion
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/me.
//
// @Summary      Get the authenticated client
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Client
// @Failure      401  {object}  errorResponse
// @Router       /v1/me [get]
func (h *ClientHandler) Me(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return h.getByID(c, who.ClientID)
}

// UpdateMe handles PATCH /v1/me. Role, admin flag, status and metadata are
// not editable here.
//
// @Summary      Update the authenticated client's profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields to change"
// @Success      200   {object}  domain.Client
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/me [patch]
func (h *ClientHandler) UpdateMe(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.Update(c.Request().Context(), who.ClientID, toProfilePatch(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Stats handles GET /v1/clients/stats.
//
// @Summary      Aggregate client statistics
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.ClientStats
// @Router       /v1/clients/stats [get]
func (h *ClientHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Export handles GET /v1/clients/export.
//
// @Summary      Export every client as a JSON array
// @Tags         transfer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Client
// @Router       /v1/clients/export [get]
func (h *ClientHandler) Export(c echo.Context) error {
	payload, err := h.service.ExportAll(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="clients.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(payload))
}

// Import handles POST /v1/clients/import. The body is a JSON array of
// clients; mode=replace (default) discards the current set, mode=merge
// upserts by id.
//
// @Summary      Import clients
// @Tags         transfer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mode  query     string  false  "replace or merge"
// @Param        body  body      []domain.Client  true  "Clients to import"
// @Success      200   {object}  importResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/clients/import [post]
func (h *ClientHandler) Import(c echo.Context) error {
	mode := c.QueryParam("mode")
	if mode == "" {
		mode = "replace"
	}
	if mode != "replace" && mode != "merge" {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be replace or merge")
	}

	body, err := readBody(c)
	if err != nil {
		return err
	}

	var n int
	if mode == "merge" {
		n, err = h.service.MergeImport(c.Request().Context(), body)
	} else {
		n, err = h.service.ImportAll(c.Request().Context(), body)
	}
	if err != nil {
		return err
	}
	metrics.ClientsImportedTotal.WithLabelValues(mode).Add(float64(n))
	return c.JSON(http.StatusOK, importResponse{Imported: n, Mode: mode})
}

// Backup handles GET /v1/clients/backup.
//
// @Summary      Download a versioned backup of every client
// @Tags         transfer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Backup
// @Router       /v1/clients/backup [get]
func (h *ClientHandler) Backup(c echo.Context) error {
	payload, err := h.service.Backup(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="clients-backup.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(payload))
}

// Restore handles POST /v1/clients/restore.
//
// @Summary      Replace every client with a backup's data
// @Tags         transfer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Backup  true  "Backup envelope"
// @Success      200   {object}  importResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/clients/restore [post]
func (h *ClientHandler) Restore(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	n, err := h.service.Restore(c.Request().Context(), body)
	if err != nil {
		return err
	}
	metrics.ClientsImportedTotal.WithLabelValues("restore").Add(float64(n))
	return c.JSON(http.StatusOK, importResponse{Imported: n, Mode: "restore"})
}

// ClearAll handles DELETE /v1/clients.
//
// @Summary      Remove every client and reset the id sequence
// @Tags         transfer
// @Security     BearerAuth
// @Success      204
// @Router       /v1/clients [delete]
func (h *ClientHandler) ClearAll(c echo.Context) error {
	if err := h.service.ClearAll(c.Request().Context()); err != nil {
		return err
	}
	who, _ := ctxIdentity(c)
	h.log.Warn().Str("actor_id", who.ClientID).Msg("client registry cleared")
	return c.NoContent(http.StatusNoContent)
}

func (h *ClientHandler) getByID(c echo.Context, id string) error {
	client, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if client == nil {
		return domain.ErrClientNotFound
	}
	return c.JSON(http.StatusOK, client)
}

func readBody(c echo.Context) (string, error) {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unable to read request body")
	}
	return string(data), nil
}
