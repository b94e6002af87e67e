package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillhub/client-registry/internal/core/domain"
)

// ClientLookup resolves a client by id; nil means no such client.
type ClientLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

// LoadClient runs after Auth and replaces the token's role and admin flag
// with the stored record's, so revocations and deactivations apply before the
// token expires. Deleted clients get 401 and inactive ones 403. A token whose
// created_at differs from the record's was issued to an earlier account that
// held the same id (ids restart after ClearAll) and gets 401.
func LoadClient(clients ClientLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get("client_id").(string)
			if id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			client, err := clients.GetByID(c.Request().Context(), id)
			if err != nil {
				return err
			}
			if client == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
			}
			if stamp, _ := c.Get("created_at").(int64); stamp != client.CreatedAt.UnixMilli() {
				return echo.NewHTTPError(http.StatusUnauthorized, "token was issued to a different account")
			}
			if client.Status == domain.StatusInactive {
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrAccountInactive.Error())
			}

			c.Set("role", string(client.Role))
			c.Set("is_admin", client.IsAdmin)
			return next(c)
		}
	}
}
