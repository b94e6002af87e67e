package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// identity is the authenticated caller as injected by the Auth middleware.
type identity struct {
	ClientID string
	Email    string
	Role     string
	IsAdmin  bool
}

// ctxIdentity extracts the auth claims injected by the Auth middleware and
// fails fast with 401 when the client id is missing, which means the
// middleware did not run or the token carried no subject.
func ctxIdentity(c echo.Context) (identity, error) {
	id := identity{}
	id.ClientID, _ = c.Get("client_id").(string)
	if id.ClientID == "" {
		return identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	id.Email, _ = c.Get("email").(string)
	id.Role, _ = c.Get("role").(string)
	id.IsAdmin, _ = c.Get("is_admin").(bool)
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Decode failures map to 400 and validation failures to 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
