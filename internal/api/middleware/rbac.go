package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminOnly lets through callers whose token carries the admin flag.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isAdmin, _ := c.Get("is_admin").(bool); !isAdmin {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// SelfOrAdmin lets through admins and callers whose client id equals the
// path parameter param.
func SelfOrAdmin(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isAdmin, _ := c.Get("is_admin").(bool); isAdmin {
				return next(c)
			}
			clientID, _ := c.Get("client_id").(string)
			if clientID == "" || clientID != c.Param(param) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
