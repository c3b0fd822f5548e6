package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/parking-slot-booking/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds one of the given roles.  The role comes from the JWT's "role"
// claim, which snapshots the user's role at session issue time; JWTAuth
// must run earlier in the chain to have stored it under "role".  Requests
// with a missing or disallowed role are rejected with 403 Forbidden.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
