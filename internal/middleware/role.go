package middleware

import (
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework
)

// RequireRole lets the request through only when the role stored by
// JWTAuth is one of roles.  It must run after JWTAuth; on its own every
// request looks anonymous and is refused with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// build the lookup once, at registration time
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not have permission to perform this action."})
			}
			return next(c)
		}
	}
}
