package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/model"
)

// RequireRole enforces that the authenticated session holds one of the
// given roles. The check compares Role values, not role name strings;
// an unknown or missing session fails closed with 403. JWTAuth must
// run earlier in the chain.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFrom(c)
			if !ok || !allowed[sess.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "forbidden",
				})
			}
			return next(c)
		}
	}
}
