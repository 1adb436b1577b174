// Package middleware holds the guards and request plumbing shared by
// all route groups: JWT authentication, role enforcement, response
// caching and rate limiting.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/model"
)

// sessionKey is the Echo context key under which JWTAuth stores the
// authenticated session.
const sessionKey = "session"

// SessionFrom returns the session placed in the context by JWTAuth.
// The second return value is false for unauthenticated requests.
func SessionFrom(c echo.Context) (model.Session, bool) {
	s, ok := c.Get(sessionKey).(model.Session)
	return s, ok
}

// SetSession stores a session in the context. Exported for handler
// tests that bypass the middleware chain.
func SetSession(c echo.Context, s model.Session) {
	c.Set(sessionKey, s)
}

// JWTAuth validates a Bearer access token and stores an explicit
// model.Session (user id + role) in the context. Requests without a
// valid token, or whose role claim falls outside the known role set,
// are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "missing bearer token",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "invalid token",
				})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "invalid claims",
				})
			}

			userID := subjectID(claims["sub"])
			roleName, _ := claims["role"].(string)
			role, roleOK := model.ParseRole(roleName)
			if userID == 0 || !roleOK {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "invalid claims",
				})
			}
			SetSession(c, model.Session{UserID: userID, Role: role})
			return next(c)
		}
	}
}

// subjectID extracts the user id from the sub claim. JSON numbers
// decode as float64; string subjects are parsed as decimal.
func subjectID(v interface{}) uint64 {
	switch t := v.(type) {
	case float64:
		return uint64(t)
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
