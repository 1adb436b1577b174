// Package handler contains the HTTP layer. Handlers bind and validate
// input, call repositories, and translate sentinel errors into status
// codes; business rules live below this package.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/middleware"
	"github.com/dkruglov/library-service/internal/model"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail writes the error envelope shared by all endpoints.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// sessionOr401 pulls the authenticated session from the context. The
// JWT middleware always sets one on protected routes, so a miss means
// the route was wired without it.
func sessionOr401(c echo.Context) (model.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return model.Session{}, fail(c, http.StatusUnauthorized, "unauthorized")
	}
	return sess, nil
}

// pageParams reads ?page= and ?limit= with defaults and caps.
func pageParams(c echo.Context, defLimit, maxLimit int) (int, int) {
	page := 1
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		page = n
	}
	limit := defLimit
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
