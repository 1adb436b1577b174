package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/middleware"
	"github.com/dkruglov/library-service/internal/model"
)

// RegisterReader registers reader-scoped endpoints under /v1. All
// routes require a valid JWT and the reader role; staff accounts get
// 403 here, borrowing goes through a reader account.
func RegisterReader(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleReader),
	)

	g.POST("/reservations", h.Reservations.Create)
	g.GET("/reservations", h.Reservations.ListMine)
	g.DELETE("/reservations/:id", h.Reservations.Cancel)

	g.GET("/books/:id/reviews/eligibility", h.Reviews.Eligibility)
	g.POST("/books/:id/reviews", h.Reviews.Upsert)
	g.DELETE("/reviews/:id", h.Reviews.Delete)
}
