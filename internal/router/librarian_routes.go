package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/middleware"
	"github.com/dkruglov/library-service/internal/model"
)

// RegisterLibrarian registers staff endpoints under /v1. Everything
// here requires the librarian role: catalog administration, the issue
// and return desk, and the dashboard.
func RegisterLibrarian(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleLibrarian),
	)

	// Catalog administration.
	g.GET("/books/:id/edit", h.Books.GetForEdit)
	g.POST("/books", h.Books.Create)
	g.PUT("/books/:id", h.Books.Update)
	g.DELETE("/books/:id", h.Books.Delete)

	g.GET("/authors", h.Authors.List)
	g.POST("/authors", h.Authors.Create)
	g.PUT("/authors/:id", h.Authors.Rename)
	g.DELETE("/authors/:id", h.Authors.Delete)

	g.GET("/genres", h.Genres.List)
	g.POST("/genres", h.Genres.Create)
	g.PUT("/genres/:id", h.Genres.Rename)
	g.DELETE("/genres/:id", h.Genres.Delete)

	// Circulation desk.
	g.GET("/reservations/readers/:readerId", h.Reservations.ListForReader)
	g.POST("/issue", h.Loans.Issue)
	g.POST("/returns/:loanId", h.Loans.Return)
	g.GET("/loans", h.Loans.List)
	g.GET("/readers", h.Loans.Readers)

	// Dashboard.
	g.GET("/stats", h.Stats.Get)
}
