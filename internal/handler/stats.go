package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/repository"
)

// StatsHandler serves the librarian dashboard counters.
type StatsHandler struct {
	Books   *repository.BookRepo
	Authors *repository.AuthorRepo
	Genres  *repository.GenreRepo
	Loans   *repository.LoanRepo
}

func NewStatsHandler(b *repository.BookRepo, a *repository.AuthorRepo, g *repository.GenreRepo, l *repository.LoanRepo) *StatsHandler {
	if b == nil || a == nil || g == nil || l == nil {
		panic("nil repository passed to NewStatsHandler")
	}
	return &StatsHandler{Books: b, Authors: a, Genres: g, Loans: l}
}

// Get handles GET /v1/stats.
func (h *StatsHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	books, err := h.Books.CountAll(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load stats failed")
	}
	authors, err := h.Authors.CountAll(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load stats failed")
	}
	genres, err := h.Genres.CountAll(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load stats failed")
	}
	onLoan, err := h.Loans.CountOnLoan(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load stats failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"stats": echo.Map{
			"books":   books,
			"authors": authors,
			"genres":  genres,
			"on_loan": onLoan,
		},
	})
}
