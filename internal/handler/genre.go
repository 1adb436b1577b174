package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/repository"
)

// GenreHandler manages the genre vocabulary, mirroring AuthorHandler.
type GenreHandler struct {
	Genres *repository.GenreRepo
}

func NewGenreHandler(g *repository.GenreRepo) *GenreHandler {
	if g == nil {
		panic("nil repository passed to NewGenreHandler")
	}
	return &GenreHandler{Genres: g}
}

func (h *GenreHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 20, 100)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := dbCtx(c)
	defer cancel()

	genres, total, err := h.Genres.List(ctx, search, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list genres failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"genres":  genres,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *GenreHandler) Names(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	names, err := h.Genres.Names(ctx, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list names failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "names": names})
}

func (h *GenreHandler) Create(c echo.Context) error {
	var req nameReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Genres.Create(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create genre failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": id})
}

func (h *GenreHandler) Rename(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid genre id")
	}
	var req nameReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Genres.Rename(ctx, id, strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, repository.ErrGenreNotFound) {
			return fail(c, http.StatusNotFound, "genre not found")
		}
		return fail(c, http.StatusInternalServerError, "rename genre failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "genre renamed"})
}

func (h *GenreHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid genre id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Genres.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrGenreNotFound):
			return fail(c, http.StatusNotFound, "genre not found")
		case errors.Is(err, repository.ErrGenreInUse):
			return fail(c, http.StatusConflict, "genre is linked to books")
		}
		return fail(c, http.StatusInternalServerError, "delete genre failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "genre deleted"})
}
