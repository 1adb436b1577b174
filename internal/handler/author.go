package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/repository"
)

// AuthorHandler manages the author vocabulary. Reads are public;
// mutations are librarian only.
type AuthorHandler struct {
	Authors *repository.AuthorRepo
}

func NewAuthorHandler(a *repository.AuthorRepo) *AuthorHandler {
	if a == nil {
		panic("nil repository passed to NewAuthorHandler")
	}
	return &AuthorHandler{Authors: a}
}

// List handles GET /v1/authors?search=&page=&limit=.
func (h *AuthorHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 20, 100)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := dbCtx(c)
	defer cancel()

	authors, total, err := h.Authors.List(ctx, search, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list authors failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"authors": authors,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// Names handles GET /v1/authors/names?q= for catalog autocomplete.
func (h *AuthorHandler) Names(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	names, err := h.Authors.Names(ctx, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list names failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "names": names})
}

type nameReq struct {
	Name string `json:"name"`
}

// Create handles POST /v1/authors.
func (h *AuthorHandler) Create(c echo.Context) error {
	var req nameReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Authors.Create(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create author failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": id})
}

// Rename handles PUT /v1/authors/:id.
func (h *AuthorHandler) Rename(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid author id")
	}
	var req nameReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Authors.Rename(ctx, id, strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, repository.ErrAuthorNotFound) {
			return fail(c, http.StatusNotFound, "author not found")
		}
		return fail(c, http.StatusInternalServerError, "rename author failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "author renamed"})
}

// Delete handles DELETE /v1/authors/:id. Authors still linked to books
// cannot be removed.
func (h *AuthorHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid author id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Authors.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrAuthorNotFound):
			return fail(c, http.StatusNotFound, "author not found")
		case errors.Is(err, repository.ErrAuthorInUse):
			return fail(c, http.StatusConflict, "author is linked to books")
		}
		return fail(c, http.StatusInternalServerError, "delete author failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "author deleted"})
}
