package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/middleware"
	"github.com/dkruglov/library-service/internal/repository"
)

// BookHandler serves the catalog: public browsing plus librarian CRUD.
type BookHandler struct {
	Books   *repository.BookRepo
	Reviews *repository.ReviewRepo
}

func NewBookHandler(b *repository.BookRepo, rv *repository.ReviewRepo) *BookHandler {
	if b == nil || rv == nil {
		panic("nil repository passed to NewBookHandler")
	}
	return &BookHandler{Books: b, Reviews: rv}
}

// List handles GET /v1/books with title/author/genre filters,
// availability toggle and pagination.
func (h *BookHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 12, 100)
	f := repository.BookFilter{
		Title:         strings.TrimSpace(c.QueryParam("title")),
		Author:        strings.TrimSpace(c.QueryParam("author")),
		Genre:         strings.TrimSpace(c.QueryParam("genre")),
		AvailableOnly: c.QueryParam("available") == "true",
		Page:          page,
		Limit:         limit,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	books, total, err := h.Books.List(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list books failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"books":   books,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// Get handles GET /v1/books/:id. The response carries the review block
// alongside the book so a detail page renders in one round trip. The
// viewer id flags the caller's own review when a session is present.
func (h *BookHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	book, err := h.Books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return fail(c, http.StatusNotFound, "book not found")
		}
		return fail(c, http.StatusInternalServerError, "load book failed")
	}

	var viewerID uint64
	if sess, ok := middleware.SessionFrom(c); ok {
		viewerID = sess.UserID
	}
	reviews, err := h.Reviews.ListForBook(ctx, id, viewerID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load reviews failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"book":    book,
		"reviews": reviews,
	})
}

// GetForEdit handles GET /v1/books/:id/edit, returning the book with
// its raw author/genre id links for the librarian edit form.
func (h *BookHandler) GetForEdit(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	view, err := h.Books.GetForEdit(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return fail(c, http.StatusNotFound, "book not found")
		}
		return fail(c, http.StatusInternalServerError, "load book failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "book": view})
}

type bookReq struct {
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	PageCount     uint32   `json:"page_count"`
	Quantity      int32    `json:"quantity"`
	CoverImageURL *string  `json:"cover_image_url"`
	AuthorIDs     []uint64 `json:"author_ids"`
	GenreIDs      []uint64 `json:"genre_ids"`
}

func (r *bookReq) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	r.Summary = strings.TrimSpace(r.Summary)
	switch {
	case r.Title == "":
		return "title is required"
	case r.Quantity < 0:
		return "quantity cannot be negative"
	case len(r.AuthorIDs) == 0:
		return "at least one author is required"
	case len(r.GenreIDs) == 0:
		return "at least one genre is required"
	}
	return ""
}

func (r *bookReq) input() repository.BookInput {
	return repository.BookInput{
		Title:         r.Title,
		Summary:       r.Summary,
		PageCount:     r.PageCount,
		Quantity:      r.Quantity,
		CoverImageURL: r.CoverImageURL,
		AuthorIDs:     dedupeIDs(r.AuthorIDs),
		GenreIDs:      dedupeIDs(r.GenreIDs),
	}
}

// Create handles POST /v1/books (librarian only).
func (h *BookHandler) Create(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Books.Create(ctx, req.input())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create book failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": id})
}

// Update handles PUT /v1/books/:id (librarian only).
func (h *BookHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Books.Update(ctx, id, req.input()); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return fail(c, http.StatusNotFound, "book not found")
		}
		return fail(c, http.StatusInternalServerError, "update book failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "book updated"})
}

// Delete handles DELETE /v1/books/:id. A book with active loans or
// reservations cannot be removed.
func (h *BookHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Books.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			return fail(c, http.StatusNotFound, "book not found")
		case errors.Is(err, repository.ErrBookInUse):
			return fail(c, http.StatusConflict, "book has active loans or reservations")
		}
		return fail(c, http.StatusInternalServerError, "delete book failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "book deleted"})
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
