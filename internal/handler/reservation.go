package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/config"
	"github.com/dkruglov/library-service/internal/repository"
)

// ReservationHandler serves the reader's reservation workflow: place a
// hold on a book, list current holds, cancel one.
type ReservationHandler struct {
	Cfg          config.Config
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(cfg config.Config, r *repository.ReservationRepo) *ReservationHandler {
	if r == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Cfg: cfg, Reservations: r}
}

type reserveReq struct {
	BookID uint64 `json:"book_id"`
}

// Create handles POST /v1/reservations. Availability is a gate, not an
// allocation: duplicate holds are refused, racing for the last copy is
// not.
func (h *ReservationHandler) Create(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil || req.BookID == 0 {
		return fail(c, http.StatusBadRequest, "book_id is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	until, err := h.Reservations.Reserve(ctx, sess.UserID, req.BookID, h.Cfg.ReserveDays)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			return fail(c, http.StatusNotFound, "book not found")
		case errors.Is(err, repository.ErrBookUnavailable):
			return fail(c, http.StatusBadRequest, "no copies available")
		case errors.Is(err, repository.ErrAlreadyReserved):
			return fail(c, http.StatusConflict, "book already reserved")
		}
		return fail(c, http.StatusInternalServerError, "reserve failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":        true,
		"message":        "book reserved",
		"reserved_until": until,
	})
}

// ListMine handles GET /v1/reservations for the authenticated reader.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	reservations, err := h.Reservations.ListByUser(ctx, sess.UserID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list reservations failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"reservations": reservations,
	})
}

// ListForReader handles GET /v1/reservations/readers/:readerId for the
// issue desk, so a librarian can see which holds a reader came in to
// pick up.
func (h *ReservationHandler) ListForReader(c echo.Context) error {
	readerID, ok := pathID(c, "readerId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid reader id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	reservations, err := h.Reservations.ListByUser(ctx, readerID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list reservations failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"reservations": reservations,
	})
}

// Cancel handles DELETE /v1/reservations/:id. The delete is scoped to
// the caller, so one reader cannot cancel another's hold.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Reservations.Cancel(ctx, id, sess.UserID); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return fail(c, http.StatusNotFound, "reservation not found")
		}
		return fail(c, http.StatusInternalServerError, "cancel reservation failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "reservation cancelled"})
}
