package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/config"
	"github.com/dkruglov/library-service/internal/queue"
	"github.com/dkruglov/library-service/internal/repository"
	queue_publisher "github.com/dkruglov/library-service/internal/service"
)

// LoanHandler covers the librarian circulation desk: issuing books,
// taking returns, listing what is out, and looking up readers.
type LoanHandler struct {
	Cfg   config.Config
	Loans *repository.LoanRepo
	Users *repository.UserRepo
}

func NewLoanHandler(cfg config.Config, l *repository.LoanRepo, u *repository.UserRepo) *LoanHandler {
	if l == nil || u == nil {
		panic("nil repository passed to NewLoanHandler")
	}
	return &LoanHandler{Cfg: cfg, Loans: l, Users: u}
}

type issueReq struct {
	ReaderID       uint64   `json:"reader_id"`
	BookIDs        []uint64 `json:"book_ids"`
	ReservationIDs []uint64 `json:"reservation_ids"`
	LoanDays       int      `json:"loan_days"`
}

// Issue handles POST /v1/issue. A single batch may mix direct book
// picks with the reader's reservations; everything lands in one
// transaction. Reservations that vanished between the librarian's
// screen load and the submit are skipped rather than failing the
// whole batch.
func (h *LoanHandler) Issue(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}
	var req issueReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.BookIDs = dedupeIDs(req.BookIDs)
	req.ReservationIDs = dedupeIDs(req.ReservationIDs)

	loanDays := req.LoanDays
	if loanDays <= 0 {
		loanDays = h.Cfg.LoanDays
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	count, err := h.Loans.Issue(ctx, req.ReaderID, req.BookIDs, req.ReservationIDs, loanDays)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNothingToIssue):
			return fail(c, http.StatusBadRequest, "reader and at least one book or reservation required")
		case errors.Is(err, repository.ErrBookUnavailable):
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return fail(c, http.StatusInternalServerError, "issue failed")
	}

	// Fire-and-forget: a broker outage must not fail the issue.
	due := time.Now().UTC().AddDate(0, 0, loanDays)
	go func(ev queue.LoanIssuedEvent) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishLoanIssued(pubCtx, ev)
	}(queue.LoanIssuedEvent{
		ReaderID:    req.ReaderID,
		LibrarianID: sess.UserID,
		BookIDs:     req.BookIDs,
		Count:       count,
		DueDate:     due.Format("2006-01-02"),
		IssuedAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "books issued",
		"count":   count,
	})
}

// Return handles POST /v1/returns/:loanId. Marking an already returned
// loan is a no-op success, so a double scan at the desk is harmless.
func (h *LoanHandler) Return(c echo.Context) error {
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid loan id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Loans.Return(ctx, loanID); err != nil {
		return fail(c, http.StatusInternalServerError, "return failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "book returned"})
}

// List handles GET /v1/loans?reader=&title=&page=&limit=, returning
// loans currently out ordered by due date.
func (h *LoanHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 20, 100)
	f := repository.LoanFilter{
		ReaderName: strings.TrimSpace(c.QueryParam("reader")),
		BookTitle:  strings.TrimSpace(c.QueryParam("title")),
		Page:       page,
		Limit:      limit,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	loans, total, err := h.Loans.ListOnLoan(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list loans failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"loans":   loans,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// Readers handles GET /v1/readers?q= for the issue form's reader
// picker.
func (h *LoanHandler) Readers(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	readers, err := h.Users.SearchReaders(ctx, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "search readers failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "readers": readers})
}
