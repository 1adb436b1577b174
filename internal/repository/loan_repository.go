package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkruglov/library-service/internal/model"
)

// LoanRepo manages circulation: issuing books (directly or by
// converting reservations) and processing returns. A loan's status only
// ever moves from on_loan to returned; rows are never deleted.
//
// Issuing does not decrement books.quantity and returning does not
// increment it. The column acts as an availability gate (see
// ReservationRepo); changing that bookkeeping needs a decision from the
// library, not from this codebase.
type LoanRepo struct {
	db *sql.DB
}

// NewLoanRepo returns a new LoanRepo bound to the given database.
func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// statusID resolves a loan_statuses name to its id. A missing row is a
// deployment error surfaced as ErrLoanStatusMissing.
func statusID(ctx context.Context, q rowQuerier, name string) (uint8, error) {
	var id uint8
	err := q.QueryRowContext(ctx, "SELECT id FROM loan_statuses WHERE name = ? LIMIT 1", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", ErrLoanStatusMissing, name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Issue creates loans for a reader in one transaction and returns how
// many were created. Each reservation id is converted: its book id is
// read, a loan is inserted and the reservation row deleted. Each direct
// book id is availability-checked first; an absent or exhausted book
// aborts the whole batch with ErrBookUnavailable wrapped around the
// offending id, so no partial issue survives.
//
// Reservation ids that do not exist are skipped rather than failed:
// the desk may retry a form after another librarian already converted
// part of it.
func (r *LoanRepo) Issue(ctx context.Context, readerID uint64, bookIDs, reservationIDs []uint64, loanDays int) (int, error) {
	if readerID == 0 || (len(bookIDs) == 0 && len(reservationIDs) == 0) {
		return 0, ErrNothingToIssue
	}
	if loanDays <= 0 {
		loanDays = 30
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	onLoan, err := statusID(ctx, tx, model.LoanStatusOnLoan)
	if err != nil {
		return 0, err
	}
	loanDate := time.Now().UTC()
	returnDate := loanDate.AddDate(0, 0, loanDays)
	created := 0

	for _, resID := range reservationIDs {
		var bookID uint64
		err := tx.QueryRowContext(ctx,
			"SELECT book_id FROM reservations WHERE id = ?", resID).Scan(&bookID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO loans (user_id, book_id, status_id, loan_date, return_date) VALUES (?,?,?,?,?)",
			readerID, bookID, onLoan, loanDate, returnDate); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM reservations WHERE id = ?", resID); err != nil {
			return 0, err
		}
		created++
	}

	for _, bookID := range bookIDs {
		var quantity int32
		err := tx.QueryRowContext(ctx,
			"SELECT quantity FROM books WHERE id = ?", bookID).Scan(&quantity)
		if err == sql.ErrNoRows || (err == nil && quantity <= 0) {
			return 0, fmt.Errorf("book %d: %w", bookID, ErrBookUnavailable)
		}
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO loans (user_id, book_id, status_id, loan_date, return_date) VALUES (?,?,?,?,?)",
			readerID, bookID, onLoan, loanDate, returnDate); err != nil {
			return 0, err
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return created, nil
}

// Return marks a loan returned. The update is unconditional: a loan id
// that matches nothing affects zero rows and still counts as success,
// which makes a repeated return idempotent.
func (r *LoanRepo) Return(ctx context.Context, loanID uint64) error {
	returned, err := statusID(ctx, r.db, model.LoanStatusReturned)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE loans SET status_id = ? WHERE id = ?", returned, loanID)
	return err
}

// LoanFilter narrows ListOnLoan results by reader name and book title.
type LoanFilter struct {
	ReaderName string
	BookTitle  string
	Page       int
	Limit      int
}

// LoanDetail is an active loan joined with reader and book display
// data for the return workflow.
type LoanDetail struct {
	ID            uint64    `json:"loan_id"`
	LoanDate      time.Time `json:"loan_date"`
	ReturnDate    time.Time `json:"return_date"`
	UserID        uint64    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
	BookID        uint64    `json:"book_id"`
	BookTitle     string    `json:"book_title"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	Authors       string    `json:"authors"`
}

// ListOnLoan returns one page of loans currently out, ordered by due
// date ascending (most overdue first), plus the total match count.
func (r *LoanRepo) ListOnLoan(ctx context.Context, f LoanFilter) ([]LoanDetail, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 12
	}
	where := ""
	args := []interface{}{}
	if f.ReaderName != "" {
		where += " AND u.name LIKE ?"
		args = append(args, "%"+f.ReaderName+"%")
	}
	if f.BookTitle != "" {
		where += " AND b.title LIKE ?"
		args = append(args, "%"+f.BookTitle+"%")
	}

	countQ := `SELECT COUNT(DISTINCT l.id)
FROM loans l
JOIN users u ON l.user_id = u.id
JOIN books b ON l.book_id = b.id
JOIN loan_statuses ls ON l.status_id = ls.id
WHERE ls.name = 'on_loan'` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT l.id, l.loan_date, l.return_date,
       u.id, u.name, u.email,
       b.id, b.title, b.cover_image_url,
       COALESCE(GROUP_CONCAT(DISTINCT a.name), '')
FROM loans l
JOIN users u ON l.user_id = u.id
JOIN books b ON l.book_id = b.id
JOIN loan_statuses ls ON l.status_id = ls.id
LEFT JOIN books_authors ba ON b.id = ba.book_id
LEFT JOIN authors a ON ba.author_id = a.id
WHERE ls.name = 'on_loan'` + where + `
GROUP BY l.id
ORDER BY l.return_date ASC
LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	loans := make([]LoanDetail, 0)
	for rows.Next() {
		var d LoanDetail
		if err := rows.Scan(&d.ID, &d.LoanDate, &d.ReturnDate,
			&d.UserID, &d.UserName, &d.UserEmail,
			&d.BookID, &d.BookTitle, &d.CoverImageURL, &d.Authors); err != nil {
			return nil, 0, err
		}
		loans = append(loans, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// CountOnLoan returns the number of loans currently out.
func (r *LoanRepo) CountOnLoan(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)
FROM loans l
JOIN loan_statuses ls ON l.status_id = ls.id
WHERE ls.name = ?`, model.LoanStatusOnLoan).Scan(&n)
	return n, err
}
