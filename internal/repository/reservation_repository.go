package repository

import (
	"context"
	"database/sql"
	"time"
)

// ReservationRepo provides hold operations for readers. A reservation
// holds one copy of one book until its reserved_until timestamp, until
// the reader cancels, or until a librarian converts it into a loan.
//
// Reserving checks book availability but does not decrement quantity;
// the count is a gate, not an allocation. Two readers racing for the
// last copy can therefore both reserve it, exactly as the circulation
// desk historically allowed. The check and the insert run in one
// transaction, and the unique (user_id, book_id) index backstops the
// read-then-insert race on duplicate holds.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Reserve places a hold for the reader on the book. It returns the end
// of the hold window. Fails with ErrBookNotFound, ErrBookUnavailable
// (quantity <= 0) or ErrAlreadyReserved (an active reservation for the
// same user and book already exists).
func (r *ReservationRepo) Reserve(ctx context.Context, userID, bookID uint64, holdDays int) (time.Time, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var quantity int32
	err = tx.QueryRowContext(ctx, "SELECT quantity FROM books WHERE id = ?", bookID).Scan(&quantity)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrBookNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	if quantity <= 0 {
		return time.Time{}, ErrBookUnavailable
	}

	var existing uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM reservations WHERE user_id = ? AND book_id = ? LIMIT 1",
		userID, bookID).Scan(&existing)
	if err == nil {
		return time.Time{}, ErrAlreadyReserved
	}
	if err != sql.ErrNoRows {
		return time.Time{}, err
	}

	reservedUntil := time.Now().UTC().AddDate(0, 0, holdDays)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, book_id, reserved_until) VALUES (?, ?, ?)",
		userID, bookID, reservedUntil); err != nil {
		// A concurrent request can pass the existence check before
		// either insert commits; the unique (user_id, book_id) index
		// catches that here.
		if isDuplicate(err) {
			return time.Time{}, ErrAlreadyReserved
		}
		return time.Time{}, err
	}
	if err := tx.Commit(); err != nil {
		return time.Time{}, err
	}
	committed = true
	return reservedUntil, nil
}

// ReservationDetail is a reservation joined with the display data of
// its book, for the reader's own list and the librarian's per-reader
// view. Authors and Genres are comma-joined names.
type ReservationDetail struct {
	ID            uint64    `json:"id"`
	ReservedUntil time.Time `json:"reserved_until"`
	BookID        uint64    `json:"book_id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	PageCount     uint32    `json:"page_count"`
	Quantity      int32     `json:"quantity"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	Authors       string    `json:"authors"`
	Genres        string    `json:"genres"`
}

// ListByUser returns the user's reservations with book, author and
// genre display data, soonest-expiring first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT res.id, res.reserved_until,
       b.id, b.title, b.summary, b.page_count, b.quantity, b.cover_image_url,
       COALESCE(GROUP_CONCAT(DISTINCT a.name), ''),
       COALESCE(GROUP_CONCAT(DISTINCT g.name), '')
FROM reservations res
JOIN books b ON res.book_id = b.id
LEFT JOIN books_authors ba ON b.id = ba.book_id
LEFT JOIN authors a ON ba.author_id = a.id
LEFT JOIN books_genres bg ON b.id = bg.book_id
LEFT JOIN genres g ON bg.genre_id = g.id
WHERE res.user_id = ?
GROUP BY res.id
ORDER BY res.reserved_until ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		if err := rows.Scan(&d.ID, &d.ReservedUntil, &d.BookID, &d.Title, &d.Summary,
			&d.PageCount, &d.Quantity, &d.CoverImageURL, &d.Authors, &d.Genres); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// Cancel deletes a reservation owned by userID. It returns
// ErrReservationNotFound when no reservation with that id belongs to
// the user.
func (r *ReservationRepo) Cancel(ctx context.Context, reservationID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM reservations WHERE id = ? AND user_id = ?", reservationID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
