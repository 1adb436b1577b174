package repository

import (
	"context"
	"database/sql"
	"strings"
)

// BookRepo provides catalog persistence for books and their author and
// genre links. Multi-statement writes (a book plus its link rows) run
// inside a single transaction so a failure cannot leave a book with
// half of its links.
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo returns a new BookRepo bound to the given database.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

// DB exposes the underlying sql.DB for callers that coordinate
// transactions spanning several repositories.
func (r *BookRepo) DB() *sql.DB { return r.db }

// BookFilter narrows List results. Zero values mean "no filter".
// Page is 1-based; Limit caps the rows per page.
type BookFilter struct {
	Title         string
	Author        string
	Genre         string
	AvailableOnly bool
	Page          int
	Limit         int
}

// BookRow is a catalog listing entry. Authors and Genres are
// comma-joined display names aggregated over the link tables.
type BookRow struct {
	ID            uint64  `json:"id"`
	Title         string  `json:"title"`
	Summary       string  `json:"summary"`
	PageCount     uint32  `json:"page_count"`
	Quantity      int32   `json:"quantity"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	Authors       string  `json:"authors"`
	Genres        string  `json:"genres"`
}

const bookSelect = `SELECT b.id, b.title, b.summary, b.page_count, b.quantity, b.cover_image_url,
       COALESCE(GROUP_CONCAT(DISTINCT a.name), ''),
       COALESCE(GROUP_CONCAT(DISTINCT g.name), '')
FROM books b
LEFT JOIN books_authors ba ON b.id = ba.book_id
LEFT JOIN authors a ON ba.author_id = a.id
LEFT JOIN books_genres bg ON b.id = bg.book_id
LEFT JOIN genres g ON bg.genre_id = g.id`

// buildBookWhere assembles WHERE conditions for a filter. Author and
// title match with LIKE; genre matches exactly, as the catalog UI
// offers genres from a fixed list.
func buildBookWhere(f BookFilter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}
	if f.Title != "" {
		conds = append(conds, "b.title LIKE ?")
		args = append(args, "%"+f.Title+"%")
	}
	if f.Author != "" {
		conds = append(conds, "a.name LIKE ?")
		args = append(args, "%"+f.Author+"%")
	}
	if f.Genre != "" {
		conds = append(conds, "g.name = ?")
		args = append(args, f.Genre)
	}
	if f.AvailableOnly {
		conds = append(conds, "b.quantity > 0")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of catalog rows matching the filter together
// with the total number of matching books (for pagination), ordered by
// title.
func (r *BookRepo) List(ctx context.Context, f BookFilter) ([]BookRow, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 12
	}
	where, args := buildBookWhere(f)

	countQ := `SELECT COUNT(DISTINCT b.id)
FROM books b
LEFT JOIN books_authors ba ON b.id = ba.book_id
LEFT JOIN authors a ON ba.author_id = a.id
LEFT JOIN books_genres bg ON b.id = bg.book_id
LEFT JOIN genres g ON bg.genre_id = g.id` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := bookSelect + where + " GROUP BY b.id ORDER BY b.title LIMIT ? OFFSET ?"
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	books := make([]BookRow, 0)
	for rows.Next() {
		var b BookRow
		if err := rows.Scan(&b.ID, &b.Title, &b.Summary, &b.PageCount, &b.Quantity,
			&b.CoverImageURL, &b.Authors, &b.Genres); err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// GetByID loads a single catalog row. Returns ErrBookNotFound when the
// id does not exist.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (*BookRow, error) {
	q := bookSelect + " WHERE b.id = ? GROUP BY b.id"
	var b BookRow
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Title, &b.Summary,
		&b.PageCount, &b.Quantity, &b.CoverImageURL, &b.Authors, &b.Genres)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// EditView is the payload backing the book edit form: the book row plus
// the ids of its linked authors and genres.
type EditView struct {
	Book      BookRow  `json:"book"`
	AuthorIDs []uint64 `json:"author_ids"`
	GenreIDs  []uint64 `json:"genre_ids"`
}

// GetForEdit loads a book together with its linked author and genre
// ids.
func (r *BookRepo) GetForEdit(ctx context.Context, id uint64) (*EditView, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &EditView{Book: *b, AuthorIDs: []uint64{}, GenreIDs: []uint64{}}

	rows, err := r.db.QueryContext(ctx,
		"SELECT author_id FROM books_authors WHERE book_id = ? ORDER BY author_id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var aid uint64
		if err := rows.Scan(&aid); err != nil {
			return nil, err
		}
		view.AuthorIDs = append(view.AuthorIDs, aid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	grows, err := r.db.QueryContext(ctx,
		"SELECT genre_id FROM books_genres WHERE book_id = ? ORDER BY genre_id", id)
	if err != nil {
		return nil, err
	}
	defer grows.Close()
	for grows.Next() {
		var gid uint64
		if err := grows.Scan(&gid); err != nil {
			return nil, err
		}
		view.GenreIDs = append(view.GenreIDs, gid)
	}
	if err := grows.Err(); err != nil {
		return nil, err
	}
	return view, nil
}

// BookInput carries the writable fields of a book plus its link sets.
type BookInput struct {
	Title         string
	Summary       string
	PageCount     uint32
	Quantity      int32
	CoverImageURL *string
	AuthorIDs     []uint64
	GenreIDs      []uint64
}

// Create inserts a book and all of its author/genre links in one
// transaction and returns the new book id.
func (r *BookRepo) Create(ctx context.Context, in BookInput) (uint64, error) {
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

	res, err := tx.ExecContext(ctx,
		"INSERT INTO books (title, summary, page_count, quantity, cover_image_url) VALUES (?,?,?,?,?)",
		in.Title, in.Summary, in.PageCount, in.Quantity, in.CoverImageURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	bookID := uint64(id)
	if err := insertLinksTx(ctx, tx, "books_authors", "author_id", bookID, in.AuthorIDs); err != nil {
		return 0, err
	}
	if err := insertLinksTx(ctx, tx, "books_genres", "genre_id", bookID, in.GenreIDs); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return bookID, nil
}

// Update rewrites a book's fields and replaces both link sets inside
// one transaction. Returns ErrBookNotFound when the id does not exist.
func (r *BookRepo) Update(ctx context.Context, id uint64, in BookInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE books SET title=?, summary=?, page_count=?, quantity=?, cover_image_url=? WHERE id=?",
		in.Title, in.Summary, in.PageCount, in.Quantity, in.CoverImageURL, id)
	if err != nil {
		return err
	}
	// affectedRows is 0 both for a missing row and for a no-op update,
	// so existence is checked separately.
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM books WHERE id=?", id).Scan(&exists); err == sql.ErrNoRows {
			return ErrBookNotFound
		} else if err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM books_authors WHERE book_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM books_genres WHERE book_id=?", id); err != nil {
		return err
	}
	if err := insertLinksTx(ctx, tx, "books_authors", "author_id", id, in.AuthorIDs); err != nil {
		return err
	}
	if err := insertLinksTx(ctx, tx, "books_genres", "genre_id", id, in.GenreIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertLinksTx bulk-inserts link rows for a book in a single
// statement. Passing an empty id list has no effect.
func insertLinksTx(ctx context.Context, tx *sql.Tx, table, column string, bookID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := "INSERT INTO " + table + " (book_id, " + column + ") VALUES "
	args := make([]interface{}, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "(?, ?)"
		args = append(args, bookID, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// Delete removes a book unless it still has on_loan loans or active
// reservations, in which case ErrBookInUse is returned. A missing row
// yields ErrBookNotFound.
func (r *BookRepo) Delete(ctx context.Context, id uint64) error {
	var loans int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans l
JOIN loan_statuses ls ON l.status_id = ls.id
WHERE l.book_id = ? AND ls.name = 'on_loan'`, id).Scan(&loans)
	if err != nil {
		return err
	}
	var reservations int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE book_id = ?", id).Scan(&reservations); err != nil {
		return err
	}
	if loans > 0 || reservations > 0 {
		return ErrBookInUse
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// CountAll returns the number of books in the catalog.
func (r *BookRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n)
	return n, err
}
