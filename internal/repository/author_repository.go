package repository

import (
	"context"
	"database/sql"

	"github.com/dkruglov/library-service/internal/model"
)

// AuthorRepo manages rows of the authors table. Deleting an author that
// still has linked books is refused so the catalog never shows a book
// with a dangling author id.
type AuthorRepo struct {
	db *sql.DB
}

// NewAuthorRepo returns a new AuthorRepo bound to the given database.
func NewAuthorRepo(db *sql.DB) *AuthorRepo { return &AuthorRepo{db: db} }

// List returns one page of authors filtered by an optional name search,
// plus the total match count, ordered by name.
func (r *AuthorRepo) List(ctx context.Context, search string, page, limit int) ([]model.Author, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	where := ""
	args := []interface{}{}
	if search != "" {
		where = " WHERE name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM authors"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT id, name FROM authors" + where + " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	authors := make([]model.Author, 0)
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, 0, err
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

// Names returns up to ten author names matching the prefix query, for
// autocomplete fields.
func (r *AuthorRepo) Names(ctx context.Context, q string) ([]string, error) {
	query := "SELECT DISTINCT name FROM authors"
	args := []interface{}{}
	if q != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+q+"%")
	}
	query += " ORDER BY name LIMIT 10"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make([]string, 0, 10)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Create inserts an author and returns its id.
func (r *AuthorRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO authors (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Rename updates an author's name. Returns ErrAuthorNotFound when no
// row matches the id.
func (r *AuthorRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE authors SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// Delete removes an author unless books still reference it.
func (r *AuthorRepo) Delete(ctx context.Context, id uint64) error {
	var linked int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books_authors WHERE author_id = ?", id).Scan(&linked); err != nil {
		return err
	}
	if linked > 0 {
		return ErrAuthorInUse
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM authors WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// CountAll returns the number of authors.
func (r *AuthorRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM authors").Scan(&n)
	return n, err
}
