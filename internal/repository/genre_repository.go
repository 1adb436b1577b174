package repository

import (
	"context"
	"database/sql"

	"github.com/dkruglov/library-service/internal/model"
)

// GenreRepo manages rows of the genres table. It mirrors AuthorRepo;
// the two stay separate because the underlying link tables differ and
// the catalog treats the taxonomies independently.
type GenreRepo struct {
	db *sql.DB
}

// NewGenreRepo returns a new GenreRepo bound to the given database.
func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{db: db} }

// List returns one page of genres filtered by an optional name search,
// plus the total match count, ordered by name.
func (r *GenreRepo) List(ctx context.Context, search string, page, limit int) ([]model.Genre, int, error) {
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
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM genres"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT id, name FROM genres" + where + " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	genres := make([]model.Genre, 0)
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, 0, err
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return genres, total, nil
}

// Names returns up to ten genre names matching the query, for
// autocomplete fields.
func (r *GenreRepo) Names(ctx context.Context, q string) ([]string, error) {
	query := "SELECT DISTINCT name FROM genres"
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

// Create inserts a genre and returns its id.
func (r *GenreRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Rename updates a genre's name. Returns ErrGenreNotFound when no row
// matches the id.
func (r *GenreRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE genres SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGenreNotFound
	}
	return nil
}

// Delete removes a genre unless books still reference it.
func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	var linked int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books_genres WHERE genre_id = ?", id).Scan(&linked); err != nil {
		return err
	}
	if linked > 0 {
		return ErrGenreInUse
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM genres WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGenreNotFound
	}
	return nil
}

// CountAll returns the number of genres.
func (r *GenreRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM genres").Scan(&n)
	return n, err
}
