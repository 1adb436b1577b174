package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dkruglov/library-service/internal/model"
	"github.com/dkruglov/library-service/internal/utils"
)

// UserRepo persists accounts. Registration always assigns the reader
// role; librarian accounts are provisioned directly in the database.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password, resolves the reader role id and inserts
// the user, returning its ID. A duplicate email maps to ErrEmailExists;
// a missing reader role row maps to ErrRoleMissing.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var roleID uint8
	err = r.DB.QueryRowContext(ctx,
		"SELECT id FROM roles WHERE name = ? LIMIT 1", model.RoleReader.String()).Scan(&roleID)
	if err == sql.ErrNoRows {
		return 0, ErrRoleMissing
	}
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (role_id, name, email, password) VALUES (?,?,?,?)",
		roleID, name, email, hash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user with its role name by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.email, u.password, u.role_id, r.name
FROM users u JOIN roles r ON u.role_id = r.id
WHERE u.email = ? LIMIT 1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName)
	return u, err
}

// GetByID fetches a user with its role name by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.email, u.password, u.role_id, r.name
FROM users u JOIN roles r ON u.role_id = r.id
WHERE u.id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName)
	return u, err
}

// ReaderRow is a search hit for the librarian's reader picker.
type ReaderRow struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SearchReaders returns up to ten reader accounts whose name or email
// matches q, ordered by name. An empty q lists the first ten readers.
func (r *UserRepo) SearchReaders(ctx context.Context, q string) ([]ReaderRow, error) {
	query := `SELECT u.id, u.name, u.email
FROM users u JOIN roles r ON u.role_id = r.id
WHERE r.name = ?`
	args := []interface{}{model.RoleReader.String()}
	if q != "" {
		query += " AND (u.name LIKE ? OR u.email LIKE ?)"
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	query += " ORDER BY u.name LIMIT 10"
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	readers := make([]ReaderRow, 0, 10)
	for rows.Next() {
		var rr ReaderRow
		if err := rows.Scan(&rr.ID, &rr.Name, &rr.Email); err != nil {
			return nil, err
		}
		readers = append(readers, rr)
	}
	return readers, rows.Err()
}
