package repository

// The repository queries stay inside the SQL dialect both MySQL and
// SQLite understand (?, GROUP_CONCAT, LIMIT/OFFSET), which lets the
// suite run against an in-memory SQLite database with no server.

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE roles (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	role_id    INTEGER NOT NULL REFERENCES roles(id),
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE refresh_tokens (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	token_hash TEXT NOT NULL UNIQUE,
	expires_at DATETIME NOT NULL,
	revoked_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE books (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	title           TEXT NOT NULL,
	summary         TEXT NOT NULL DEFAULT '',
	page_count      INTEGER NOT NULL DEFAULT 0,
	quantity        INTEGER NOT NULL DEFAULT 0,
	cover_image_url TEXT,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE authors (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE genres (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE books_authors (
	book_id   INTEGER NOT NULL REFERENCES books(id),
	author_id INTEGER NOT NULL REFERENCES authors(id),
	UNIQUE(book_id, author_id)
);
CREATE TABLE books_genres (
	book_id  INTEGER NOT NULL REFERENCES books(id),
	genre_id INTEGER NOT NULL REFERENCES genres(id),
	UNIQUE(book_id, genre_id)
);
CREATE TABLE reservations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id        INTEGER NOT NULL REFERENCES users(id),
	book_id        INTEGER NOT NULL REFERENCES books(id),
	reserved_until DATETIME NOT NULL,
	UNIQUE(user_id, book_id)
);
CREATE TABLE loan_statuses (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE loans (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL REFERENCES users(id),
	book_id     INTEGER NOT NULL REFERENCES books(id),
	status_id   INTEGER NOT NULL REFERENCES loan_statuses(id),
	loan_date   DATETIME NOT NULL,
	return_date DATETIME NOT NULL
);
CREATE TABLE reviews (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL REFERENCES users(id),
	book_id     INTEGER NOT NULL REFERENCES books(id),
	rating      INTEGER NOT NULL,
	comment     TEXT NOT NULL DEFAULT '',
	review_date DATETIME NOT NULL,
	UNIQUE(user_id, book_id)
);
CREATE TABLE activity_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	action     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO roles (id, name) VALUES (1, 'reader'), (2, 'librarian');
INSERT INTO loan_statuses (id, name) VALUES (1, 'on_loan'), (2, 'returned');
`

func tempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, name, email string, roleID int) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO users (role_id, name, email, password) VALUES (?,?,?,?)",
		roleID, name, email, "x")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

func seedBook(t *testing.T, db *sql.DB, title string, quantity int) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO books (title, summary, page_count, quantity) VALUES (?,?,?,?)",
		title, "summary of "+title, 100, quantity)
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

func seedLoan(t *testing.T, db *sql.DB, userID, bookID uint64, status string) uint64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO loans (user_id, book_id, status_id, loan_date, return_date)
SELECT ?, ?, id, ?, ? FROM loan_statuses WHERE name = ?`,
		userID, bookID, now, now.AddDate(0, 0, 30), status)
	if err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

func testCtx() context.Context { return context.Background() }

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}
