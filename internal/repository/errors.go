// Package repository defines error values shared across repositories.
// Handlers translate these sentinels into the JSON error envelope and
// an HTTP status; nothing below the handler layer knows about HTTP.
package repository

import (
	"errors"
	"strings"
)

// ErrBookNotFound is returned when a referenced book row is absent.
var ErrBookNotFound = errors.New("book not found")

// ErrBookUnavailable is returned when an availability check finds
// quantity <= 0. Callers wrap it with the offending book ID.
var ErrBookUnavailable = errors.New("no copies available")

// ErrAlreadyReserved is returned when the reader already holds an
// active reservation for the same book.
var ErrAlreadyReserved = errors.New("book already reserved by this reader")

// ErrReservationNotFound is returned when a reservation does not exist
// or does not belong to the calling reader.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrLoanStatusMissing indicates a required loan_statuses row is absent.
// This is a deployment problem and maps to HTTP 500, not user error.
var ErrLoanStatusMissing = errors.New("loan status row missing")

// ErrRoleMissing indicates the roles table lacks a required role name.
var ErrRoleMissing = errors.New("role row missing")

// ErrNothingToIssue is returned when an issue request names no reader
// or carries neither book IDs nor reservation IDs.
var ErrNothingToIssue = errors.New("reader and at least one book or reservation required")

// ErrNotEligible is returned when a reader without an on_loan record
// for the book attempts to create or edit a review.
var ErrNotEligible = errors.New("reader has no active loan for this book")

// ErrAlreadyReviewed is returned when the one-review-per-book rule is
// violated on insert.
var ErrAlreadyReviewed = errors.New("book already reviewed by this reader")

// ErrReviewNotFound is returned when a review does not exist or is not
// owned by the caller.
var ErrReviewNotFound = errors.New("review not found")

// ErrEmailExists is returned when registration hits the unique email
// index.
var ErrEmailExists = errors.New("email already exists")

// ErrAuthorInUse / ErrGenreInUse / ErrBookInUse guard deletes while
// link tables or active circulation rows still reference the entity.
var (
	ErrAuthorInUse = errors.New("author is referenced by books")
	ErrGenreInUse  = errors.New("genre is referenced by books")
	ErrBookInUse   = errors.New("book is on loan or reserved")
)

// ErrAuthorNotFound / ErrGenreNotFound report absent taxonomy rows.
var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrGenreNotFound  = errors.New("genre not found")
)

// isDuplicate reports whether err is a unique key violation. MySQL
// surfaces error 1062 ("Duplicate entry"); SQLite, which backs the test
// schema, reports "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}
