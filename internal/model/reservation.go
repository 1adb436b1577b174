package model

import "time"

// Reservation is a time-boxed hold on one copy of a book for one
// reader. A reservation ends in one of three ways: the reader cancels
// it, a librarian converts it into a loan, or it silently expires past
// ReservedUntil (expiry is recorded but not enforced).
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – reader holding the reservation.
//  BookID        – book being held.
//  ReservedUntil – end of the hold window.
type Reservation struct {
	ID            uint64    // reservations.id
	UserID        uint64    // reservations.user_id
	BookID        uint64    // reservations.book_id
	ReservedUntil time.Time // reservations.reserved_until
}

// Loan records a book checked out to a reader. Status moves from
// on_loan to returned and never back; rows are never deleted.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – reader the book was issued to.
//  BookID     – issued book.
//  StatusID   – foreign key into loan_statuses.
//  LoanDate   – when the book was issued.
//  ReturnDate – due date (not the actual return time).
type Loan struct {
	ID         uint64    // loans.id
	UserID     uint64    // loans.user_id
	BookID     uint64    // loans.book_id
	StatusID   uint8     // loans.status_id (references loan_statuses.id)
	LoanDate   time.Time // loans.loan_date
	ReturnDate time.Time // loans.return_date
}

// Loan status names resolved through the loan_statuses lookup table.
// A missing row for either name is a deployment error, not user input.
const (
	LoanStatusOnLoan   = "on_loan"
	LoanStatusReturned = "returned"
)
