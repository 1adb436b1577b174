package model

import "time"

// Review is a reader's rating and comment for a book. One review per
// (user, book) pair is enforced by a unique index; a violation surfaces
// as a conflict to the caller. Creating or editing a review requires a
// loan with status on_loan for that exact book.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – author of the review.
//  BookID     – reviewed book.
//  Rating     – star rating, 1 through 5.
//  Comment    – free-form text.
//  ReviewDate – date of creation or last edit.
type Review struct {
	ID         uint64    // reviews.id
	UserID     uint64    // reviews.user_id
	BookID     uint64    // reviews.book_id
	Rating     int       // reviews.rating
	Comment    string    // reviews.comment
	ReviewDate time.Time // reviews.review_date
}

// ActivityLog is an append-only audit row in `activity_logs`.
type ActivityLog struct {
	ID        uint64    // activity_logs.id
	UserID    uint64    // activity_logs.user_id
	Action    string    // activity_logs.action
	CreatedAt time.Time // activity_logs.created_at
}
