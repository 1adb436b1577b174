// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and the background consumer.
const (
	LoanIssuedQueue    = "loan.issued"
	ReviewCreatedQueue = "review.created"
)

// LoanIssuedEvent is published after a librarian hands out a batch of
// books. It carries enough detail for downstream consumers to log or
// notify without querying the primary database.
type LoanIssuedEvent struct {
	ReaderID    uint64   `json:"reader_id"`
	LibrarianID uint64   `json:"librarian_id"`
	BookIDs     []uint64 `json:"book_ids"`
	Count       int      `json:"count"`
	DueDate     string   `json:"due_date"`
	IssuedAt    string   `json:"issued_at"`
}

// ReviewCreatedEvent is published when a reader leaves a new review.
type ReviewCreatedEvent struct {
	ReviewID  uint64 `json:"review_id"`
	UserID    uint64 `json:"user_id"`
	BookID    uint64 `json:"book_id"`
	Rating    int    `json:"rating"`
	CreatedAt string `json:"created_at"`
}
