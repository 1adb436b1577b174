package model

import "time"

// Book mirrors the `books` table. Quantity counts the copies the library
// owns that have not been flagged out by the availability checks; it is
// consulted before reserving or issuing but is not mutated by those
// operations (see the circulation repository).
//
// Fields:
//  ID            – primary key identifier.
//  Title         – book title.
//  Summary       – short annotation shown in the catalog.
//  PageCount     – number of pages.
//  Quantity      – available copy count, never negative.
//  CoverImageURL – optional cover image location.
type Book struct {
	ID            uint64    // books.id
	Title         string    // books.title
	Summary       string    // books.summary
	PageCount     uint32    // books.page_count
	Quantity      int32     // books.quantity
	CoverImageURL *string   // books.cover_image_url (nullable)
	CreatedAt     time.Time // books.created_at
}

// Author is a row in the `authors` table. Names are unique by
// convention only; the schema does not enforce it.
type Author struct {
	ID   uint64 // authors.id
	Name string // authors.name
}

// Genre is a row in the `genres` table.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name
}

// BookAuthor links a book to an author in the `books_authors` table.
// The pair is the whole row; there are no extra attributes.
type BookAuthor struct {
	BookID   uint64 // books_authors.book_id
	AuthorID uint64 // books_authors.author_id
}

// BookGenre links a book to a genre in the `books_genres` table.
type BookGenre struct {
	BookID  uint64 // books_genres.book_id
	GenreID uint64 // books_genres.genre_id
}
