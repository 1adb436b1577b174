package repository

import (
	"errors"
	"strings"
	"testing"
)

func TestBookCreateWithLinks(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)
	authors := NewAuthorRepo(db)
	genres := NewGenreRepo(db)

	herbert, err := authors.Create(testCtx(), "Frank Herbert")
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	scifi, err := genres.Create(testCtx(), "Science Fiction")
	if err != nil {
		t.Fatalf("create genre: %v", err)
	}

	id, err := books.Create(testCtx(), BookInput{
		Title:     "Dune",
		Summary:   "Spice and sand.",
		PageCount: 412,
		Quantity:  3,
		AuthorIDs: []uint64{herbert},
		GenreIDs:  []uint64{scifi},
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}

	got, err := books.GetByID(testCtx(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Dune" || got.Quantity != 3 {
		t.Fatalf("unexpected book: %+v", got)
	}
	if !strings.Contains(got.Authors, "Frank Herbert") {
		t.Fatalf("authors not aggregated: %q", got.Authors)
	}
	if !strings.Contains(got.Genres, "Science Fiction") {
		t.Fatalf("genres not aggregated: %q", got.Genres)
	}
}

func TestBookGetMissing(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)

	if _, err := books.GetByID(testCtx(), 404); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("want ErrBookNotFound, got %v", err)
	}
}

func TestBookListFilters(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)
	authors := NewAuthorRepo(db)
	genres := NewGenreRepo(db)

	herbert, _ := authors.Create(testCtx(), "Frank Herbert")
	lem, _ := authors.Create(testCtx(), "Stanislaw Lem")
	scifi, _ := genres.Create(testCtx(), "Science Fiction")

	mustCreate := func(title string, qty int32, author uint64) {
		t.Helper()
		if _, err := books.Create(testCtx(), BookInput{
			Title: title, Quantity: qty,
			AuthorIDs: []uint64{author}, GenreIDs: []uint64{scifi},
		}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	mustCreate("Dune", 2, herbert)
	mustCreate("Dune Messiah", 0, herbert)
	mustCreate("Solaris", 1, lem)

	byTitle, total, err := books.List(testCtx(), BookFilter{Title: "Dune"})
	if err != nil {
		t.Fatalf("title filter: %v", err)
	}
	if total != 2 || len(byTitle) != 2 {
		t.Fatalf("title filter: want 2, got total=%d len=%d", total, len(byTitle))
	}

	byAuthor, total, err := books.List(testCtx(), BookFilter{Author: "Lem"})
	if err != nil {
		t.Fatalf("author filter: %v", err)
	}
	if total != 1 || byAuthor[0].Title != "Solaris" {
		t.Fatalf("author filter failed: total=%d", total)
	}

	available, total, err := books.List(testCtx(), BookFilter{Title: "Dune", AvailableOnly: true})
	if err != nil {
		t.Fatalf("available filter: %v", err)
	}
	if total != 1 || available[0].Title != "Dune" {
		t.Fatalf("available filter failed: total=%d", total)
	}
}

func TestBookListPagination(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)
	authors := NewAuthorRepo(db)
	genres := NewGenreRepo(db)
	a, _ := authors.Create(testCtx(), "Author")
	g, _ := genres.Create(testCtx(), "Genre")

	titles := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}
	for _, title := range titles {
		if _, err := books.Create(testCtx(), BookInput{
			Title: title, Quantity: 1, AuthorIDs: []uint64{a}, GenreIDs: []uint64{g},
		}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	page1, total, err := books.List(testCtx(), BookFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 5 || len(page1) != 2 {
		t.Fatalf("page 1: total=%d len=%d", total, len(page1))
	}
	page3, _, err := books.List(testCtx(), BookFilter{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page 3: want 1 row, got %d", len(page3))
	}
	// Ordered by title: page 1 starts at Alpha, Beta.
	if page1[0].Title != "Alpha" || page1[1].Title != "Beta" {
		t.Fatalf("unexpected order: %q, %q", page1[0].Title, page1[1].Title)
	}
}

func TestBookUpdateReplacesLinks(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)
	authors := NewAuthorRepo(db)
	genres := NewGenreRepo(db)

	herbert, _ := authors.Create(testCtx(), "Frank Herbert")
	lem, _ := authors.Create(testCtx(), "Stanislaw Lem")
	scifi, _ := genres.Create(testCtx(), "Science Fiction")

	id, err := books.Create(testCtx(), BookInput{
		Title: "Dune", Quantity: 1,
		AuthorIDs: []uint64{herbert}, GenreIDs: []uint64{scifi},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := books.Update(testCtx(), id, BookInput{
		Title: "Solaris", Quantity: 4,
		AuthorIDs: []uint64{lem}, GenreIDs: []uint64{scifi},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	view, err := books.GetForEdit(testCtx(), id)
	if err != nil {
		t.Fatalf("get for edit: %v", err)
	}
	if view.Book.Title != "Solaris" || view.Book.Quantity != 4 {
		t.Fatalf("unexpected book after update: %+v", view.Book)
	}
	if len(view.AuthorIDs) != 1 || view.AuthorIDs[0] != lem {
		t.Fatalf("author links not replaced: %v", view.AuthorIDs)
	}
}

func TestBookUpdateMissing(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)

	err := books.Update(testCtx(), 404, BookInput{Title: "Ghost", AuthorIDs: []uint64{1}, GenreIDs: []uint64{1}})
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("want ErrBookNotFound, got %v", err)
	}
}

func TestBookDeleteGuards(t *testing.T) {
	db := tempDB(t)
	books := NewBookRepo(db)
	reservations := NewReservationRepo(db)
	reader := seedUser(t, db, "Alice", "alice@example.com", 1)

	onLoan := seedBook(t, db, "Out", 1)
	seedLoan(t, db, reader, onLoan, "on_loan")
	if err := books.Delete(testCtx(), onLoan); !errors.Is(err, ErrBookInUse) {
		t.Fatalf("loaned book: want ErrBookInUse, got %v", err)
	}

	reserved := seedBook(t, db, "Held", 1)
	if _, err := reservations.Reserve(testCtx(), reader, reserved, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := books.Delete(testCtx(), reserved); !errors.Is(err, ErrBookInUse) {
		t.Fatalf("reserved book: want ErrBookInUse, got %v", err)
	}

	// A returned loan no longer blocks deletion.
	done := seedBook(t, db, "Done", 1)
	seedLoan(t, db, reader, done, "returned")
	if err := books.Delete(testCtx(), done); err != nil {
		t.Fatalf("delete returned book: %v", err)
	}
	if err := books.Delete(testCtx(), done); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("second delete: want ErrBookNotFound, got %v", err)
	}
}
