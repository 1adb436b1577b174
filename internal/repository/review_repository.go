package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// ReviewRepo manages reader reviews. Eligibility is tied to currently
// holding the book: a reader may create or edit a review only while an
// on_loan row exists for that user and book. That window closing on
// return is the documented behavior, questionable as it looks.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// eligible reports whether the reader currently has the book out.
func (r *ReviewRepo) eligible(ctx context.Context, q rowQuerier, userID, bookID uint64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans l
JOIN loan_statuses ls ON l.status_id = ls.id
WHERE l.user_id = ? AND l.book_id = ? AND ls.name = 'on_loan'`, userID, bookID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CanReviewResult answers the review form's three questions at once.
type CanReviewResult struct {
	CanReview bool   `json:"canReview"`
	HasReview bool   `json:"hasReview"`
	ReviewID  uint64 `json:"reviewId,omitempty"`
}

// CanReview reports whether the reader may review the book and whether
// a prior review by the reader exists.
func (r *ReviewRepo) CanReview(ctx context.Context, userID, bookID uint64) (CanReviewResult, error) {
	var out CanReviewResult
	ok, err := r.eligible(ctx, r.db, userID, bookID)
	if err != nil {
		return out, err
	}
	out.CanReview = ok

	var reviewID uint64
	err = r.db.QueryRowContext(ctx,
		"SELECT id FROM reviews WHERE user_id = ? AND book_id = ? LIMIT 1",
		userID, bookID).Scan(&reviewID)
	if err == nil {
		out.HasReview = true
		out.ReviewID = reviewID
	} else if err != sql.ErrNoRows {
		return out, err
	}
	return out, nil
}

// ReviewRow is one review joined with its author's display name.
type ReviewRow struct {
	ID          uint64 `json:"id"`
	UserID      uint64 `json:"user_id"`
	UserName    string `json:"user_name"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	ReviewDate  string `json:"review_date"`
	IsOwnReview bool   `json:"is_own_review"`
}

// ReviewSummary is the whole review block of a book page: rows newest
// first plus aggregates computed over all of them.
type ReviewSummary struct {
	Reviews            []ReviewRow `json:"reviews"`
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int         `json:"totalReviews"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// ListForBook returns the book's reviews with aggregates. viewerID
// flags the viewer's own review; pass 0 for anonymous visitors. The
// average is the arithmetic mean rounded to one decimal, 0.0 with no
// reviews.
func (r *ReviewRepo) ListForBook(ctx context.Context, bookID, viewerID uint64) (*ReviewSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rv.id, rv.user_id, u.name, rv.rating, rv.comment, rv.review_date
FROM reviews rv
JOIN users u ON rv.user_id = u.id
WHERE rv.book_id = ?
ORDER BY rv.review_date DESC, rv.id DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum := &ReviewSummary{
		Reviews:            []ReviewRow{},
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	ratingTotal := 0
	for rows.Next() {
		var rv ReviewRow
		var at time.Time
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &at); err != nil {
			return nil, err
		}
		rv.ReviewDate = at.Format("02.01.2006")
		rv.IsOwnReview = viewerID != 0 && rv.UserID == viewerID
		if rv.Rating >= 1 && rv.Rating <= 5 {
			sum.RatingDistribution[rv.Rating]++
		}
		ratingTotal += rv.Rating
		sum.Reviews = append(sum.Reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sum.TotalReviews = len(sum.Reviews)
	if sum.TotalReviews > 0 {
		mean := float64(ratingTotal) / float64(sum.TotalReviews)
		sum.AverageRating = math.Round(mean*10) / 10
	}
	return sum, nil
}

// Upsert creates or updates the reader's review. Without an on_loan
// row for the book it fails with ErrNotEligible. When reviewID is
// non-zero the update is scoped to (id, user_id), so a foreign id
// touches nothing. A new review and its activity log entry are
// inserted in one transaction; the unique (user, book) index maps to
// ErrAlreadyReviewed. Returns the review id.
func (r *ReviewRepo) Upsert(ctx context.Context, userID, bookID uint64, rating int, comment string, reviewID uint64) (uint64, error) {
	ok, err := r.eligible(ctx, r.db, userID, bookID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotEligible
	}

	now := time.Now().UTC()
	if reviewID != 0 {
		_, err := r.db.ExecContext(ctx,
			"UPDATE reviews SET rating = ?, comment = ?, review_date = ? WHERE id = ? AND user_id = ?",
			rating, comment, now, reviewID, userID)
		if err != nil {
			return 0, err
		}
		return reviewID, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (user_id, book_id, rating, comment, review_date) VALUES (?,?,?,?,?)",
		userID, bookID, rating, comment, now)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrAlreadyReviewed
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO activity_logs (user_id, action) VALUES (?, ?)",
		userID, fmt.Sprintf("reviewed book %d", bookID)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// Delete removes a review owned by userID. Returns ErrReviewNotFound
// when no review with that id belongs to the user.
func (r *ReviewRepo) Delete(ctx context.Context, reviewID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM reviews WHERE id = ? AND user_id = ?", reviewID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
}
