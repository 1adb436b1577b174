package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkruglov/library-service/internal/middleware"
	"github.com/dkruglov/library-service/internal/queue"
	"github.com/dkruglov/library-service/internal/repository"
	queue_publisher "github.com/dkruglov/library-service/internal/service"
)

// ReviewHandler serves reader reviews. Eligibility is tied to holding
// the book: only a reader with the book currently out may write one.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(rv *repository.ReviewRepo) *ReviewHandler {
	if rv == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: rv}
}

// ListForBook handles GET /v1/books/:id/reviews, the public review
// feed with aggregates. Ownership flags are only meaningful for
// authenticated callers; anonymous readers get them as false.
func (h *ReviewHandler) ListForBook(c echo.Context) error {
	bookID, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}
	var viewerID uint64
	if sess, ok := middleware.SessionFrom(c); ok {
		viewerID = sess.UserID
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	summary, err := h.Reviews.ListForBook(ctx, bookID, viewerID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list reviews failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "reviews": summary})
}

// Eligibility handles GET /v1/books/:id/reviews/eligibility, telling
// the client whether to render the review form and whether it should
// prefill an existing review.
func (h *ReviewHandler) Eligibility(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}
	bookID, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Reviews.CanReview(ctx, sess.UserID, bookID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "eligibility check failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "eligibility": res})
}

type reviewReq struct {
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	ReviewID uint64 `json:"review_id"`
}

// Upsert handles POST /v1/books/:id/reviews. With review_id set it
// updates the caller's existing review, otherwise it inserts a new one.
func (h *ReviewHandler) Upsert(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}
	bookID, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid book id")
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fail(c, http.StatusBadRequest, "rating must be between 1 and 5")
	}
	req.Comment = strings.TrimSpace(req.Comment)

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Reviews.Upsert(ctx, sess.UserID, bookID, req.Rating, req.Comment, req.ReviewID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotEligible):
			return fail(c, http.StatusForbidden, "you must have this book on loan to review it")
		case errors.Is(err, repository.ErrAlreadyReviewed):
			return fail(c, http.StatusConflict, "you already reviewed this book")
		}
		return fail(c, http.StatusInternalServerError, "save review failed")
	}

	if req.ReviewID == 0 {
		go func(ev queue.ReviewCreatedEvent) {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pubCancel()
			_ = queue_publisher.PublishReviewCreated(pubCtx, ev)
		}(queue.ReviewCreatedEvent{
			ReviewID:  id,
			UserID:    sess.UserID,
			BookID:    bookID,
			Rating:    req.Rating,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	status := http.StatusOK
	if req.ReviewID == 0 {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"success": true, "id": id})
}

// Delete handles DELETE /v1/reviews/:id, scoped to the caller's own
// review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	sess, errResp := sessionOr401(c)
	if errResp != nil {
		return errResp
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid review id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Reviews.Delete(ctx, id, sess.UserID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return fail(c, http.StatusNotFound, "review not found")
		}
		return fail(c, http.StatusInternalServerError, "delete review failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "review deleted"})
}
