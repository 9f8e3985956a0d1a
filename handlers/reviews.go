package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/bookworm/middleware"
	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/service"
	"github.com/kevinaaaquil/bookworm/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewQueries is the read and delete side of reviews; writes go through
// service.Reviews.
type ReviewQueries interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ReviewExists(ctx context.Context, userID, bookID primitive.ObjectID) (bool, error)
	ApprovedReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
	PendingReviewsCount(ctx context.Context) (int64, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
}

type ReviewsHandler struct {
	DB      ReviewQueries
	Reviews *service.Reviews
}

type AddReviewRequest struct {
	BookID string `json:"bookId" validate:"required,objectid"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Text   string `json:"text" validate:"required,max=5000"`
}

const msgDuplicateReview = "You have already submitted a review for this book."

// Add stores a Pending review by the caller.
func (h *ReviewsHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req AddReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	review := &models.Review{
		BookID:   validatedID(req.BookID),
		UserID:   userID,
		UserName: claims.Name,
		Rating:   req.Rating,
		Text:     strings.TrimSpace(req.Text),
	}
	if u, err := h.DB.UserByID(r.Context(), userID); err == nil {
		review.UserName = u.Name
		review.UserPhoto = u.Photo
	}
	if err := h.Reviews.Add(r.Context(), review); err != nil {
		storeError(w, r, err, "Book not found", msgDuplicateReview)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": "Added Successfully!", "id": review.ID})
}

func (h *ReviewsHandler) CheckReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookID, ok := parseObjectID(w, r.URL.Query().Get("bookId"), "Missing or invalid bookId")
	if !ok {
		return
	}
	exists, err := h.DB.ReviewExists(r.Context(), userID, bookID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasReviewed": exists})
}

// ForBook returns a book's approved reviews, newest first.
func (h *ReviewsHandler) ForBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := objectIDParam(w, r, "id", "Invalid book ID")
	if !ok {
		return
	}
	reviews, err := h.DB.ApprovedReviewsForBook(r.Context(), bookID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeReviews(w, reviews)
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.DB.ListReviews(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeReviews(w, reviews)
}

// PendingCount serves number-of-reviews, the moderation backlog size.
func (h *ReviewsHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.DB.PendingReviewsCount(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *ReviewsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid review ID")
	if !ok {
		return
	}
	if _, err := h.Reviews.Approve(r.Context(), id); err != nil {
		storeError(w, r, err, "Review not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Review approved successfully!")
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid review ID")
	if !ok {
		return
	}
	err := h.DB.DeleteReview(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Review deleted successfully!")
}

func writeReviews(w http.ResponseWriter, reviews []models.Review) {
	if reviews == nil {
		reviews = []models.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}
