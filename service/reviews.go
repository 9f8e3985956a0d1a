package service

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookworm/logging"
	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewStore interface {
	ReviewExists(ctx context.Context, userID, bookID primitive.ObjectID) (bool, error)
	InsertReview(ctx context.Context, r *models.Review) (primitive.ObjectID, error)
	ApproveReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

// ReviewNotifier tells a reviewer their review went live.
type ReviewNotifier interface {
	ReviewApproved(ctx context.Context, to *models.User, book *models.Book, review *models.Review) error
}

type Reviews struct {
	store    ReviewStore
	notifier ReviewNotifier
	now      func() time.Time
}

// NewReviews accepts a nil notifier.
func NewReviews(store ReviewStore, notifier ReviewNotifier) *Reviews {
	return &Reviews{store: store, notifier: notifier, now: time.Now}
}

// Add stores r as Pending. A second review by the same user for the same
// book returns store.ErrDuplicate, whether caught by the pre-check or by the
// unique index. An unknown book returns store.ErrNotFound.
func (s *Reviews) Add(ctx context.Context, r *models.Review) error {
	if _, err := s.store.BookByID(ctx, r.BookID); err != nil {
		return err
	}
	exists, err := s.store.ReviewExists(ctx, r.UserID, r.BookID)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrDuplicate
	}
	r.Status = models.ReviewPending
	r.CreatedAt = s.now()
	id, err := s.store.InsertReview(ctx, r)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// Approve publishes a review. Notification failures are logged, not returned.
func (s *Reviews) Approve(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	r, err := s.store.ApproveReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier == nil {
		return r, nil
	}
	user, err := s.store.UserByID(ctx, r.UserID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("review", id.Hex()).Msg("reviewer lookup failed")
		return r, nil
	}
	book, err := s.store.BookByID(ctx, r.BookID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("review", id.Hex()).Msg("book lookup failed")
		return r, nil
	}
	if err := s.notifier.ReviewApproved(ctx, user, book, r); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("review", id.Hex()).Msg("approval notification failed")
	}
	return r, nil
}
