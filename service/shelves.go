package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidProgress is returned for progress outside [0,100].
var ErrInvalidProgress = errors.New("progress must be between 0 and 100")

type ShelfStore interface {
	ShelfEntry(ctx context.Context, userID, bookID primitive.ObjectID) (*models.ShelfEntry, error)
	SaveShelfEntry(ctx context.Context, e *models.ShelfEntry) error
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

type Shelves struct {
	store ShelfStore
	now   func() time.Time
}

func NewShelves(store ShelfStore) *Shelves {
	return &Shelves{store: store, now: time.Now}
}

// PlaceOnShelf applies a shelf move to an entry. A nil entry starts a new one
// at progress 0. dateStarted and dateFinished are stamped on the first move
// into Currently Reading and Read respectively and never overwritten.
func PlaceOnShelf(e *models.ShelfEntry, userID, bookID primitive.ObjectID, shelf string, now time.Time) (*models.ShelfEntry, bool) {
	created := e == nil
	if created {
		e = &models.ShelfEntry{UserID: userID, BookID: bookID, DateAdded: now}
	} else {
		cp := *e
		e = &cp
	}
	e.Shelf = shelf
	if shelf == models.ShelfCurrentlyReading && e.DateStarted == nil {
		t := now
		e.DateStarted = &t
	}
	if shelf == models.ShelfRead && e.DateFinished == nil {
		t := now
		e.DateFinished = &t
	}
	return e, created
}

// SetProgress records progress; 100 moves the entry to Read.
func SetProgress(e *models.ShelfEntry, progress int, now time.Time) (*models.ShelfEntry, bool, error) {
	if progress < 0 || progress > 100 {
		return nil, false, ErrInvalidProgress
	}
	cp := *e
	cp.Progress = progress
	if progress < 100 {
		return &cp, false, nil
	}
	cp.Shelf = models.ShelfRead
	if cp.DateFinished == nil {
		t := now
		cp.DateFinished = &t
	}
	return &cp, true, nil
}

// Add puts a book on one of the user's shelves. created reports whether the
// entry is new. An unknown book returns store.ErrNotFound.
func (s *Shelves) Add(ctx context.Context, userID, bookID primitive.ObjectID, shelf string) (entry *models.ShelfEntry, created bool, err error) {
	if _, err := s.store.BookByID(ctx, bookID); err != nil {
		return nil, false, err
	}
	existing, err := s.store.ShelfEntry(ctx, userID, bookID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	entry, created = PlaceOnShelf(existing, userID, bookID, shelf, s.now())
	if err := s.store.SaveShelfEntry(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("save shelf entry: %w", err)
	}
	return entry, created, nil
}

// UpdateProgress returns store.ErrNotFound when the book isn't shelved and
// ErrInvalidProgress for out-of-range values.
func (s *Shelves) UpdateProgress(ctx context.Context, userID, bookID primitive.ObjectID, progress int) (*models.ShelfEntry, bool, error) {
	if progress < 0 || progress > 100 {
		return nil, false, ErrInvalidProgress
	}
	existing, err := s.store.ShelfEntry(ctx, userID, bookID)
	if err != nil {
		return nil, false, err
	}
	entry, moved, err := SetProgress(existing, progress, s.now())
	if err != nil {
		return nil, false, err
	}
	if err := s.store.SaveShelfEntry(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("save shelf entry: %w", err)
	}
	return entry, moved, nil
}
