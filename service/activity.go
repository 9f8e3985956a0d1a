package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	ActivityFinished = "finished"
	ActivityAdded    = "added"
	ActivityRated    = "rated"

	activitySourceLimit = 20
	activityFeedLimit   = 5
)

type ActivityStore interface {
	RecentShelfEntries(ctx context.Context, limit int) ([]models.ShelfEntry, error)
	RecentApprovedReviews(ctx context.Context, limit int) ([]models.Review, error)
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error)
}

type Activity struct {
	Type      string             `json:"type"`
	UserName  string             `json:"userName"`
	BookTitle string             `json:"bookTitle"`
	BookID    primitive.ObjectID `json:"bookId"`
	Shelf     string             `json:"shelf,omitempty"`
	Rating    int                `json:"rating,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Message   string             `json:"message"`
}

type ActivityFeed struct {
	store ActivityStore
}

func NewActivityFeed(store ActivityStore) *ActivityFeed {
	return &ActivityFeed{store: store}
}

// Recent merges the latest shelf moves and approved reviews, newest first.
func (f *ActivityFeed) Recent(ctx context.Context) ([]Activity, error) {
	var (
		shelves []models.ShelfEntry
		reviews []models.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shelves, err = f.store.RecentShelfEntries(gctx, activitySourceLimit)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = f.store.RecentApprovedReviews(gctx, activitySourceLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userIDs := uniqueIDs(len(shelves) + len(reviews))
	bookIDs := uniqueIDs(len(shelves) + len(reviews))
	for _, s := range shelves {
		userIDs.add(s.UserID)
		bookIDs.add(s.BookID)
	}
	for _, r := range reviews {
		userIDs.add(r.UserID)
		bookIDs.add(r.BookID)
	}

	var (
		users []models.User
		books []models.Book
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = f.store.UsersByIDs(gctx, userIDs.ids)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = f.store.BooksByIDs(gctx, bookIDs.ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	titles := make(map[primitive.ObjectID]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
	}
	lookup := func(m map[primitive.ObjectID]string, id primitive.ObjectID, fallback string) string {
		if v, ok := m[id]; ok {
			return v
		}
		return fallback
	}

	out := make([]Activity, 0, len(shelves)+len(reviews))
	for _, s := range shelves {
		user := lookup(names, s.UserID, "Unknown User")
		title := lookup(titles, s.BookID, "Unknown Book")
		if s.Shelf == models.ShelfRead && s.DateFinished != nil {
			out = append(out, Activity{
				Type: ActivityFinished, UserName: user, BookTitle: title, BookID: s.BookID,
				Timestamp: *s.DateFinished,
				Message:   fmt.Sprintf("%s finished reading %s", user, title),
			})
			continue
		}
		if s.DateAdded.IsZero() {
			continue
		}
		out = append(out, Activity{
			Type: ActivityAdded, UserName: user, BookTitle: title, BookID: s.BookID,
			Shelf:     s.Shelf,
			Timestamp: s.DateAdded,
			Message:   fmt.Sprintf("%s added %s to %s shelf", user, title, s.Shelf),
		})
	}
	for _, r := range reviews {
		if r.CreatedAt.IsZero() {
			continue
		}
		user := lookup(names, r.UserID, "Unknown User")
		title := lookup(titles, r.BookID, "Unknown Book")
		out = append(out, Activity{
			Type: ActivityRated, UserName: user, BookTitle: title, BookID: r.BookID,
			Rating:    r.Rating,
			Timestamp: r.CreatedAt,
			Message:   fmt.Sprintf("%s rated %s %d stars", user, title, r.Rating),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > activityFeedLimit {
		out = out[:activityFeedLimit]
	}
	return out, nil
}

type idSet struct {
	seen map[primitive.ObjectID]struct{}
	ids  []primitive.ObjectID
}

func uniqueIDs(capacity int) *idSet {
	return &idSet{seen: make(map[primitive.ObjectID]struct{}, capacity)}
}

func (s *idSet) add(id primitive.ObjectID) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}
