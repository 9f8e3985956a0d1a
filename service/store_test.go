package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for *store.DB covering every store
// interface the services depend on.
type memStore struct {
	mu      sync.Mutex
	books   []models.Book
	users   []models.User
	reviews []models.Review
	shelves []models.ShelfEntry
	nextID  byte
}

// oid builds ids whose hex order follows n.
func oid(n byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[0] = 0x65
	id[11] = n
	return id
}

func (m *memStore) addBook(n byte, title, genre string) models.Book {
	b := models.Book{ID: oid(n), Title: title, Author: "Author " + title, Genre: genre}
	m.books = append(m.books, b)
	sort.Slice(m.books, func(i, j int) bool { return m.books[i].ID.Hex() < m.books[j].ID.Hex() })
	return b
}

func (m *memStore) shelve(user, book primitive.ObjectID, shelf string) {
	m.shelves = append(m.shelves, models.ShelfEntry{UserID: user, BookID: book, Shelf: shelf, DateAdded: time.Now()})
}

func (m *memStore) review(user, book primitive.ObjectID, rating int, status string) {
	m.reviews = append(m.reviews, models.Review{
		ID: primitive.NewObjectID(), UserID: user, BookID: book, Rating: rating, Status: status, CreatedAt: time.Now(),
	})
}

func idIn(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (m *memStore) RatingStats(_ context.Context, ids []primitive.ObjectID, minRating float64) (map[primitive.ObjectID]models.RatingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := map[primitive.ObjectID]int{}
	out := map[primitive.ObjectID]models.RatingStats{}
	for _, r := range m.reviews {
		if r.Status != models.ReviewApproved || !idIn(ids, r.BookID) {
			continue
		}
		if minRating > 0 && float64(r.Rating) < minRating {
			continue
		}
		sums[r.BookID] += r.Rating
		s := out[r.BookID]
		s.BookID = r.BookID
		s.ReviewCount++
		s.AvgRating = float64(sums[r.BookID]) / float64(s.ReviewCount)
		out[r.BookID] = s
	}
	return out, nil
}

func (m *memStore) ShelfCounts(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]int{}
	for _, e := range m.shelves {
		if idIn(ids, e.BookID) {
			out[e.BookID]++
		}
	}
	return out, nil
}

func (m *memStore) UserShelfEntries(_ context.Context, userID primitive.ObjectID, shelf string) ([]models.ShelfEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ShelfEntry
	for _, e := range m.shelves {
		if e.UserID == userID && (shelf == "" || e.Shelf == shelf) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) BooksByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	var out []models.Book
	for _, b := range m.books {
		if idIn(ids, b.ID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) BooksInGenres(_ context.Context, genres []string, exclude []primitive.ObjectID) ([]models.Book, error) {
	var out []models.Book
	for _, b := range m.books {
		for _, g := range genres {
			if b.Genre == g && !idIn(exclude, b.ID) {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) BooksExcluding(_ context.Context, exclude []primitive.ObjectID, limit int) ([]models.Book, error) {
	var out []models.Book
	for _, b := range m.books {
		if !idIn(exclude, b.ID) {
			out = append(out, b)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) UserAverageRating(_ context.Context, userID primitive.ObjectID) (float64, bool, error) {
	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.UserID == userID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(n), true, nil
}

func (m *memStore) matching(f store.BookFilter) []models.Book {
	var out []models.Book
	search := strings.ToLower(f.Search)
	for _, b := range m.books {
		if search != "" && !strings.Contains(strings.ToLower(b.Title), search) && !strings.Contains(strings.ToLower(b.Author), search) {
			continue
		}
		if len(f.Genres) > 0 {
			found := false
			for _, g := range f.Genres {
				found = found || g == b.Genre
			}
			if !found {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func (m *memStore) FilterBooks(_ context.Context, f store.BookFilter, skip, limit int) ([]models.Book, error) {
	all := m.matching(f)
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) CountBooks(_ context.Context, f store.BookFilter) (int64, error) {
	return int64(len(m.matching(f))), nil
}

func (m *memStore) ShelfEntry(_ context.Context, userID, bookID primitive.ObjectID) (*models.ShelfEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.shelves {
		if e.UserID == userID && e.BookID == bookID {
			cp := e
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) SaveShelfEntry(_ context.Context, e *models.ShelfEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.shelves {
		if cur.UserID == e.UserID && cur.BookID == e.BookID {
			m.shelves[i] = *e
			return nil
		}
	}
	m.shelves = append(m.shelves, *e)
	return nil
}

func (m *memStore) ReviewExists(_ context.Context, userID, bookID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertReview(_ context.Context, r *models.Review) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.reviews {
		if cur.UserID == r.UserID && cur.BookID == r.BookID {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	m.nextID++
	cp := *r
	cp.ID = oid(200 + m.nextID)
	m.reviews = append(m.reviews, cp)
	return cp.ID, nil
}

func (m *memStore) ApproveReview(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews[i].Status = models.ReviewApproved
			cp := m.reviews[i]
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	for _, b := range m.books {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if idIn(ids, u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) UserReviewsCount(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, r := range m.reviews {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) FinishedSince(_ context.Context, userID primitive.ObjectID, since time.Time) ([]models.ShelfEntry, error) {
	var out []models.ShelfEntry
	for _, e := range m.shelves {
		if e.UserID == userID && e.Shelf == models.ShelfRead && e.DateFinished != nil && !e.DateFinished.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) RecentShelfEntries(_ context.Context, limit int) ([]models.ShelfEntry, error) {
	out := append([]models.ShelfEntry(nil), m.shelves...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateAdded.After(out[j].DateAdded) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) RecentApprovedReviews(_ context.Context, limit int) ([]models.Review, error) {
	var out []models.Review
	for _, r := range m.reviews {
		if r.Status == models.ReviewApproved {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ RecommendStore = (*memStore)(nil)
	_ BrowseStore    = (*memStore)(nil)
	_ ShelfStore     = (*memStore)(nil)
	_ ReviewStore    = (*memStore)(nil)
	_ StatsStore     = (*memStore)(nil)
	_ ActivityStore  = (*memStore)(nil)

	_ RecommendStore = (*store.DB)(nil)
	_ BrowseStore    = (*store.DB)(nil)
	_ ShelfStore     = (*store.DB)(nil)
	_ ReviewStore    = (*store.DB)(nil)
	_ StatsStore     = (*store.DB)(nil)
	_ ActivityStore  = (*store.DB)(nil)
)
