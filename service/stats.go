package service

import (
	"context"
	"math"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StatsStore interface {
	UserShelfEntries(ctx context.Context, userID primitive.ObjectID, shelf string) ([]models.ShelfEntry, error)
	BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error)
	UserReviewsCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	FinishedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.ShelfEntry, error)
}

type ReadingStats struct {
	TotalBooks       int                 `json:"totalBooks"`
	WantToRead       int                 `json:"wantToRead"`
	CurrentlyReading int                 `json:"currentlyReading"`
	Read             int                 `json:"read"`
	TopGenres        []models.GenreCount `json:"topGenres"`
	ReviewsWritten   int64               `json:"reviewsWritten"`
	AvgProgress      int                 `json:"avgProgress"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type Stats struct {
	store StatsStore
	now   func() time.Time
}

func NewStats(store StatsStore) *Stats {
	return &Stats{store: store, now: time.Now}
}

func (s *Stats) ReadingStats(ctx context.Context, userID primitive.ObjectID) (*ReadingStats, error) {
	entries, err := s.store.UserShelfEntries(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	out := &ReadingStats{TotalBooks: len(entries)}
	var readIDs []primitive.ObjectID
	progressSum := 0
	for _, e := range entries {
		switch e.Shelf {
		case models.ShelfWantToRead:
			out.WantToRead++
		case models.ShelfCurrentlyReading:
			out.CurrentlyReading++
			progressSum += e.Progress
		case models.ShelfRead:
			out.Read++
			readIDs = append(readIDs, e.BookID)
		}
	}
	if out.CurrentlyReading > 0 {
		out.AvgProgress = int(math.Round(float64(progressSum) / float64(out.CurrentlyReading)))
	}

	books, err := s.store.BooksByIDs(ctx, readIDs)
	if err != nil {
		return nil, err
	}
	out.TopGenres = tallyGenres(books).top(5)

	out.ReviewsWritten, err = s.store.UserReviewsCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyBooksRead counts books finished in each month of the current
// year (UTC).
func (s *Stats) MonthlyBooksRead(ctx context.Context, userID primitive.ObjectID) ([]MonthCount, error) {
	now := s.now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	entries, err := s.store.FinishedSince(ctx, userID, yearStart)
	if err != nil {
		return nil, err
	}
	var counts [12]int
	for _, e := range entries {
		if e.DateFinished == nil {
			continue
		}
		f := e.DateFinished.UTC()
		if f.Year() != now.Year() {
			continue
		}
		counts[f.Month()-1]++
	}
	out := make([]MonthCount, 12)
	for i := range out {
		out[i] = MonthCount{Month: monthNames[i], Count: counts[i]}
	}
	return out, nil
}

// GenreDistribution tallies the genres of the user's Read books, most read first.
func (s *Stats) GenreDistribution(ctx context.Context, userID primitive.ObjectID) ([]models.GenreCount, error) {
	read, err := s.store.UserShelfEntries(ctx, userID, models.ShelfRead)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(read))
	for i, e := range read {
		ids[i] = e.BookID
	}
	books, err := s.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return tallyGenres(books).top(0), nil
}
