package service

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	RecommendLimit = 12

	ReasonPersonalized = "personalized"
	ReasonFallback     = "fallback"

	minReadForPersonal = 3
	topGenreLimit      = 3
	defaultUserRating  = 3.0
)

// BookStatsSource aggregates approved-review and shelf figures per book.
type BookStatsSource interface {
	RatingStats(ctx context.Context, bookIDs []primitive.ObjectID, minRating float64) (map[primitive.ObjectID]models.RatingStats, error)
	ShelfCounts(ctx context.Context, bookIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
}

type RecommendStore interface {
	BookStatsSource
	UserShelfEntries(ctx context.Context, userID primitive.ObjectID, shelf string) ([]models.ShelfEntry, error)
	BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error)
	BooksInGenres(ctx context.Context, genres []string, exclude []primitive.ObjectID) ([]models.Book, error)
	BooksExcluding(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]models.Book, error)
	UserAverageRating(ctx context.Context, userID primitive.ObjectID) (float64, bool, error)
}

type Recommendation struct {
	models.Book
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
	ShelfCount  int     `json:"shelfCount"`
	GenreMatch  int     `json:"genreMatch"`
	Score       float64 `json:"score"`
}

type Recommendations struct {
	Recommendations []Recommendation `json:"recommendations"`
	Reason          string           `json:"reason"`
	TopGenres       []string         `json:"topGenres,omitempty"`
	GenreCounts     map[string]int   `json:"genreCounts,omitempty"`
}

// Recommender ranks books for a reader by genre affinity, falling back to a
// popularity ranking for readers with little history. Safe for concurrent use.
type Recommender struct {
	store RecommendStore

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRecommender seeds the popularity jitter with seed, or the clock when 0.
func NewRecommender(store RecommendStore, seed int64) *Recommender {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Recommender{
		store: store,
		rng:   rand.New(rand.NewSource(seed)), //nolint:gosec // ranking jitter, not security
	}
}

// Score is avgRating·ln(reviewCount+1) + 2·genreMatch.
func Score(avgRating float64, reviewCount, genreMatch int) float64 {
	return avgRating*math.Log(float64(reviewCount)+1) + 2*float64(genreMatch)
}

func (r *Recommender) Recommend(ctx context.Context, userID primitive.ObjectID) (*Recommendations, error) {
	read, err := r.store.UserShelfEntries(ctx, userID, models.ShelfRead)
	if err != nil {
		return nil, err
	}
	if len(read) < minReadForPersonal {
		return r.coldStart(ctx, userID)
	}

	readIDs := make([]primitive.ObjectID, len(read))
	for i, e := range read {
		readIDs[i] = e.BookID
	}
	readBooks, err := r.store.BooksByIDs(ctx, readIDs)
	if err != nil {
		return nil, err
	}
	tally := tallyGenres(readBooks)
	var topGenres []string
	for _, g := range tally.top(topGenreLimit) {
		topGenres = append(topGenres, g.Genre)
	}

	avg, ok, err := r.store.UserAverageRating(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		avg = defaultUserRating
	}

	candidates, err := r.store.BooksInGenres(ctx, topGenres, readIDs)
	if err != nil {
		return nil, err
	}
	candIDs := make([]primitive.ObjectID, len(candidates))
	for i, b := range candidates {
		candIDs[i] = b.ID
	}
	stats, err := r.store.RatingStats(ctx, candIDs, avg-1)
	if err != nil {
		return nil, err
	}

	scored := make([]Recommendation, len(candidates))
	for i, b := range candidates {
		s := stats[b.ID]
		match := tally.counts[b.Genre]
		scored[i] = Recommendation{
			Book:        b,
			AvgRating:   s.AvgRating,
			ReviewCount: s.ReviewCount,
			GenreMatch:  match,
			Score:       Score(s.AvgRating, s.ReviewCount, match),
		}
	}
	sortByScore(scored)
	if len(scored) > RecommendLimit {
		scored = scored[:RecommendLimit]
	}

	if len(scored) < RecommendLimit {
		exclude := append([]primitive.ObjectID{}, readIDs...)
		for _, rec := range scored {
			exclude = append(exclude, rec.ID)
		}
		pad, err := r.Popular(ctx, exclude, RecommendLimit-len(scored))
		if err != nil {
			return nil, err
		}
		scored = append(scored, pad...)
	}

	recommendationsServed.WithLabelValues(ReasonPersonalized).Inc()
	return &Recommendations{
		Recommendations: scored,
		Reason:          ReasonPersonalized,
		TopGenres:       topGenres,
		GenreCounts:     tally.counts,
	}, nil
}

// coldStart excludes everything the reader has on any shelf.
func (r *Recommender) coldStart(ctx context.Context, userID primitive.ObjectID) (*Recommendations, error) {
	shelved, err := r.store.UserShelfEntries(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	exclude := make([]primitive.ObjectID, len(shelved))
	for i, e := range shelved {
		exclude[i] = e.BookID
	}
	recs, err := r.Popular(ctx, exclude, RecommendLimit)
	if err != nil {
		return nil, err
	}
	recommendationsServed.WithLabelValues(ReasonFallback).Inc()
	return &Recommendations{Recommendations: recs, Reason: ReasonFallback}, nil
}

// Popular ranks up to 2·limit books outside exclude by
// avgRating·0.5 + shelfCount·0.3 + jitter·0.2 and returns the best limit.
func (r *Recommender) Popular(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]Recommendation, error) {
	out := []Recommendation{}
	if limit <= 0 {
		return out, nil
	}
	books, err := r.store.BooksExcluding(ctx, exclude, limit*2)
	if err != nil || len(books) == 0 {
		return out, err
	}
	ratings, shelves, err := collectStats(ctx, r.store, books)
	if err != nil {
		return nil, err
	}

	r.rngMu.Lock()
	for _, b := range books {
		s := ratings[b.ID]
		sc := shelves[b.ID]
		out = append(out, Recommendation{
			Book:        b,
			AvgRating:   s.AvgRating,
			ReviewCount: s.ReviewCount,
			ShelfCount:  sc,
			Score:       s.AvgRating*0.5 + float64(sc)*0.3 + r.rng.Float64()*0.2,
		})
	}
	r.rngMu.Unlock()

	sortByScore(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collectStats runs the review and shelf aggregations for books concurrently.
func collectStats(ctx context.Context, src BookStatsSource, books []models.Book) (map[primitive.ObjectID]models.RatingStats, map[primitive.ObjectID]int, error) {
	ids := make([]primitive.ObjectID, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	var (
		ratings map[primitive.ObjectID]models.RatingStats
		shelves map[primitive.ObjectID]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ratings, err = src.RatingStats(gctx, ids, 0)
		return err
	})
	g.Go(func() error {
		var err error
		shelves, err = src.ShelfCounts(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return ratings, shelves, nil
}

// sortByScore orders by score descending, then id hex ascending.
func sortByScore(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ID.Hex() < recs[j].ID.Hex()
	})
}
