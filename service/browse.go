package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
	"github.com/kevinaaaquil/bookworm/validation"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
	maxPage         = 1000000

	SortRating      = "rating"
	SortMostShelved = "mostShelved"
)

type BrowseStore interface {
	BookStatsSource
	FilterBooks(ctx context.Context, f store.BookFilter, skip, limit int) ([]models.Book, error)
	CountBooks(ctx context.Context, f store.BookFilter) (int64, error)
}

type BrowseQuery struct {
	Search string   `json:"search" validate:"max=200"`
	Genres []string `json:"genres"`
	Rating string   `json:"rating" validate:"omitempty,oneof=4-5 3-4 2-3 1-2"`
	SortBy string   `json:"sortBy" validate:"omitempty,oneof=rating mostShelved"`
	Page   int      `json:"page" validate:"min=1,max=1000000"`
	Limit  int      `json:"limit" validate:"min=1,max=100"`
}

// ParseBrowseQuery reads browse parameters. "all" for genres or rating means
// no filter; genre is accepted as a single-value alias of genres.
func ParseBrowseQuery(v url.Values) (BrowseQuery, error) {
	q := BrowseQuery{
		Search: strings.TrimSpace(v.Get("search")),
		Rating: strings.TrimSpace(v.Get("rating")),
		SortBy: strings.TrimSpace(v.Get("sortBy")),
		Page:   1,
		Limit:  defaultPageSize,
	}
	raw := v.Get("genres")
	if raw == "" {
		raw = v.Get("genre")
	}
	for _, g := range strings.Split(raw, ",") {
		g = strings.TrimSpace(g)
		if g != "" && !strings.EqualFold(g, "all") {
			q.Genres = append(q.Genres, g)
		}
	}
	if strings.EqualFold(q.Rating, "all") {
		q.Rating = ""
	}
	if p := v.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return q, fmt.Errorf("page must be a number")
		}
		q.Page = n
	}
	if l := v.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return q, fmt.Errorf("limit must be a number")
		}
		q.Limit = n
	}
	if err := validation.ValidateStruct(&q); err != nil {
		return q, err
	}
	return q, nil
}

type BrowseResult struct {
	Books       []models.BookWithStats `json:"books"`
	TotalBooks  int64                  `json:"totalBooks"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
}

type Browser struct {
	store BrowseStore
}

func NewBrowser(store BrowseStore) *Browser {
	return &Browser{store: store}
}

// Browse pages in the database when no rating bucket or sort key is set.
// Otherwise the whole filtered set is loaded so bucket filtering and sorting
// apply before pagination and the total reflects the bucket.
func (b *Browser) Browse(ctx context.Context, q BrowseQuery) (*BrowseResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxPage {
		q.Page = maxPage
	}
	if q.Limit < 1 || q.Limit > maxPageSize {
		q.Limit = defaultPageSize
	}
	f := store.BookFilter{Search: q.Search, Genres: q.Genres}
	skip := (q.Page - 1) * q.Limit

	if q.Rating == "" && q.SortBy == "" {
		var (
			books []models.Book
			total int64
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			books, err = b.store.FilterBooks(gctx, f, skip, q.Limit)
			return err
		})
		g.Go(func() error {
			var err error
			total, err = b.store.CountBooks(gctx, f)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		withStats, err := b.attachStats(ctx, books)
		if err != nil {
			return nil, err
		}
		return page(withStats, total, q), nil
	}

	books, err := b.store.FilterBooks(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}
	all, err := b.attachStats(ctx, books)
	if err != nil {
		return nil, err
	}
	if q.Rating != "" {
		bucket, err := parseBucket(q.Rating)
		if err != nil {
			return nil, err
		}
		kept := all[:0]
		for _, bk := range all {
			if bucket.contains(bk.AvgRating, bk.ReviewCount) {
				kept = append(kept, bk)
			}
		}
		all = kept
	}
	sortBooks(all, q.SortBy)

	total := int64(len(all))
	end := skip + q.Limit
	if skip > len(all) {
		skip = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return page(all[skip:end], total, q), nil
}

func page(books []models.BookWithStats, total int64, q BrowseQuery) *BrowseResult {
	if books == nil {
		books = []models.BookWithStats{}
	}
	return &BrowseResult{
		Books:       books,
		TotalBooks:  total,
		TotalPages:  int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		CurrentPage: q.Page,
	}
}

func (b *Browser) attachStats(ctx context.Context, books []models.Book) ([]models.BookWithStats, error) {
	if len(books) == 0 {
		return nil, nil
	}
	ratings, shelves, err := collectStats(ctx, b.store, books)
	if err != nil {
		return nil, err
	}
	out := make([]models.BookWithStats, len(books))
	for i, bk := range books {
		r := ratings[bk.ID]
		out[i] = models.BookWithStats{
			Book: bk,
			BookStats: models.BookStats{
				AvgRating:   r.AvgRating,
				ReviewCount: r.ReviewCount,
				ShelfCount:  shelves[bk.ID],
			},
		}
	}
	return out, nil
}

func sortBooks(books []models.BookWithStats, by string) {
	var less func(a, b models.BookWithStats) bool
	switch by {
	case SortRating:
		less = func(a, b models.BookWithStats) bool { return a.AvgRating > b.AvgRating }
	case SortMostShelved:
		less = func(a, b models.BookWithStats) bool { return a.ShelfCount > b.ShelfCount }
	default:
		return
	}
	sort.SliceStable(books, func(i, j int) bool {
		if less(books[i], books[j]) {
			return true
		}
		if less(books[j], books[i]) {
			return false
		}
		return books[i].ID.Hex() < books[j].ID.Hex()
	})
}

// ratingBucket is lo <= avg < hi, with hi inclusive when it is 5.
type ratingBucket struct {
	lo, hi float64
}

func parseBucket(s string) (ratingBucket, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return ratingBucket{}, fmt.Errorf("invalid rating range %q", s)
	}
	l, err1 := strconv.ParseFloat(lo, 64)
	h, err2 := strconv.ParseFloat(hi, 64)
	if err1 != nil || err2 != nil || l >= h {
		return ratingBucket{}, fmt.Errorf("invalid rating range %q", s)
	}
	return ratingBucket{lo: l, hi: h}, nil
}

// Unreviewed books belong to no bucket.
func (b ratingBucket) contains(avg float64, reviews int) bool {
	if reviews == 0 || avg < b.lo {
		return false
	}
	if b.hi >= 5 {
		return avg <= b.hi
	}
	return avg < b.hi
}
