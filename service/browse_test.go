package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseBrowseQuery(t *testing.T) {
	q, err := ParseBrowseQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 12, q.Limit)
	assert.Empty(t, q.Genres)

	q, err = ParseBrowseQuery(url.Values{
		"search": {"  tolkien "},
		"genres": {"Fantasy, SciFi,,"},
		"rating": {"all"},
		"sortBy": {"mostShelved"},
		"page":   {"3"},
		"limit":  {"24"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tolkien", q.Search)
	assert.Equal(t, []string{"Fantasy", "SciFi"}, q.Genres)
	assert.Empty(t, q.Rating)
	assert.Equal(t, SortMostShelved, q.SortBy)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 24, q.Limit)

	q, err = ParseBrowseQuery(url.Values{"genre": {"Horror"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Horror"}, q.Genres)

	q, err = ParseBrowseQuery(url.Values{"genres": {"all"}})
	require.NoError(t, err)
	assert.Empty(t, q.Genres)

	for _, bad := range []url.Values{
		{"rating": {"5-6"}},
		{"sortBy": {"title"}},
		{"page": {"0"}},
		{"page": {"two"}},
		{"page": {"1000001"}},
		{"page": {"768614336404564651"}, "sortBy": {"rating"}},
		{"limit": {"500"}},
	} {
		_, err := ParseBrowseQuery(bad)
		assert.Error(t, err, bad.Encode())
	}
}

func TestRatingBucket(t *testing.T) {
	top, err := parseBucket("4-5")
	require.NoError(t, err)
	assert.True(t, top.contains(5, 1))
	assert.True(t, top.contains(4, 3))
	assert.False(t, top.contains(3.99, 3))
	assert.False(t, top.contains(0, 0))

	mid, err := parseBucket("3-4")
	require.NoError(t, err)
	assert.True(t, mid.contains(3, 1))
	assert.False(t, mid.contains(4, 1))

	_, err = parseBucket("4")
	assert.Error(t, err)
	_, err = parseBucket("4-2")
	assert.Error(t, err)
}

// browseFixture has six Fantasy books rated 5, 4.5, 4, 3.5, unrated and
// unrated, plus one Horror book rated 5.
func browseFixture() (*memStore, []models.Book) {
	m := &memStore{}
	var books []models.Book
	for i, title := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"} {
		books = append(books, m.addBook(byte(i+1), title, "Fantasy"))
	}
	horror := m.addBook(7, "Golf", "Horror")
	reviewer := func(n byte) primitive.ObjectID { return oid(100 + n) }

	m.review(reviewer(1), books[0].ID, 5, models.ReviewApproved)
	m.review(reviewer(1), books[1].ID, 5, models.ReviewApproved)
	m.review(reviewer(2), books[1].ID, 4, models.ReviewApproved)
	m.review(reviewer(1), books[2].ID, 4, models.ReviewApproved)
	m.review(reviewer(1), books[3].ID, 3, models.ReviewApproved)
	m.review(reviewer(2), books[3].ID, 4, models.ReviewApproved)
	m.review(reviewer(1), books[4].ID, 5, models.ReviewPending)
	m.review(reviewer(1), horror.ID, 5, models.ReviewApproved)

	m.shelve(reviewer(1), books[5].ID, models.ShelfRead)
	m.shelve(reviewer(2), books[5].ID, models.ShelfRead)
	m.shelve(reviewer(3), books[5].ID, models.ShelfWantToRead)
	m.shelve(reviewer(1), books[2].ID, models.ShelfRead)
	return m, append(books, horror)
}

func titles(books []models.BookWithStats) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestBrowseFastPath(t *testing.T) {
	m, _ := browseFixture()
	res, err := NewBrowser(m).Browse(context.Background(), BrowseQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 7, res.TotalBooks)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, []string{"Delta", "Echo", "Foxtrot"}, titles(res.Books))
	assert.InDelta(t, 3.5, res.Books[0].AvgRating, 1e-9)
	assert.Equal(t, 0, res.Books[1].ReviewCount)
	assert.Equal(t, 3, res.Books[2].ShelfCount)
}

func TestBrowseBucketBeforePagination(t *testing.T) {
	m, _ := browseFixture()
	b := NewBrowser(m)

	res, err := b.Browse(context.Background(), BrowseQuery{Genres: []string{"Fantasy"}, Rating: "4-5", Page: 1, Limit: 2})
	require.NoError(t, err)
	// Alpha 5, Bravo 4.5, Charlie 4 match; Delta 3.5 and the unrated books do not.
	assert.EqualValues(t, 3, res.TotalBooks)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, []string{"Alpha", "Bravo"}, titles(res.Books))

	res, err = b.Browse(context.Background(), BrowseQuery{Genres: []string{"Fantasy"}, Rating: "4-5", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie"}, titles(res.Books))

	res, err = b.Browse(context.Background(), BrowseQuery{Rating: "1-2", Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.TotalBooks)
	assert.NotNil(t, res.Books)
	assert.Empty(t, res.Books)
}

func TestBrowseSorts(t *testing.T) {
	m, _ := browseFixture()
	b := NewBrowser(m)

	res, err := b.Browse(context.Background(), BrowseQuery{SortBy: SortRating, Page: 1, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 7, res.TotalBooks)
	// Alpha and Golf tie at 5 and fall back to id order.
	assert.Equal(t, []string{"Alpha", "Golf", "Bravo", "Charlie"}, titles(res.Books))

	res, err = b.Browse(context.Background(), BrowseQuery{SortBy: SortMostShelved, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Foxtrot", "Charlie"}, titles(res.Books))
	assert.Equal(t, 3, res.Books[0].ShelfCount)
}

func TestBrowseSearchIsCaseInsensitive(t *testing.T) {
	m, _ := browseFixture()
	res, err := NewBrowser(m).Browse(context.Background(), BrowseQuery{Search: "CHAR", Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie"}, titles(res.Books))
	assert.Equal(t, 1, res.TotalPages)
}

func TestBrowseHugePageIsEmpty(t *testing.T) {
	m, _ := browseFixture()
	b := NewBrowser(m)

	_, err := ParseBrowseQuery(url.Values{"page": {"1000000"}, "limit": {"100"}})
	require.NoError(t, err)

	for _, q := range []BrowseQuery{
		{SortBy: SortRating, Page: 768614336404564651, Limit: 12},
		{Page: 768614336404564651, Limit: 12},
		{Rating: "4-5", Page: maxPage, Limit: maxPageSize},
	} {
		res, err := b.Browse(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, res.Books)
		assert.LessOrEqual(t, res.CurrentPage, maxPage)
		assert.Greater(t, res.CurrentPage, res.TotalPages)
	}
}
