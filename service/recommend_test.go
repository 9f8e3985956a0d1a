package service

import (
	"context"
	"math"
	"testing"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScoreMonotonic(t *testing.T) {
	for n := 0; n < 50; n++ {
		assert.LessOrEqual(t, Score(4, n, 1), Score(4, n+1, 1))
	}
	for avg := 1.0; avg < 5; avg += 0.25 {
		assert.LessOrEqual(t, Score(avg, 7, 0), Score(avg+0.25, 7, 0))
	}
	assert.Equal(t, 4.0, Score(0, 0, 2))
}

func TestRecommendGenreAffinity(t *testing.T) {
	m := &memStore{}
	reader := oid(100)
	others := []primitive.ObjectID{}
	for i := byte(0); i < 10; i++ {
		others = append(others, oid(150+i))
	}

	read := []models.Book{
		m.addBook(1, "Mystery One", "Mystery"),
		m.addBook(2, "Horror One", "Horror"),
		m.addBook(3, "Mystery Two", "Mystery"),
		m.addBook(4, "Horror Two", "Horror"),
		m.addBook(5, "Mystery Three", "Mystery"),
	}
	for i, b := range read {
		m.shelve(reader, b.ID, models.ShelfRead)
		// 5,4,4,4,4 averages 4.2
		rating := 4
		if i == 0 {
			rating = 5
		}
		m.review(reader, b.ID, rating, models.ReviewApproved)
	}

	mystery := m.addBook(20, "Mystery Candidate", "Mystery")
	horror := m.addBook(21, "Horror Candidate", "Horror")
	for _, b := range []models.Book{mystery, horror} {
		for i, u := range others {
			rating := 4
			if i%2 == 0 {
				rating = 5
			}
			m.review(u, b.ID, rating, models.ReviewApproved)
		}
		// below avgUserRating-1, ignored
		m.review(oid(199), b.ID, 1, models.ReviewApproved)
		// not approved, ignored
		m.review(oid(198), b.ID, 5, models.ReviewPending)
	}

	got, err := NewRecommender(m, 1).Recommend(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, ReasonPersonalized, got.Reason)
	assert.Equal(t, []string{"Mystery", "Horror"}, got.TopGenres)
	assert.Equal(t, map[string]int{"Mystery": 3, "Horror": 2}, got.GenreCounts)

	require.Len(t, got.Recommendations, 2)
	first, second := got.Recommendations[0], got.Recommendations[1]
	assert.Equal(t, mystery.ID, first.ID)
	assert.Equal(t, 10, first.ReviewCount)
	assert.InDelta(t, 4.5, first.AvgRating, 1e-9)
	assert.InDelta(t, 4.5*math.Log(11)+6, first.Score, 1e-9)
	assert.InDelta(t, 16.79, first.Score, 0.01)
	assert.Equal(t, horror.ID, second.ID)
	assert.InDelta(t, 4.5*math.Log(11)+4, second.Score, 1e-9)
}

func TestRecommendFallbackExcludesShelved(t *testing.T) {
	m := &memStore{}
	reader := oid(100)
	a := m.addBook(1, "A", "Drama")
	b := m.addBook(2, "B", "Drama")
	c := m.addBook(3, "C", "Drama")
	for i := byte(10); i < 20; i++ {
		m.addBook(i, "Other", "Poetry")
	}
	m.shelve(reader, a.ID, models.ShelfRead)
	m.shelve(reader, b.ID, models.ShelfRead)
	m.shelve(reader, c.ID, models.ShelfWantToRead)

	got, err := NewRecommender(m, 7).Recommend(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, ReasonFallback, got.Reason)
	assert.Empty(t, got.TopGenres)
	assert.LessOrEqual(t, len(got.Recommendations), RecommendLimit)
	assert.NotEmpty(t, got.Recommendations)
	for _, rec := range got.Recommendations {
		assert.NotContains(t, []primitive.ObjectID{a.ID, b.ID, c.ID}, rec.ID)
	}
}

func TestRecommendTopGenresTieOrder(t *testing.T) {
	m := &memStore{}
	reader := oid(100)
	genres := []string{"Fantasy", "SciFi", "Fantasy", "SciFi", "Drama", "Poetry"}
	for i, g := range genres {
		bk := m.addBook(byte(i+1), g, g)
		m.shelve(reader, bk.ID, models.ShelfRead)
	}

	got, err := NewRecommender(m, 1).Recommend(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "SciFi", "Drama"}, got.TopGenres)
}

func TestRecommendPadsWithPopular(t *testing.T) {
	m := &memStore{}
	reader := oid(100)
	var readIDs []primitive.ObjectID
	for i := byte(1); i <= 3; i++ {
		bk := m.addBook(i, "Read", "Mystery")
		m.shelve(reader, bk.ID, models.ShelfRead)
		readIDs = append(readIDs, bk.ID)
	}
	candidate := m.addBook(10, "Unread Mystery", "Mystery")
	for i := byte(20); i < 23; i++ {
		m.addBook(i, "Filler", "Poetry")
	}

	got, err := NewRecommender(m, 3).Recommend(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, got.Recommendations, 4)
	assert.Equal(t, candidate.ID, got.Recommendations[0].ID)

	seen := map[primitive.ObjectID]bool{}
	for _, rec := range got.Recommendations {
		assert.NotContains(t, readIDs, rec.ID)
		assert.False(t, seen[rec.ID], "duplicate %s", rec.ID.Hex())
		seen[rec.ID] = true
	}
}

func TestPopularSeededAndBounded(t *testing.T) {
	m := &memStore{}
	for i := byte(1); i <= 30; i++ {
		m.addBook(i, "Book", "Any")
	}
	exclude := []primitive.ObjectID{oid(1), oid(2), oid(3)}

	run := func() []primitive.ObjectID {
		recs, err := NewRecommender(m, 42).Popular(context.Background(), exclude, 5)
		require.NoError(t, err)
		ids := make([]primitive.ObjectID, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}
		return ids
	}
	first := run()
	assert.Len(t, first, 5)
	assert.Equal(t, first, run())
	for _, id := range first {
		assert.NotContains(t, exclude, id)
	}
}

func TestPopularRanksByRatingAndShelves(t *testing.T) {
	m := &memStore{}
	low := m.addBook(1, "Low", "Any")
	high := m.addBook(2, "High", "Any")
	m.review(oid(90), high.ID, 5, models.ReviewApproved)
	m.review(oid(90), low.ID, 1, models.ReviewApproved)
	m.shelve(oid(91), high.ID, models.ShelfRead)

	recs, err := NewRecommender(m, 9).Popular(context.Background(), nil, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, high.ID, recs[0].ID)
	assert.Equal(t, 1, recs[0].ShelfCount)

	none, err := NewRecommender(m, 9).Popular(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
