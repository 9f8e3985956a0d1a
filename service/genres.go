package service

import (
	"sort"

	"github.com/kevinaaaquil/bookworm/models"
)

// genreTally counts books per genre and remembers first-seen order.
type genreTally struct {
	counts map[string]int
	order  []string
}

func tallyGenres(books []models.Book) genreTally {
	t := genreTally{counts: make(map[string]int)}
	for _, b := range books {
		if _, seen := t.counts[b.Genre]; !seen {
			t.order = append(t.order, b.Genre)
		}
		t.counts[b.Genre]++
	}
	return t
}

// top returns up to n genres by count descending. Equal counts keep
// first-seen order. n <= 0 returns all.
func (t genreTally) top(n int) []models.GenreCount {
	out := make([]models.GenreCount, 0, len(t.order))
	for _, g := range t.order {
		out = append(out, models.GenreCount{Genre: g, Count: t.counts[g]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
