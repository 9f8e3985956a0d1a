package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookworm/service"
)

type StatsHandler struct {
	Stats    *service.Stats
	Activity *service.ActivityFeed
}

func (h *StatsHandler) ReadingStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := subjectUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Stats.ReadingStats(r.Context(), userID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) MonthlyBooksRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := subjectUser(w, r)
	if !ok {
		return
	}
	months, err := h.Stats.MonthlyBooksRead(r.Context(), userID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

func (h *StatsHandler) GenreDistribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := subjectUser(w, r)
	if !ok {
		return
	}
	genres, err := h.Stats.GenreDistribution(r.Context(), userID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *StatsHandler) ActivityFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Activity.Recent(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}
