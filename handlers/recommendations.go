package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookworm/service"
)

type RecommendationsHandler struct {
	Recommender *service.Recommender
}

// Get serves GET /api/recommendations?userId=. userId defaults to the caller.
func (h *RecommendationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := subjectUser(w, r)
	if !ok {
		return
	}
	recs, err := h.Recommender.Recommend(r.Context(), userID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
