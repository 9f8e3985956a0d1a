package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GenresHandler struct {
	DB *store.DB
}

func (h *GenresHandler) List(w http.ResponseWriter, r *http.Request) {
	genres, err := h.DB.ListGenres(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *GenresHandler) Add(w http.ResponseWriter, r *http.Request) {
	var g models.Genre
	if !decodeAndValidate(w, r, &g) {
		return
	}
	g.ID = primitive.NilObjectID
	id, err := h.DB.InsertGenre(r.Context(), &g)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": "Added Successfully!", "id": id})
}

func (h *GenresHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid genre ID")
	if !ok {
		return
	}
	var g models.Genre
	if !decodeAndValidate(w, r, &g) {
		return
	}
	if err := h.DB.UpdateGenre(r.Context(), id, &g); err != nil {
		storeError(w, r, err, "Genre not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Updated successfully!")
}

func (h *GenresHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid genre ID")
	if !ok {
		return
	}
	if err := h.DB.DeleteGenre(r.Context(), id); err != nil {
		storeError(w, r, err, "Genre not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Deleted successfully!")
}

func (h *GenresHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.DB.GenresCount(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
