package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/service"
	"github.com/kevinaaaquil/bookworm/store"
)

type ShelvesHandler struct {
	DB      *store.DB
	Shelves *service.Shelves
}

type AddToShelfRequest struct {
	BookID string `json:"bookId" validate:"required,objectid"`
	Shelf  string `json:"shelf" validate:"required,oneof='Want to Read' 'Currently Reading' Read"`
}

type UpdateProgressRequest struct {
	BookID   string `json:"bookId" validate:"required,objectid"`
	Progress *int   `json:"progress" validate:"required"`
}

type RemoveFromShelfRequest struct {
	BookID string `json:"bookId" validate:"required,objectid"`
}

// Add places a book on one of the caller's shelves. Any userId in the body
// is ignored; the acting user is the token subject.
func (h *ShelvesHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req AddToShelfRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bookID := validatedID(req.BookID)
	_, created, err := h.Shelves.Add(r.Context(), userID, bookID, req.Shelf)
	if err != nil {
		storeError(w, r, err, "Book not found", "")
		return
	}
	if created {
		writeSuccess(w, http.StatusOK, "Added to shelf successfully!")
		return
	}
	writeSuccess(w, http.StatusOK, "Shelf updated successfully!")
}

func (h *ShelvesHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateProgressRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if *req.Progress < 0 || *req.Progress > 100 {
		writeError(w, http.StatusBadRequest, "Progress must be between 0 and 100")
		return
	}
	bookID := validatedID(req.BookID)
	_, moved, err := h.Shelves.UpdateProgress(r.Context(), userID, bookID, *req.Progress)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProgress) {
			writeError(w, http.StatusBadRequest, "Progress must be between 0 and 100")
			return
		}
		storeError(w, r, err, "Shelf entry not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     "Progress updated successfully!",
		"movedToRead": moved,
	})
}

func (h *ShelvesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req RemoveFromShelfRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bookID := validatedID(req.BookID)
	if err := h.DB.DeleteShelfEntry(r.Context(), userID, bookID); err != nil {
		storeError(w, r, err, "Shelf entry not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Removed from shelf successfully!")
}

// CheckStatus reports which shelf, if any, the caller has a book on.
func (h *ShelvesHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookID, ok := parseObjectID(w, r.URL.Query().Get("bookId"), "Missing or invalid bookId")
	if !ok {
		return
	}
	entry, err := h.DB.ShelfEntry(r.Context(), userID, bookID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"shelf": nil, "progress": 0})
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shelf": entry.Shelf, "progress": entry.Progress})
}

func (h *ShelvesHandler) Library(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	entries, err := h.DB.UserLibrary(r.Context(), userID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.LibraryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
