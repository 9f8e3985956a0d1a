package handlers

import (
	"net/http"
	"strings"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
)

type TutorialsHandler struct {
	DB *store.DB
}

// List returns tutorials, newest first.
func (h *TutorialsHandler) List(w http.ResponseWriter, r *http.Request) {
	tutorials, err := h.DB.ListTutorials(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if tutorials == nil {
		tutorials = []models.Tutorial{}
	}
	writeJSON(w, http.StatusOK, tutorials)
}

func (h *TutorialsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title" validate:"required,max=200"`
		YoutubeLink string `json:"youtubeLink" validate:"required,url"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}
	t := &models.Tutorial{Title: strings.TrimSpace(req.Title), YoutubeLink: strings.TrimSpace(req.YoutubeLink)}
	id, err := h.DB.InsertTutorial(r.Context(), t)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": "Tutorial added successfully", "id": id})
}

func (h *TutorialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid ID")
	if !ok {
		return
	}
	if err := h.DB.DeleteTutorial(r.Context(), id); err != nil {
		storeError(w, r, err, "Tutorial not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Tutorial deleted successfully")
}
