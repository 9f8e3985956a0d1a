package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/service"
	"github.com/kevinaaaquil/bookworm/store"
	"github.com/kevinaaaquil/bookworm/utils"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BooksHandler struct {
	DB       *store.DB
	Browser  *service.Browser
	Metadata *service.MetadataClient
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.DB.AllBooks(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid book ID")
	if !ok {
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "Book not found", "")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Add(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if !decodeAndValidate(w, r, &book) {
		return
	}
	if !normalizeISBN(w, &book) {
		return
	}
	book.ID = primitive.NilObjectID
	book.CreatedAt = time.Now()
	id, err := h.DB.InsertBook(r.Context(), &book)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": "Added Successfully!", "id": id})
}

func (h *BooksHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid book ID")
	if !ok {
		return
	}
	var book models.Book
	if !decodeAndValidate(w, r, &book) {
		return
	}
	if !normalizeISBN(w, &book) {
		return
	}
	if err := h.DB.UpdateBook(r.Context(), id, &book); err != nil {
		storeError(w, r, err, "Book not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Updated successfully!")
}

func normalizeISBN(w http.ResponseWriter, book *models.Book) bool {
	if book.ISBN == "" {
		return true
	}
	isbn, ok := utils.NormalizeISBN(book.ISBN)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid ISBN")
		return false
	}
	book.ISBN = isbn
	return true
}

// Delete removes the book along with its reviews and shelf entries.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid book ID")
	if !ok {
		return
	}
	if err := h.DB.DeleteBook(r.Context(), id); err != nil {
		storeError(w, r, err, "Book not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Deleted successfully!")
}

func (h *BooksHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.DB.BooksCount(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *BooksHandler) PerGenre(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.BooksPerGenre(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.GenreCount{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// Browse serves GET /api/books/browse.
func (h *BooksHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseBrowseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.Browser.Browse(r.Context(), q)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Lookup prefills the add-book form from an ISBN.
func (h *BooksHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	isbn := strings.TrimSpace(r.URL.Query().Get("isbn"))
	if isbn == "" {
		writeError(w, http.StatusBadRequest, "isbn is required")
		return
	}
	if h.Metadata == nil {
		writeError(w, http.StatusServiceUnavailable, "metadata lookup not configured")
		return
	}
	book, err := h.Metadata.LookupISBN(r.Context(), isbn)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, book)
	case errors.Is(err, service.ErrInvalidISBN):
		writeError(w, http.StatusBadRequest, "Invalid ISBN")
	case errors.Is(err, service.ErrNoVolume):
		writeError(w, http.StatusNotFound, "No book found for that ISBN")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		writeError(w, http.StatusServiceUnavailable, "metadata lookup temporarily unavailable")
	default:
		writeError(w, http.StatusBadGateway, "metadata lookup failed")
	}
}
