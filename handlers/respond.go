package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/kevinaaaquil/bookworm/logging"
	"github.com/kevinaaaquil/bookworm/middleware"
	"github.com/kevinaaaquil/bookworm/store"
	"github.com/kevinaaaquil/bookworm/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const msgServerError = "Something went wrong!"

// maxJSONBody caps request bodies for JSON endpoints.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSuccess(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"success": msg})
}

// serverError logs err and answers with the generic 500 body.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, msgServerError)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// On failure it has already written a 400.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// objectIDParam parses a chi URL parameter, writing 400 on failure.
func objectIDParam(w http.ResponseWriter, r *http.Request, name, msg string) (primitive.ObjectID, bool) {
	return parseObjectID(w, chi.URLParam(r, name), msg)
}

func parseObjectID(w http.ResponseWriter, s, msg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, msg)
		return primitive.NilObjectID, false
	}
	return id, true
}

// storeError maps store sentinels to 404/409 and everything else to 500.
func storeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, conflictMsg)
	default:
		serverError(w, r, err)
	}
}

// currentUser returns the authenticated user id; Auth has already rejected
// requests without one.
func currentUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}

// subjectUser resolves the ?userId= parameter. It defaults to the caller;
// only Admins may name someone else.
func subjectUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	self, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return self, true
	}
	id, ok := parseObjectID(w, raw, "Invalid userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	if id != self && !claims.IsAdmin() {
		writeError(w, http.StatusForbidden, "Forbidden")
		return primitive.NilObjectID, false
	}
	return id, true
}

// validatedID converts a hex id that already passed the objectid rule.
func validatedID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}
