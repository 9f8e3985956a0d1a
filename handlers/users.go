package handlers

import (
	"net/http"
	"strings"

	"github.com/kevinaaaquil/bookworm/middleware"
	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
)

type UsersHandler struct {
	DB *store.DB
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=Admin Normal"`
}

// ListUsers returns all users (admin only). Password is omitted via json:"-".
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.DB.UsersCount(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ByEmail serves GET /api/users/user?email=. Readers may only look themselves up.
func (h *UsersHandler) ByEmail(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	email := normalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if !claims.IsAdmin() && !strings.EqualFold(claims.Email, email) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), email)
	if err != nil {
		serverError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangeRole sets a user's role. The last Admin cannot be demoted.
func (h *UsersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid user ID")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "User not found", "")
		return
	}
	if user.Role == models.RoleAdmin && req.Role != models.RoleAdmin {
		count, err := h.DB.AdminsCount(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		if count <= 1 {
			writeError(w, http.StatusBadRequest, "cannot demote the last admin user")
			return
		}
	}
	if err := h.DB.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		storeError(w, r, err, "User not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Updated successfully!")
}

// DeleteUser deletes a user by ID (admin only). Prevents deleting self and
// the last admin.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id", "Invalid user ID")
	if !ok {
		return
	}
	self, ok := currentUser(w, r)
	if !ok {
		return
	}
	if id == self {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "User not found", "")
		return
	}
	if user.Role == models.RoleAdmin {
		count, err := h.DB.AdminsCount(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		if count <= 1 {
			writeError(w, http.StatusBadRequest, "cannot delete the last admin user")
			return
		}
	}
	if err := h.DB.DeleteUser(r.Context(), id); err != nil {
		storeError(w, r, err, "User not found", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Deleted successfully!")
}
