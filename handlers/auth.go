package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookworm/middleware"
	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the slice of the store the auth endpoints need.
type AccountStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
}

type AuthHandler struct {
	Users     AccountStore
	JWTSecret string
	TokenTTL  time.Duration
	// SecureCookie marks the session cookie Secure (production).
	SecureCookie bool
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Photo    string `json:"photo" validate:"omitempty,url"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionUser struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	Photo       string             `json:"photo"`
	Email       string             `json:"email"`
	Role        string             `json:"role"`
	JoiningDate time.Time          `json:"joiningDate"`
}

type LoginResponse struct {
	Success string      `json:"success"`
	User    sessionUser `json:"user"`
	Token   string      `json:"token"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a Normal user. Role escalation only happens through
// the admin change-role endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)
	existing, err := h.Users.UserByEmail(r.Context(), email)
	if err != nil {
		serverError(w, r, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Email already exists.")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, r, err)
		return
	}
	user := &models.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Password:    string(hash),
		Role:        models.RoleNormal,
		Photo:       req.Photo,
		JoiningDate: time.Now(),
	}
	if _, err := h.Users.CreateUser(r.Context(), user); err != nil {
		storeError(w, r, err, "", "Email already exists.")
		return
	}
	writeSuccess(w, http.StatusCreated, "Registration Successful!")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.Users.UserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		serverError(w, r, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	token, err := middleware.NewToken(h.JWTSecret, user, h.ttl())
	if err != nil {
		serverError(w, r, err)
		return
	}
	http.SetCookie(w, h.cookie(token, int(h.ttl().Seconds())))
	writeJSON(w, http.StatusOK, LoginResponse{
		Success: "Login Successful!",
		User: sessionUser{
			ID:          user.ID,
			Name:        user.Name,
			Photo:       user.Photo,
			Email:       user.Email,
			Role:        user.Role,
			JoiningDate: user.JoiningDate,
		},
		Token: token,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	writeSuccess(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.Users.UserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ttl() time.Duration {
	if h.TokenTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return h.TokenTTL
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}
