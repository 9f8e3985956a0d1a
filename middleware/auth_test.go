package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/bookworm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func testUser(role string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com", Role: role}
}

func okHandler(t *testing.T, wantID primitive.ObjectID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantID, id)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthCookie(t *testing.T) {
	u := testUser(models.RoleNormal)
	tok, err := NewToken(testSecret, u, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	rec := httptest.NewRecorder()
	Auth(testSecret)(okHandler(t, u.ID)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthBearer(t *testing.T) {
	u := testUser(models.RoleAdmin)
	tok, err := NewToken(testSecret, u, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	Auth(testSecret)(okHandler(t, u.ID)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthRejects(t *testing.T) {
	u := testUser(models.RoleNormal)
	expired, err := NewToken(testSecret, u, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := NewToken("other", u, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID.Hex()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"garbage", "Bearer not-a-token"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
		{"alg none", "Bearer " + none},
		{"basic scheme", "Basic abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			})).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Auth(testSecret)(RequireAdmin(next))

	for _, tt := range []struct {
		role string
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleNormal, http.StatusForbidden},
	} {
		tok, err := NewToken(testSecret, testUser(tt.role), time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.role)
	}

	rec := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseTokenClaims(t *testing.T) {
	u := testUser(models.RoleAdmin)
	tok, err := NewToken(testSecret, u, time.Hour)
	require.NoError(t, err)

	c, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), c.Subject)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, "Ada", c.Name)
	assert.True(t, c.IsAdmin())
	assert.NotNil(t, c.IssuedAt)
}
