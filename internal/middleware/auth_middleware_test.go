package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"depanku-backend/internal/authorization"
)

const testSecret = "middleware-test-secret"

func signTestToken(t *testing.T, userID uint, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	router.GET("/admin/users", AuthMiddleware(testSecret),
		RequirePermission(authorization.PermissionManageUsers), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	router.PUT("/admin/opportunities/:id/moderate", AuthMiddleware(testSecret),
		RequirePermission(authorization.PermissionModerateListings), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	router.GET("/public", OptionalAuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("user_id")})
	})

	return router
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, 42, "user"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["user_id"] != float64(42) {
		t.Fatalf("expected user_id 42, got %v", body["user_id"])
	}
}

func TestAuthMiddlewareAcceptsCookieToken(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AuthTokenCookieName, Value: signTestToken(t, 7, "user")})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	router := newAuthTestRouter()

	claims := jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequirePermissionGatesOnRoleClaim(t *testing.T) {
	router := newAuthTestRouter()

	cases := []struct {
		method string
		path   string
		role   string
		want   int
	}{
		// user management is admin-only
		{http.MethodGet, "/admin/users", authorization.RoleUser.String(), http.StatusForbidden},
		{http.MethodGet, "/admin/users", authorization.RoleModerator.String(), http.StatusForbidden},
		{http.MethodGet, "/admin/users", authorization.RoleAdmin.String(), http.StatusOK},
		// listing moderation is open to moderators
		{http.MethodPut, "/admin/opportunities/3/moderate", authorization.RoleUser.String(), http.StatusForbidden},
		{http.MethodPut, "/admin/opportunities/3/moderate", authorization.RoleModerator.String(), http.StatusOK},
		{http.MethodPut, "/admin/opportunities/3/moderate", authorization.RoleAdmin.String(), http.StatusOK},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, 1, tc.role))
		router.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Fatalf("%s %s as %s: expected %d, got %d", tc.method, tc.path, tc.role, tc.want, w.Code)
		}
	}
}

func TestRequirePermissionRejectsUnknownRoleValue(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, 1, "superuser"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown role, got %d", w.Code)
	}
}

func TestOptionalAuthMiddlewarePassesAnonymously(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["user_id"] != float64(0) {
		t.Fatalf("expected anonymous user_id 0, got %v", body["user_id"])
	}
}

func TestOptionalAuthMiddlewareLoadsIdentityWhenPresent(t *testing.T) {
	router := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, 9, "user"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"user_id":9`) {
		t.Fatalf("expected body to carry user_id 9, got %s", w.Body.String())
	}
}
