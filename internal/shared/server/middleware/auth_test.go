package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/auth"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (auth.Claims, error) {
	sub, ok := s[token]
	if !ok {
		return auth.Claims{}, errors.New("bad token")
	}
	claims := auth.Claims{Email: sub + "@example.com"}
	claims.Subject = sub
	return claims, nil
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(stubVerifier{"good": "user-1"}, "/api/health", "/api/auth/"))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c), "email": UserEmailFromContext(c)})
	}
	router.GET("/api/files", handler)
	router.GET("/api/health", handler)
	router.GET("/api/auth/google/start", handler)
	router.OPTIONS("/api/files", handler)
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/files", nil)
	resp := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	resp := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthAcceptsBearerAndCookie(t *testing.T) {
	router := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("cookie: expected 200, got %d", resp.Code)
	}
}

func TestAuthPublicPaths(t *testing.T) {
	router := newAuthRouter()
	for _, path := range []string{"/api/health", "/api/auth/google/start"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 without token, got %d", path, resp.Code)
		}
	}
}
