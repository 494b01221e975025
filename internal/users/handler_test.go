package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/auth"
	"sortir-backend/internal/shared/server/middleware"
)

func newUsersRouter(t *testing.T) (*gin.Engine, *auth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer, err := auth.NewSigner("test-secret", 0)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.Auth(signer, "/api/signup", "/api/login", "/api/logout"))
	NewHandler(newTestService(), signer, false).RegisterRoutes(api)
	return router, signer
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func sessionCookie(resp *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSignupLoginMe(t *testing.T) {
	router, signer := newUsersRouter(t)

	resp := postJSON(router, "/api/signup", `{"email":"dana@example.com","password":"password1"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var signup struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &signup); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	if !signup.Success || signup.Token == "" {
		t.Fatalf("unexpected signup body %+v", signup)
	}
	if _, err := signer.Verify(signup.Token); err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	resp = postJSON(router, "/api/login", `{"email":"DANA@example.com","password":"password1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.Code)
	}
	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", me.Code)
	}
	if !strings.Contains(me.Body.String(), "dana@example.com") {
		t.Fatalf("unexpected me body %s", me.Body.String())
	}
	if strings.Contains(me.Body.String(), "passwordHash") {
		t.Fatalf("password hash leaked: %s", me.Body.String())
	}
}

func TestSignupErrors(t *testing.T) {
	router, _ := newUsersRouter(t)

	if resp := postJSON(router, "/api/signup", `{"email":"x@example.com","password":"short"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", resp.Code)
	}
	long := strings.Repeat("p", 80)
	if resp := postJSON(router, "/api/signup", `{"email":"x@example.com","password":"`+long+`"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("80-byte password: expected 400, got %d", resp.Code)
	}
	if resp := postJSON(router, "/api/signup", `{"email":"x@example.com","password":"password1"}`); resp.Code != http.StatusCreated {
		t.Fatalf("first signup: expected 201, got %d", resp.Code)
	}
	if resp := postJSON(router, "/api/signup", `{"email":"x@example.com","password":"password1"}`); resp.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newUsersRouter(t)
	postJSON(router, "/api/signup", `{"email":"e@example.com","password":"password1"}`)

	resp := postJSON(router, "/api/login", `{"email":"e@example.com","password":"nope-nope"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if sessionCookie(resp) != nil {
		t.Fatalf("no cookie expected on failed login")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	router, _ := newUsersRouter(t)
	resp := postJSON(router, "/api/logout", ``)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	cookie := sessionCookie(resp)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookie)
	}
}

func TestMeRequiresSession(t *testing.T) {
	router, _ := newUsersRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
