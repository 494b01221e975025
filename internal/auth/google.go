package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "sortir-backend/internal/shared/auth"
	"sortir-backend/internal/shared/server/respond"
	"sortir-backend/internal/shared/telemetry"
	"sortir-backend/internal/users"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// IdentityStore persists identities asserted by Google.
type IdentityStore interface {
	UpsertFromAuth(ctx context.Context, user users.User) error
}

// GoogleService handles Google OAuth flows.
type GoogleService struct {
	oauthConfig  *oauth2.Config
	uiRedirect   string
	stateTTL     time.Duration
	stateStore   *stateStore
	tokens       *sharedauth.Signer
	identities   IdentityStore
	userInfoURL  string
	secureCookie bool
}

// GoogleOptions configures NewGoogleService.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UIRedirect   string
	SecureCookie bool
}

// NewGoogleService builds a GoogleService.
func NewGoogleService(opts GoogleOptions, tokens *sharedauth.Signer, identities IdentityStore) *GoogleService {
	clientID, clientSecret, redirectURL := opts.ClientID, opts.ClientSecret, opts.RedirectURL
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		uiRedirect:   opts.UIRedirect,
		stateTTL:     5 * time.Minute,
		stateStore:   newStateStore(),
		tokens:       tokens,
		identities:   identities,
		userInfoURL:  defaultUserInfoURL,
		secureCookie: opts.SecureCookie,
	}
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) start(c *gin.Context) {
	if s.oauthConfig.ClientID == "" || s.oauthConfig.ClientSecret == "" || s.oauthConfig.RedirectURL == "" {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	s.stateStore.put(state, time.Now().Add(s.stateTTL))

	url := s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusFound, url)
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}

	if !s.stateStore.consume(state) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}

	userInfo, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		respond.ErrorCause(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", err)
		return
	}

	if userInfo.Sub == "" || userInfo.Email == "" {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "invalid user profile", nil)
		return
	}

	userID := "google:" + userInfo.Sub
	if s.identities != nil {
		err := s.identities.UpsertFromAuth(ctx, users.User{
			ID:         userID,
			Email:      userInfo.Email,
			FullName:   userInfo.Name,
			PictureURL: userInfo.Picture,
			Provider:   users.ProviderGoogle,
		})
		if err != nil {
			telemetry.Error("auth.google_upsert_failed", map[string]any{"user_id": userID, "error": err})
			if errors.Is(err, users.ErrEmailTaken) {
				respond.Error(c, http.StatusConflict, "email_taken", "An account with this email already exists", nil)
				return
			}
			respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to save user", err)
			return
		}
	}

	jwt, exp, err := s.tokens.Sign(userID, sharedauth.Claims{
		Email:   users.NormalizeEmail(userInfo.Email),
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	})
	if err != nil {
		respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to issue token", err)
		return
	}
	users.SetSessionCookie(c, jwt, exp, s.secureCookie)

	redirectURL, err := appendToken(s.uiRedirect, jwt)
	if err != nil {
		respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to redirect", err)
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}

	// Some responses use "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

type stateStore struct {
	items map[string]time.Time
	mu    sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]time.Time)}
}

func (s *stateStore) put(state string, exp time.Time) {
	now := time.Now()
	s.mu.Lock()
	for k, v := range s.items {
		if now.After(v) {
			delete(s.items, k)
		}
	}
	s.items[state] = exp
	s.mu.Unlock()
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	exp, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		return false
	}
	return true
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
