package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/auth"
	"sortir-backend/internal/shared/server/middleware"
	"sortir-backend/internal/shared/server/respond"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	PictureURL string    `json:"pictureUrl"`
	Provider   string    `json:"provider"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Handler struct {
	Svc          *Service
	Tokens       *auth.Signer
	SecureCookie bool
}

func NewHandler(svc *Service, tokens *auth.Signer, secureCookie bool) *Handler {
	return &Handler{Svc: svc, Tokens: tokens, SecureCookie: secureCookie}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.signup)
	rg.POST("/login", h.login)
	rg.POST("/logout", h.logout)
	rg.GET("/me", h.me)
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	user, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrEmailTaken):
			respond.Error(c, http.StatusConflict, "email_taken", "An account with this email already exists", nil)
		default:
			respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to create account", err)
		}
		return
	}
	h.issueSession(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	user, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
		default:
			respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to log in", err)
		}
		return
	}
	h.issueSession(c, http.StatusOK, user)
}

func (h *Handler) logout(c *gin.Context) {
	ClearSessionCookie(c, h.SecureCookie)
	respond.Success(c, http.StatusOK, nil)
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		default:
			respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to load user", err)
		}
		return
	}
	respond.OK(c, userResponse{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		PictureURL: user.PictureURL,
		Provider:   user.Provider,
		CreatedAt:  user.CreatedAt,
	})
}

func (h *Handler) issueSession(c *gin.Context, status int, user User) {
	token, exp, err := h.Tokens.Sign(user.ID, auth.Claims{Email: user.Email, Name: user.FullName, Picture: user.PictureURL})
	if err != nil {
		respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to issue token", err)
		return
	}
	SetSessionCookie(c, token, exp, h.SecureCookie)
	respond.Success(c, status, gin.H{"token": token})
}

// SetSessionCookie stores token in the HttpOnly session cookie until exp.
func SetSessionCookie(c *gin.Context, token string, exp time.Time, secure bool) {
	maxAge := int(time.Until(exp).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", secure, true)
}
