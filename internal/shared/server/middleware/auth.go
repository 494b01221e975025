package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/auth"
	"sortir-backend/internal/shared/server/respond"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "sortir_session"

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
)

// TokenVerifier validates a session token.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth resolves the caller from a bearer token or the session cookie and
// stores the identity in the context. Paths in public skip the check; a path
// ending in "/" matches everything under it.
func Auth(verifier TokenVerifier, public ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if isPublic(c.Request.URL.Path, public) {
			c.Next()
			return
		}

		token, ok := tokenFromRequest(c)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(userNameKey, claims.Name)
		}
		if claims.Picture != "" {
			c.Set(userPictureKey, claims.Picture)
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		return token, token != ""
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie), true
	}
	return "", false
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
