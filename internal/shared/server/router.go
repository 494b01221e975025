package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/config"
	"sortir-backend/internal/shared/metrics"
	"sortir-backend/internal/shared/server/middleware"
	"sortir-backend/internal/shared/server/respond"
)

const (
	rateGroupAsk     = "ASK"
	rateGroupDefault = "DEFAULT"
)

// PublicPaths bypass authentication. Entries ending in "/" match a prefix.
var PublicPaths = []string{
	"/api/health",
	"/api/signup",
	"/api/login",
	"/api/logout",
	"/api/auth/",
	"/metrics",
}

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type RouterDeps struct {
	Config      config.Config
	Tokens      middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter
	Handlers    []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigins),
		middleware.Auth(deps.Tokens, PublicPaths...),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupAsk:     middleware.PerMinute(deps.Config.RateLimitAskPerMinute),
				rateGroupDefault: middleware.PerMinute(deps.Config.RateLimitDefaultPerMinute),
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.FullPath() == "/api/ask" {
		return rateGroupAsk
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
