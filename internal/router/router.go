// Package router maps the HTTP surface onto handlers and guards each
// group with the right middleware chain.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dkruglov/library-service/internal/config"
	"github.com/dkruglov/library-service/internal/handler"
	"github.com/dkruglov/library-service/internal/middleware"
)

// Handlers collects every handler the routers need.
type Handlers struct {
	Auth         *handler.AuthHandler
	Books        *handler.BookHandler
	Authors      *handler.AuthorHandler
	Genres       *handler.GenreHandler
	Reservations *handler.ReservationHandler
	Loans        *handler.LoanHandler
	Reviews      *handler.ReviewHandler
	Stats        *handler.StatsHandler
}

// RegisterRoutes registers unauthenticated routes: the health check and
// the public catalog. Catalog reads sit behind the response cache and
// the rate limiter.
func RegisterRoutes(e *echo.Echo, h Handlers, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	pub := e.Group("/v1",
		middleware.RateLimit(rlCfg, rdb),
		middleware.ResponseCache(cacheCfg, rdb),
	)
	pub.GET("/books", h.Books.List)
	pub.GET("/books/:id", h.Books.Get)
	pub.GET("/books/:id/reviews", h.Reviews.ListForBook)
	pub.GET("/authors/names", h.Authors.Names)
	pub.GET("/genres/names", h.Genres.Names)
}

// RegisterAuth registers the token endpoints under /v1/auth plus the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout is deliberately outside the JWT middleware: a client whose
	// access token already expired can still end its session with the
	// refresh token alone.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
