package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-seat-booking/internal/handler"
    "github.com/iliyamo/event-seat-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the identity provider endpoints. The
// unauthenticated operations (register, login, refresh, logout) live
// under /auth; /me requires a valid access token and is guarded by the
// JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    e.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterSeats registers the seat-booking surface. Every seat route
// requires a bearer token: the lock and booking state machine is keyed
// by the resolved user id, so anonymous access is meaningless. The
// optional extra middleware (rate limiting, response caching) is
// applied after authentication so limiter keys can include the user.
func RegisterSeats(e *echo.Echo, s *handler.SeatHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
    g := e.Group("/seats")
    g.Use(middleware.JWTAuth(jwtSecret))
    for _, m := range extra {
        g.Use(m)
    }

    g.GET("", s.List)
    g.POST("/init", s.Init)
    g.POST("/reset", s.Reset)
    g.POST("/:id/lock", s.Lock)
    g.DELETE("/:id/lock", s.Release)
    g.POST("/:id/book", s.Book)
}
