package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/ticketrush/booking/internal/config"
    "github.com/ticketrush/booking/internal/handler"    // import the handlers that implement business logic
    "github.com/ticketrush/booking/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is
    // up.
    e.GET("/healthz", handler.Health)
}

// RegisterBooking registers the booking intake and ticket retrieval
// endpoints.  All of them require a valid access token; the intake
// endpoints are additionally guarded by the Redis token bucket so a
// single caller cannot monopolize a ticket rush.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))

    limited := g.Group("")
    limited.Use(middleware.NewTokenBucket(rl, rdb))
    // Create a booking for an event: direct mode locks seats
    // synchronously, queued mode defers everything to the worker.
    limited.POST("/events/:id/bookings", b.CreateBooking)
    // Give up held seats before the TTL runs out.
    limited.DELETE("/events/:id/seats", b.ReleaseSeats)

    // Polling fallback for clients that missed the confirmation push.
    g.GET("/bookings/:id/tickets", b.TicketsByBooking)
}

// RegisterNotifications registers the notification inbox and live
// stream endpoints under the same JWT protection.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, jwtSecret string) {
    g := e.Group("/v1/notifications")
    g.Use(middleware.JWTAuth(jwtSecret))
    // List the caller's persisted notifications, newest first.
    g.GET("", n.List)
    // Acknowledge a single notification.
    g.POST("/:id/read", n.MarkRead)
    // Server-sent event stream of live pushes for this user.
    g.GET("/stream", n.Stream)
}
