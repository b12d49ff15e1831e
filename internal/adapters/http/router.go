package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/stopmap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 600 requests per minute per IP; clients redraw on every pan.
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	stops := v1.Group("/stops", ETagMiddleware())
	stops.Get("/", timeout.NewWithContext(ListStopsHandler(deps), requestTimeout))
	stops.Get("/:number", timeout.NewWithContext(GetStopHandler(deps), requestTimeout))

	sessions := v1.Group("/sessions")
	sessions.Post("/", CreateSessionHandler(deps))
	sessions.Get("/:id", GetSessionHandler(deps))
	sessions.Delete("/:id", DeleteSessionHandler(deps))
	sessions.Put("/:id/viewport", SetViewportHandler(deps))
	sessions.Put("/:id/selection", SelectStopHandler(deps))
	sessions.Delete("/:id/selection", ClearSelectionHandler(deps))
	sessions.Put("/:id/location", UpdateLocationHandler(deps))
	sessions.Post("/:id/redraw", timeout.NewWithContext(RedrawHandler(deps), requestTimeout))
	sessions.Get("/:id/frame.geojson", timeout.NewWithContext(FrameGeoJSONHandler(deps), requestTimeout))
	sessions.Get("/:id/snapshot.png", timeout.NewWithContext(SnapshotHandler(deps), requestTimeout))
	sessions.Get("/:id/markers/:number", GetMarkerHandler(deps))

	app.Post("/graphql", GraphQLHandler(deps))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", RequireSession(deps), websocket.New(SessionSocketHandler(deps)))
}
