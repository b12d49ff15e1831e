package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stopmap/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionService
	Catalog  *usecases.CatalogService
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
	Version  string
}
