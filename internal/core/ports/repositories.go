package ports

import (
	"context"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// CatalogRepository loads the transit model from durable storage.
type CatalogRepository interface {
	LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error)
}

// CatalogWriter replaces the stored transit model.
type CatalogWriter interface {
	SaveCatalog(ctx context.Context, snapshot *domain.CatalogSnapshot) error
}

// StopCatalog is the in-memory, read-only view of the transit model the
// overlay engine queries.
type StopCatalog interface {
	// Stops returns every stop in catalog order.
	Stops() []*domain.Stop
	// StopsWithin returns the stops whose location lies in r, in catalog order.
	StopsWithin(r domain.GeoRectangle) []*domain.Stop
	StopByNumber(number int) (*domain.Stop, bool)
	RouteByNumber(number string) (*domain.Route, bool)
	// NearestStop returns the closest stop within radiusMeters of p, or nil.
	NearestStop(p domain.GeoPoint, radiusMeters float64) *domain.Stop
}
