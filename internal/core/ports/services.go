package ports

import (
	"context"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// RendererSurface is the host map a redraw pass reads its view from and
// emits drawing primitives to.
type RendererSurface interface {
	VisibleArea() domain.GeoRectangle
	ZoomLevel() int
	AddMarker(m domain.MarkerRecord)
	AddCluster(c domain.Cluster)
	AddPolyline(p domain.Polyline)
}

// DeviceMetrics exposes the display density scaling factor.
type DeviceMetrics interface {
	DensityFactor() float64
}

// SelectionState is read by a redraw pass to find the stop whose routes are
// drawn and the stop nearest the user.
type SelectionState interface {
	Selected() *domain.Stop
	Nearest() *domain.Stop
}

// FramePublisher broadcasts finished frames to interested subscribers.
type FramePublisher interface {
	PublishFrame(ctx context.Context, sessionID string, frame *domain.Frame) error
}

// LocationUpdate is a device position report addressed to a session.
type LocationUpdate struct {
	SessionID string          `json:"session_id"`
	Location  domain.GeoPoint `json:"location"`
}

// LocationSubscriber delivers location reports from a message broker.
type LocationSubscriber interface {
	SubscribeLocations(ctx context.Context, handler func(ctx context.Context, u LocationUpdate) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
