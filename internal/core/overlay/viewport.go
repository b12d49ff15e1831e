package overlay

import (
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/ports"
)

// ViewportTracker caches the visible area of the host surface. Before the
// first Refresh it reports the whole world.
type ViewportTracker struct {
	current domain.GeoRectangle
}

// NewViewportTracker returns a tracker whose initial viewport is the whole
// world.
func NewViewportTracker() *ViewportTracker {
	return &ViewportTracker{current: domain.WholeWorld}
}

// Refresh re-reads the visible area from the surface.
func (t *ViewportTracker) Refresh(surface ports.RendererSurface) domain.GeoRectangle {
	t.current = surface.VisibleArea()
	return t.current
}

// Current returns the last refreshed viewport.
func (t *ViewportTracker) Current() domain.GeoRectangle {
	return t.current
}
