package overlay

import (
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/ports"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

// StopPlotter maintains the stop markers of one session and the group of
// markers that is handed to the clusterer on each pass.
type StopPlotter struct {
	catalog ports.StopCatalog
	markers *MarkerTable
	active  []domain.MarkerHandle

	nearest    domain.MarkerHandle
	hasNearest bool
}

// NewStopPlotter returns a plotter with an empty marker table.
func NewStopPlotter(catalog ports.StopCatalog) *StopPlotter {
	return &StopPlotter{catalog: catalog, markers: NewMarkerTable()}
}

// Markers exposes the underlying marker table.
func (p *StopPlotter) Markers() *MarkerTable { return p.markers }

// MarkVisibleStops rebuilds the active group from the stops inside
// viewport, creating markers for stops seen for the first time. Markers
// of stops outside the viewport are kept but not added to the group.
func (p *StopPlotter) MarkVisibleStops(viewport domain.GeoRectangle) domain.PassStats {
	var stats domain.PassStats
	p.active = p.active[:0]

	for _, stop := range p.catalog.StopsWithin(viewport) {
		if !geospatial.RectangleContainsPoint(viewport, stop.Location) {
			continue
		}
		stats.VisibleStops++

		h, ok := p.markers.Lookup(stop.Number)
		if ok {
			stats.MarkersReused++
		} else {
			h = p.markers.Create(stop, domain.IconStop)
			stats.MarkersCreated++
		}
		p.active = append(p.active, h)
	}
	return stats
}

// UpdateNearestMarker moves the nearest-stop highlight to nearest. The
// previous highlight reverts to the normal icon. A nil stop only clears the
// highlight. A marker created here joins the active group; an existing one
// keeps its membership unchanged.
func (p *StopPlotter) UpdateNearestMarker(nearest *domain.Stop) {
	if p.hasNearest {
		p.markers.SetIcon(p.nearest, domain.IconStop)
		p.hasNearest = false
	}
	if nearest == nil {
		return
	}

	h, ok := p.markers.Lookup(nearest.Number)
	if ok {
		p.markers.SetIcon(h, domain.IconNearestStop)
	} else {
		h = p.markers.Create(nearest, domain.IconNearestStop)
		p.active = append(p.active, h)
	}
	p.nearest = h
	p.hasNearest = true
}

// ActiveMarkers returns copies of the markers in the active group, in the
// order they were added.
func (p *StopPlotter) ActiveMarkers() []domain.MarkerRecord {
	out := make([]domain.MarkerRecord, 0, len(p.active))
	for _, h := range p.active {
		out = append(out, p.markers.Record(h))
	}
	return out
}

// Marker returns the retained marker of a stop, if one was ever created.
func (p *StopPlotter) Marker(stopNumber int) (domain.MarkerRecord, bool) {
	h, ok := p.markers.Lookup(stopNumber)
	if !ok {
		return domain.MarkerRecord{}, false
	}
	return p.markers.Record(h), true
}
