package overlay

import (
	"fmt"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

// ClipMode selects which route segments survive viewport clipping.
type ClipMode string

const (
	// ClipStrict keeps a segment only when both endpoints are visible.
	ClipStrict ClipMode = "strict"
	// ClipCrossing keeps any segment that touches the viewport.
	ClipCrossing ClipMode = "crossing"
)

// ParseClipMode maps a config value to a ClipMode; the empty string is
// ClipStrict.
func ParseClipMode(s string) (ClipMode, error) {
	switch ClipMode(s) {
	case "", ClipStrict:
		return ClipStrict, nil
	case ClipCrossing:
		return ClipCrossing, nil
	default:
		return "", fmt.Errorf("unknown clip mode %q", s)
	}
}

// LineWidth is the stroke width for route polylines at zoom.
func LineWidth(zoom int, density float64) float64 {
	switch {
	case zoom > 14:
		return 7 * density
	case zoom > 10:
		return 5 * density
	default:
		return 2 * density
	}
}

// RouteDrawer turns the patterns of the selected stop's routes into
// viewport-clipped polylines. Nothing is retained between passes except the
// legend table, which is reset at the start of each pass.
type RouteDrawer struct {
	legend  *Legend
	density float64
	clip    ClipMode
}

// NewRouteDrawer returns a drawer that colours routes from legend.
func NewRouteDrawer(legend *Legend, density float64, clip ClipMode) *RouteDrawer {
	if legend == nil {
		panic("overlay: nil legend")
	}
	if clip == "" {
		clip = ClipStrict
	}
	return &RouteDrawer{legend: legend, density: density, clip: clip}
}

// Legend returns the table filled by the last pass.
func (d *RouteDrawer) Legend() *Legend { return d.legend }

// PlotRoutes produces one polyline per pattern of every route serving
// selected, holding the pattern's segments that fall inside viewport.
// Patterns with no surviving segment produce no polyline but still enter
// their route in the legend; a route without patterns has no legend entry.
func (d *RouteDrawer) PlotRoutes(viewport domain.GeoRectangle, selected *domain.Stop, zoom int) ([]domain.Polyline, domain.PassStats) {
	var stats domain.PassStats
	d.legend.Clear()
	if selected == nil {
		return nil, stats
	}

	width := LineWidth(zoom, d.density)
	var out []domain.Polyline
	for _, route := range selected.Routes {
		for _, pattern := range route.Patterns {
			color := d.legend.Add(route.Number)
			var segs []domain.Segment
			for i := 0; i+1 < len(pattern.Path); i++ {
				a, b := pattern.Path[i], pattern.Path[i+1]
				if !d.keep(viewport, a, b) {
					stats.SegmentsDropped++
					continue
				}
				segs = append(segs, domain.Segment{From: a, To: b})
				stats.SegmentsKept++
			}
			if len(segs) == 0 {
				continue
			}
			out = append(out, domain.Polyline{
				RouteNumber: route.Number,
				Pattern:     pattern.Name,
				Color:       color,
				Width:       width,
				Segments:    segs,
			})
		}
	}
	return out, stats
}

func (d *RouteDrawer) keep(viewport domain.GeoRectangle, a, b domain.GeoPoint) bool {
	crosses := geospatial.RectangleIntersectsLine(viewport, a, b)
	if d.clip == ClipCrossing {
		return crosses
	}
	return geospatial.RectangleContainsPoint(viewport, a) &&
		geospatial.RectangleContainsPoint(viewport, b) &&
		crosses
}
