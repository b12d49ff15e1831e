package overlay

import (
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/ports"
)

// Options configures an Engine.
type Options struct {
	Metrics           ports.DeviceMetrics
	DefaultZoom       int
	MaxClusteringZoom int
	ClipMode          ClipMode
	Palette           []string
}

// Engine runs redraw passes for one map. It is not safe for concurrent use.
type Engine struct {
	viewport  *ViewportTracker
	stops     *StopPlotter
	routes    *RouteDrawer
	clusterer *Clusterer
}

// NewEngine wires the synchronizers for a map backed by catalog.
func NewEngine(catalog ports.StopCatalog, opts Options) *Engine {
	if catalog == nil {
		panic("overlay: nil catalog")
	}
	density := 1.0
	if opts.Metrics != nil {
		density = opts.Metrics.DensityFactor()
	}

	cl := NewClusterer(density)
	if opts.DefaultZoom > 0 {
		cl.DefaultZoom = opts.DefaultZoom
	}
	if opts.MaxClusteringZoom > 0 {
		cl.MaxClusteringZoom = opts.MaxClusteringZoom
	}

	return &Engine{
		viewport:  NewViewportTracker(),
		stops:     NewStopPlotter(catalog),
		routes:    NewRouteDrawer(NewLegend(opts.Palette), density, opts.ClipMode),
		clusterer: cl,
	}
}

// Stops exposes the stop plotter.
func (e *Engine) Stops() *StopPlotter { return e.stops }

// Viewport returns the viewport of the last pass.
func (e *Engine) Viewport() domain.GeoRectangle { return e.viewport.Current() }

// Redraw runs one full pass against surface: stops are marked, the nearest
// stop highlighted, routes of the selected stop drawn and the active markers
// clustered. Primitives are emitted to surface and returned as a Frame.
func (e *Engine) Redraw(surface ports.RendererSurface, sel ports.SelectionState) domain.Frame {
	if surface == nil {
		panic("overlay: nil surface")
	}
	viewport := e.viewport.Refresh(surface)
	zoom := surface.ZoomLevel()

	var selected, nearest *domain.Stop
	if sel != nil {
		selected, nearest = sel.Selected(), sel.Nearest()
	}

	stats := e.stops.MarkVisibleStops(viewport)
	e.stops.UpdateNearestMarker(nearest)

	polylines, rstats := e.routes.PlotRoutes(viewport, selected, zoom)
	stats.Add(rstats)

	singles, clusters := e.clusterer.Cluster(e.stops.ActiveMarkers(), zoom)
	stats.Clusters = len(clusters)

	for _, p := range polylines {
		surface.AddPolyline(p)
	}
	for _, m := range singles {
		surface.AddMarker(m)
	}
	for _, c := range clusters {
		surface.AddCluster(c)
	}

	return domain.Frame{
		Viewport:  viewport,
		Zoom:      zoom,
		Markers:   singles,
		Clusters:  clusters,
		Polylines: polylines,
		Legend:    e.routes.Legend().Entries(),
		Stats:     stats,
	}
}
