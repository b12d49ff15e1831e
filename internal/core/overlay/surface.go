package overlay

import "github.com/samirrijal/stopmap/internal/core/domain"

// Recorder is a RendererSurface that keeps everything emitted to it. It
// backs sessions that are rendered remotely from a Frame.
type Recorder struct {
	Viewport domain.GeoRectangle
	Zoom     int

	Markers   []domain.MarkerRecord
	Clusters  []domain.Cluster
	Polylines []domain.Polyline
}

// NewRecorder returns a recorder showing viewport at zoom.
func NewRecorder(viewport domain.GeoRectangle, zoom int) *Recorder {
	return &Recorder{Viewport: viewport, Zoom: zoom}
}

func (r *Recorder) VisibleArea() domain.GeoRectangle { return r.Viewport }
func (r *Recorder) ZoomLevel() int                   { return r.Zoom }

func (r *Recorder) AddMarker(m domain.MarkerRecord) { r.Markers = append(r.Markers, m) }
func (r *Recorder) AddCluster(c domain.Cluster)     { r.Clusters = append(r.Clusters, c) }
func (r *Recorder) AddPolyline(p domain.Polyline)   { r.Polylines = append(r.Polylines, p) }

// FixedDensity is a DeviceMetrics with a constant scale factor.
type FixedDensity float64

func (d FixedDensity) DensityFactor() float64 { return float64(d) }
