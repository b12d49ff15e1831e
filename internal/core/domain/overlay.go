package domain

import "time"

// Icon identifies the drawable used for a marker or cluster.
type Icon string

const (
	IconStop        Icon = "stop"
	IconNearestStop Icon = "nearest_stop"
	IconStopCluster Icon = "stop_cluster"
)

// MarkerHandle indexes a retained marker. Handles are stable for the lifetime
// of the table that issued them.
type MarkerHandle int

// MarkerRecord binds one stop to its persistent visual marker.
type MarkerRecord struct {
	Handle     MarkerHandle `json:"handle"`
	StopNumber int          `json:"stop_number"`
	Title      string       `json:"title"`
	Position   GeoPoint     `json:"position"`
	Icon       Icon         `json:"icon"`
}

// Segment is a two-point line primitive.
type Segment struct {
	From GeoPoint `json:"from"`
	To   GeoPoint `json:"to"`
}

// Polyline carries the visible segments of one route pattern for a single
// plotting pass.
type Polyline struct {
	RouteNumber string    `json:"route_number"`
	Pattern     string    `json:"pattern"`
	Color       string    `json:"color"`
	Width       float64   `json:"width"`
	Segments    []Segment `json:"segments"`
}

// Paths coalesces segments that share an endpoint with their predecessor
// into continuous point runs, preserving order.
func (p Polyline) Paths() [][]GeoPoint {
	var paths [][]GeoPoint
	var cur []GeoPoint
	for _, s := range p.Segments {
		if len(cur) > 0 && cur[len(cur)-1] == s.From {
			cur = append(cur, s.To)
			continue
		}
		if len(cur) > 0 {
			paths = append(paths, cur)
		}
		cur = []GeoPoint{s.From, s.To}
	}
	if len(cur) > 0 {
		paths = append(paths, cur)
	}
	return paths
}

// Cluster stands in for a group of nearby markers.
type Cluster struct {
	Position GeoPoint       `json:"position"`
	Members  []MarkerHandle `json:"members"`
	Label    string         `json:"label"`
	TextSize float64        `json:"text_size"`
	Icon     Icon           `json:"icon"`
}

// LegendEntry maps a route number to the colour it was drawn with.
type LegendEntry struct {
	RouteNumber string `json:"route_number"`
	Color       string `json:"color"`
}

// PassStats summarises the work done by one redraw.
type PassStats struct {
	VisibleStops    int `json:"visible_stops"`
	MarkersCreated  int `json:"markers_created"`
	MarkersReused   int `json:"markers_reused"`
	SegmentsKept    int `json:"segments_kept"`
	SegmentsDropped int `json:"segments_dropped"`
	Clusters        int `json:"clusters"`
}

// Frame is the immutable result of a redraw pass.
type Frame struct {
	Viewport  GeoRectangle   `json:"viewport"`
	Zoom      int            `json:"zoom"`
	Markers   []MarkerRecord `json:"markers"`
	Clusters  []Cluster      `json:"clusters"`
	Polylines []Polyline     `json:"polylines"`
	Legend    []LegendEntry  `json:"legend"`
	Stats     PassStats      `json:"stats"`
}

// Add accumulates o into s.
func (s *PassStats) Add(o PassStats) {
	s.VisibleStops += o.VisibleStops
	s.MarkersCreated += o.MarkersCreated
	s.MarkersReused += o.MarkersReused
	s.SegmentsKept += o.SegmentsKept
	s.SegmentsDropped += o.SegmentsDropped
	s.Clusters += o.Clusters
}

// SessionState describes a map session without its retained markers.
type SessionState struct {
	ID           string       `json:"id"`
	Viewport     GeoRectangle `json:"viewport"`
	Zoom         int          `json:"zoom"`
	SelectedStop *int         `json:"selected_stop,omitempty"`
	NearestStop  *int         `json:"nearest_stop,omitempty"`
	Location     *GeoPoint    `json:"location,omitempty"`
	Markers      int          `json:"markers"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
