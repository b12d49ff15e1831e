package geospatial

import (
	"seehuhn.de/go/geom/vec"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// RectangleContainsPoint reports whether p lies inside r, boundary included.
func RectangleContainsPoint(r domain.GeoRectangle, p domain.GeoPoint) bool {
	return between(p.Lat, r.South(), r.North()) && between(p.Lon, r.West(), r.East())
}

// RectangleIntersectsLine reports whether the segment a-b has at least one
// point in common with r (interior or boundary). A rectangle with swapped
// corners is empty and intersects nothing.
func RectangleIntersectsLine(r domain.GeoRectangle, a, b domain.GeoPoint) bool {
	if !r.Normalized() {
		return false
	}
	if RectangleContainsPoint(r, a) || RectangleContainsPoint(r, b) {
		return true
	}

	nw, ne := r.NorthWest, r.NorthEast()
	sw, se := r.SouthWest(), r.SouthEast
	return segmentsIntersect(a, b, nw, ne) ||
		segmentsIntersect(a, b, ne, se) ||
		segmentsIntersect(a, b, se, sw) ||
		segmentsIntersect(a, b, sw, nw)
}

// ToVec copies a geographic coordinate into the renderer point type
// (X = longitude, Y = latitude).
func ToVec(p domain.GeoPoint) vec.Vec2 {
	return vec.Vec2{X: p.Lon, Y: p.Lat}
}

// FromVec is the inverse of ToVec.
func FromVec(v vec.Vec2) domain.GeoPoint {
	return domain.GeoPoint{Lat: v.Y, Lon: v.X}
}

func between(v, lo, hi float64) bool {
	return lo <= v && v <= hi
}

// orientation returns +1 for a counter-clockwise turn p->q->r, -1 for
// clockwise and 0 for collinear points.
func orientation(p, q, r domain.GeoPoint) int {
	cross := (q.Lon-p.Lon)*(r.Lat-p.Lat) - (q.Lat-p.Lat)*(r.Lon-p.Lon)
	switch {
	case cross > 0:
		return 1
	case cross < 0:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether r, known to be collinear with p-q, lies within
// the bounding box of p-q.
func onSegment(p, q, r domain.GeoPoint) bool {
	return between(r.Lat, min(p.Lat, q.Lat), max(p.Lat, q.Lat)) &&
		between(r.Lon, min(p.Lon, q.Lon), max(p.Lon, q.Lon))
}

func segmentsIntersect(p1, p2, q1, q2 domain.GeoPoint) bool {
	o1 := orientation(p1, p2, q1)
	o2 := orientation(p1, p2, q2)
	o3 := orientation(q1, q2, p1)
	o4 := orientation(q1, q2, p2)

	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}

	return (o1 == 0 && onSegment(p1, p2, q1)) ||
		(o2 == 0 && onSegment(p1, p2, q2)) ||
		(o3 == 0 && onSegment(q1, q2, p1)) ||
		(o4 == 0 && onSegment(q1, q2, p2))
}
