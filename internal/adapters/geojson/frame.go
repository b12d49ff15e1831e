// Package geojson exports overlay frames as GeoJSON feature collections.
package geojson

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

func point(p domain.GeoPoint) orb.Point { return orb.Point{p.Lon, p.Lat} }

// FromFrame converts a frame into a feature collection: one Point per
// marker and cluster and one MultiLineString per polyline. The collection's
// bbox is the frame viewport.
func FromFrame(f *domain.Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(orb.Bound{
		Min: orb.Point{f.Viewport.West(), f.Viewport.South()},
		Max: orb.Point{f.Viewport.East(), f.Viewport.North()},
	})

	for _, p := range f.Polylines {
		var mls orb.MultiLineString
		for _, path := range p.Paths() {
			ls := make(orb.LineString, 0, len(path))
			for _, gp := range path {
				ls = append(ls, point(gp))
			}
			mls = append(mls, ls)
		}
		feat := geojson.NewFeature(mls)
		feat.Properties["kind"] = "route"
		feat.Properties["route"] = p.RouteNumber
		feat.Properties["pattern"] = p.Pattern
		feat.Properties["stroke"] = p.Color
		feat.Properties["stroke-width"] = p.Width
		fc.Append(feat)
	}

	for _, m := range f.Markers {
		feat := geojson.NewFeature(point(m.Position))
		feat.ID = m.StopNumber
		feat.Properties["kind"] = "stop"
		feat.Properties["title"] = m.Title
		feat.Properties["icon"] = string(m.Icon)
		fc.Append(feat)
	}

	for _, c := range f.Clusters {
		feat := geojson.NewFeature(point(c.Position))
		feat.Properties["kind"] = "cluster"
		feat.Properties["label"] = c.Label
		feat.Properties["count"] = len(c.Members)
		feat.Properties["text_size"] = c.TextSize
		feat.Properties["icon"] = string(c.Icon)
		fc.Append(feat)
	}
	return fc
}
