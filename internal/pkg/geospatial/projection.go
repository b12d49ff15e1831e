package geospatial

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// TileSize is the edge length in pixels of one slippy-map tile.
const TileSize = 256

// maxMercatorLat is the latitude at which Web Mercator is cut off.
const maxMercatorLat = 85.05112878

// PixelXY projects p to Web Mercator world pixel coordinates at the given
// zoom level. The origin is the north-west corner of the world; Y grows
// southwards.
func PixelXY(p domain.GeoPoint, zoom int) vec.Vec2 {
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p.Lat))
	size := float64(TileSize) * math.Pow(2, float64(zoom))

	x := (p.Lon + 180.0) / 360.0 * size
	latRad := lat * math.Pi / 180.0
	y := (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * size
	return vec.Vec2{X: x, Y: y}
}

// PixelDistance is the Euclidean distance between two pixel positions.
func PixelDistance(a, b vec.Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
