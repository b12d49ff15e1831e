package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" yaml:"lon" validate:"gte=-180,lte=180"`
}

// GeoRectangle is a visible map area given by its north-west and south-east
// corners. A normalized rectangle has NorthWest.Lat >= SouthEast.Lat and
// NorthWest.Lon <= SouthEast.Lon; wraparound at the antimeridian is not
// represented.
type GeoRectangle struct {
	NorthWest GeoPoint `json:"north_west"`
	SouthEast GeoPoint `json:"south_east"`
}

// WholeWorld covers every representable coordinate.
var WholeWorld = GeoRectangle{
	NorthWest: GeoPoint{Lat: 90, Lon: -180},
	SouthEast: GeoPoint{Lat: -90, Lon: 180},
}

func (r GeoRectangle) North() float64 { return r.NorthWest.Lat }
func (r GeoRectangle) South() float64 { return r.SouthEast.Lat }
func (r GeoRectangle) West() float64  { return r.NorthWest.Lon }
func (r GeoRectangle) East() float64  { return r.SouthEast.Lon }

// Normalized reports whether the corners satisfy the north-west/south-east
// ordering.
func (r GeoRectangle) Normalized() bool {
	return r.North() >= r.South() && r.West() <= r.East()
}

// NorthEast and SouthWest are the two remaining corners.
func (r GeoRectangle) NorthEast() GeoPoint { return GeoPoint{Lat: r.North(), Lon: r.East()} }
func (r GeoRectangle) SouthWest() GeoPoint { return GeoPoint{Lat: r.South(), Lon: r.West()} }

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Rectangle converts b to north-west/south-east form.
func (b Bounds) Rectangle() GeoRectangle {
	return GeoRectangle{
		NorthWest: GeoPoint{Lat: b.MaxLat, Lon: b.MinLon},
		SouthEast: GeoPoint{Lat: b.MinLat, Lon: b.MaxLon},
	}
}
