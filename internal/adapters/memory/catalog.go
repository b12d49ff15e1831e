package memory

import (
	"slices"

	"github.com/tidwall/rtree"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

// Catalog is an immutable, fully resident stop catalog indexed by an R-tree.
// Points are stored as [lat, lon].
type Catalog struct {
	stops  []*domain.Stop
	byNum  map[int]*domain.Stop
	routes map[string]*domain.Route
	tree   rtree.RTreeG[int]
}

// NewCatalog indexes stops. The slice order becomes the catalog order.
func NewCatalog(stops []*domain.Stop) *Catalog {
	c := &Catalog{
		stops:  stops,
		byNum:  make(map[int]*domain.Stop, len(stops)),
		routes: make(map[string]*domain.Route),
	}
	for i, s := range stops {
		c.byNum[s.Number] = s
		for _, r := range s.Routes {
			c.routes[r.Number] = r
		}
		p := [2]float64{s.Location.Lat, s.Location.Lon}
		c.tree.Insert(p, p, i)
	}
	return c
}

// FromSnapshot links a snapshot and indexes the result.
func FromSnapshot(snap *domain.CatalogSnapshot) (*Catalog, error) {
	stops, err := snap.Link()
	if err != nil {
		return nil, err
	}
	return NewCatalog(stops), nil
}

func (c *Catalog) Stops() []*domain.Stop { return c.stops }

// Len is the number of stops.
func (c *Catalog) Len() int { return len(c.stops) }

// StopsWithin returns the stops inside r in catalog order. A rectangle with
// swapped corners yields nothing.
func (c *Catalog) StopsWithin(r domain.GeoRectangle) []*domain.Stop {
	if !r.Normalized() {
		return nil
	}
	var idx []int
	c.tree.Search(
		[2]float64{r.South(), r.West()},
		[2]float64{r.North(), r.East()},
		func(_, _ [2]float64, i int) bool {
			idx = append(idx, i)
			return true
		},
	)
	slices.Sort(idx)

	out := make([]*domain.Stop, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.stops[i])
	}
	return out
}

func (c *Catalog) StopByNumber(number int) (*domain.Stop, bool) {
	s, ok := c.byNum[number]
	return s, ok
}

func (c *Catalog) RouteByNumber(number string) (*domain.Route, bool) {
	r, ok := c.routes[number]
	return r, ok
}

// NearestStop returns the stop with the smallest great-circle distance to p
// among those within radiusMeters. Ties go to the earlier stop.
func (c *Catalog) NearestStop(p domain.GeoPoint, radiusMeters float64) *domain.Stop {
	box := geospatial.BoundingBox(p, radiusMeters)
	var (
		best     = -1
		bestDist = radiusMeters
	)
	c.tree.Search(
		[2]float64{box.South(), box.West()},
		[2]float64{box.North(), box.East()},
		func(_, _ [2]float64, i int) bool {
			d := geospatial.Distance(p, c.stops[i].Location)
			if d < bestDist || (d == bestDist && (best < 0 || i < best)) {
				best, bestDist = i, d
			}
			return true
		},
	)
	if best < 0 {
		return nil
	}
	return c.stops[best]
}
