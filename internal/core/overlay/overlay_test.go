package overlay_test

import (
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

// sliceCatalog is a linear-scan StopCatalog.
type sliceCatalog struct {
	stops []*domain.Stop
}

func (c *sliceCatalog) Stops() []*domain.Stop { return c.stops }

func (c *sliceCatalog) StopsWithin(r domain.GeoRectangle) []*domain.Stop {
	var out []*domain.Stop
	for _, s := range c.stops {
		if geospatial.RectangleContainsPoint(r, s.Location) {
			out = append(out, s)
		}
	}
	return out
}

func (c *sliceCatalog) StopByNumber(n int) (*domain.Stop, bool) {
	for _, s := range c.stops {
		if s.Number == n {
			return s, true
		}
	}
	return nil, false
}

func (c *sliceCatalog) RouteByNumber(n string) (*domain.Route, bool) {
	for _, s := range c.stops {
		for _, r := range s.Routes {
			if r.Number == n {
				return r, true
			}
		}
	}
	return nil, false
}

func (c *sliceCatalog) NearestStop(p domain.GeoPoint, radius float64) *domain.Stop {
	var best *domain.Stop
	bestDist := radius
	for _, s := range c.stops {
		if d := geospatial.Distance(p, s.Location); d <= bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

type selection struct {
	selected, nearest *domain.Stop
}

func (s selection) Selected() *domain.Stop { return s.selected }
func (s selection) Nearest() *domain.Stop  { return s.nearest }

func pt(lat, lon float64) domain.GeoPoint { return domain.GeoPoint{Lat: lat, Lon: lon} }

func rect(north, west, south, east float64) domain.GeoRectangle {
	return domain.GeoRectangle{NorthWest: pt(north, west), SouthEast: pt(south, east)}
}

func route(number string, paths ...[]domain.GeoPoint) *domain.Route {
	r := &domain.Route{Number: number}
	for i, p := range paths {
		r.Patterns = append(r.Patterns, &domain.RoutePattern{Name: number + "-" + string(rune('a'+i)), Path: p})
	}
	return r
}

// downtown is a viewport around the three stops of vancouver().
var downtown = rect(49.30, -123.20, 49.20, -123.00)

func vancouver() *sliceCatalog {
	r99 := route("99", []domain.GeoPoint{pt(49.26, -123.15), pt(49.26, -123.10), pt(49.26, -123.05)})
	r9 := route("9", []domain.GeoPoint{pt(49.25, -123.18), pt(49.25, -123.10)})
	return &sliceCatalog{stops: []*domain.Stop{
		{Number: 50001, Name: "Commercial-Broadway", Location: pt(49.262, -123.069), Routes: []*domain.Route{r99, r9}},
		{Number: 50002, Name: "Granville", Location: pt(49.283, -123.116), Routes: []*domain.Route{r9}},
		{Number: 50003, Name: "UBC Loop", Location: pt(49.267, -123.247), Routes: []*domain.Route{r99}},
	}}
}
