package domain

import "fmt"

// StopEntry is the serialisable form of a Stop: routes are referenced by
// number instead of by pointer.
type StopEntry struct {
	Number   int      `json:"number" yaml:"number" validate:"required,gt=0"`
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Location GeoPoint `json:"location" yaml:"location"`
	Routes   []string `json:"routes" yaml:"routes"`
}

// CatalogSnapshot is a complete, self-contained copy of the transit model as
// loaded from storage or cached between restarts.
type CatalogSnapshot struct {
	Routes []Route     `json:"routes" yaml:"routes" validate:"dive"`
	Stops  []StopEntry `json:"stops" yaml:"stops" validate:"dive"`
}

// Link resolves route references and returns the stops in snapshot order.
// Each route number maps to a single shared *Route.
func (c *CatalogSnapshot) Link() ([]*Stop, error) {
	routes := make(map[string]*Route, len(c.Routes))
	for i := range c.Routes {
		r := c.Routes[i]
		if _, dup := routes[r.Number]; dup {
			return nil, fmt.Errorf("duplicate route %q", r.Number)
		}
		routes[r.Number] = &r
	}

	seen := make(map[int]struct{}, len(c.Stops))
	stops := make([]*Stop, 0, len(c.Stops))
	for _, e := range c.Stops {
		if _, dup := seen[e.Number]; dup {
			return nil, fmt.Errorf("duplicate stop %d", e.Number)
		}
		seen[e.Number] = struct{}{}

		s := &Stop{Number: e.Number, Name: e.Name, Location: e.Location}
		for _, num := range e.Routes {
			r, ok := routes[num]
			if !ok {
				return nil, fmt.Errorf("stop %d: unknown route %q", e.Number, num)
			}
			s.Routes = append(s.Routes, r)
		}
		stops = append(stops, s)
	}
	return stops, nil
}
