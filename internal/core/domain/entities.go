package domain

// Stop represents a transit stop. Stops are read-only input to the overlay
// engine; Number is the stable identifier used to key retained markers.
type Stop struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Routes   []*Route `json:"-"`
}

// RouteNumbers lists the numbers of the routes serving s, in order.
func (s *Stop) RouteNumbers() []string {
	nums := make([]string, 0, len(s.Routes))
	for _, r := range s.Routes {
		nums = append(nums, r.Number)
	}
	return nums
}

// Route represents a transit route and its directional path variants.
type Route struct {
	Number   string          `json:"number" yaml:"number" validate:"required"`
	Name     string          `json:"name,omitempty" yaml:"name"`
	Patterns []*RoutePattern `json:"patterns,omitempty" yaml:"patterns" validate:"dive"`
}

// RoutePattern is one directional path variant of a route.
type RoutePattern struct {
	Name        string     `json:"name" yaml:"name" validate:"required"`
	Destination string     `json:"destination,omitempty" yaml:"destination"`
	Direction   string     `json:"direction,omitempty" yaml:"direction"`
	Path        []GeoPoint `json:"path" yaml:"path" validate:"dive"`
}
