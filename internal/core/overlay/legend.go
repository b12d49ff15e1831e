package overlay

import "github.com/samirrijal/stopmap/internal/core/domain"

// DefaultPalette is the route colour sequence used when none is configured.
var DefaultPalette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#42d4f4", "#f032e6", "#9a6324",
	"#469990", "#800000", "#808000", "#000075",
}

// Legend assigns palette colours to routes in first-seen order. Once the
// palette is exhausted it starts over from the first colour.
type Legend struct {
	palette []string
	entries []domain.LegendEntry
	colors  map[string]string
}

// NewLegend returns an empty legend drawing from palette, or from
// DefaultPalette when palette is empty.
func NewLegend(palette []string) *Legend {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Legend{palette: palette, colors: make(map[string]string)}
}

// Add returns the colour of route, assigning the next one if the route has
// not been seen since the last Clear.
func (l *Legend) Add(route string) string {
	if c, ok := l.colors[route]; ok {
		return c
	}
	c := l.palette[len(l.entries)%len(l.palette)]
	l.colors[route] = c
	l.entries = append(l.entries, domain.LegendEntry{RouteNumber: route, Color: c})
	return c
}

// Clear forgets every assignment.
func (l *Legend) Clear() {
	l.entries = nil
	clear(l.colors)
}

// Entries lists assignments in the order they were made.
func (l *Legend) Entries() []domain.LegendEntry {
	out := make([]domain.LegendEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
