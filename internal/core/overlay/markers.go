package overlay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// MarkerTable owns every marker created for a session. Records are never
// removed, so a handle stays valid and keeps pointing at the same stop for
// the table's lifetime.
type MarkerTable struct {
	records []domain.MarkerRecord
	byStop  map[int]domain.MarkerHandle
}

// NewMarkerTable returns an empty table.
func NewMarkerTable() *MarkerTable {
	return &MarkerTable{byStop: make(map[int]domain.MarkerHandle)}
}

// Lookup returns the handle of the marker already created for stopNumber.
func (t *MarkerTable) Lookup(stopNumber int) (domain.MarkerHandle, bool) {
	h, ok := t.byStop[stopNumber]
	return h, ok
}

// Create allocates a marker for stop. It panics if one already exists, since
// a stop maps to at most one marker.
func (t *MarkerTable) Create(stop *domain.Stop, icon domain.Icon) domain.MarkerHandle {
	if _, ok := t.byStop[stop.Number]; ok {
		panic(fmt.Sprintf("overlay: marker for stop %d already exists", stop.Number))
	}
	h := domain.MarkerHandle(len(t.records))
	t.records = append(t.records, domain.MarkerRecord{
		Handle:     h,
		StopNumber: stop.Number,
		Title:      StopTitle(stop),
		Position:   stop.Location,
		Icon:       icon,
	})
	t.byStop[stop.Number] = h
	return h
}

// Record returns a copy of the marker behind h.
func (t *MarkerTable) Record(h domain.MarkerHandle) domain.MarkerRecord {
	return t.records[h]
}

// SetIcon swaps the drawable of an existing marker.
func (t *MarkerTable) SetIcon(h domain.MarkerHandle, icon domain.Icon) {
	t.records[h].Icon = icon
}

// Len is the number of markers ever created.
func (t *MarkerTable) Len() int { return len(t.records) }

// StopTitle is the info-window text of a stop marker: the stop number and
// name on the first line, then one route number per line.
func StopTitle(stop *domain.Stop) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(stop.Number))
	b.WriteByte(' ')
	b.WriteString(stop.Name)
	for _, r := range stop.Routes {
		b.WriteByte('\n')
		b.WriteString(r.Number)
	}
	return b.String()
}
