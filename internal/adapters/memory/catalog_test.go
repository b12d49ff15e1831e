package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stopmap/internal/adapters/memory"
	"github.com/samirrijal/stopmap/internal/core/domain"
)

func snapshot() *domain.CatalogSnapshot {
	return &domain.CatalogSnapshot{
		Routes: []domain.Route{
			{Number: "99", Name: "B-Line"},
			{Number: "9", Name: "Broadway"},
		},
		Stops: []domain.StopEntry{
			{Number: 3, Name: "UBC Loop", Location: domain.GeoPoint{Lat: 49.267, Lon: -123.247}, Routes: []string{"99"}},
			{Number: 1, Name: "Commercial-Broadway", Location: domain.GeoPoint{Lat: 49.262, Lon: -123.069}, Routes: []string{"99", "9"}},
			{Number: 2, Name: "Granville", Location: domain.GeoPoint{Lat: 49.263, Lon: -123.138}, Routes: []string{"9"}},
		},
	}
}

func TestCatalog_StopsWithinKeepsCatalogOrder(t *testing.T) {
	c, err := memory.FromSnapshot(snapshot())
	require.NoError(t, err)

	got := c.StopsWithin(domain.WholeWorld)

	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{got[0].Number, got[1].Number, got[2].Number})
}

func TestCatalog_StopsWithinFilters(t *testing.T) {
	c, err := memory.FromSnapshot(snapshot())
	require.NoError(t, err)

	r := domain.Bounds{MinLat: 49.2, MinLon: -123.15, MaxLat: 49.3, MaxLon: -123.0}.Rectangle()
	got := c.StopsWithin(r)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2, got[1].Number)

	swapped := domain.GeoRectangle{NorthWest: r.SouthEast, SouthEast: r.NorthWest}
	assert.Empty(t, c.StopsWithin(swapped))
}

func TestCatalog_SharedRoutes(t *testing.T) {
	c, err := memory.FromSnapshot(snapshot())
	require.NoError(t, err)

	a, _ := c.StopByNumber(3)
	b, _ := c.StopByNumber(1)
	assert.Same(t, a.Routes[0], b.Routes[0])

	r, ok := c.RouteByNumber("9")
	require.True(t, ok)
	assert.Equal(t, "Broadway", r.Name)
	assert.Equal(t, []string{"99", "9"}, b.RouteNumbers())
}

func TestCatalog_NearestStop(t *testing.T) {
	c, err := memory.FromSnapshot(snapshot())
	require.NoError(t, err)

	s := c.NearestStop(domain.GeoPoint{Lat: 49.262, Lon: -123.075}, 10000)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.Number)

	assert.Nil(t, c.NearestStop(domain.GeoPoint{Lat: 49.262, Lon: -123.075}, 100))
	assert.Nil(t, c.NearestStop(domain.GeoPoint{Lat: 0, Lon: 0}, 10000))
}

func TestFromSnapshot_UnknownRoute(t *testing.T) {
	snap := snapshot()
	snap.Stops[0].Routes = []string{"404"}

	_, err := memory.FromSnapshot(snap)
	assert.ErrorContains(t, err, "unknown route")
}

func TestFromSnapshot_DuplicateStop(t *testing.T) {
	snap := snapshot()
	snap.Stops[1].Number = 3

	_, err := memory.FromSnapshot(snap)
	assert.ErrorContains(t, err, "duplicate stop")
}
