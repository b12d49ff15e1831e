package geospatial_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

func rect(north, west, south, east float64) domain.GeoRectangle {
	return domain.GeoRectangle{
		NorthWest: domain.GeoPoint{Lat: north, Lon: west},
		SouthEast: domain.GeoPoint{Lat: south, Lon: east},
	}
}

func pt(lat, lon float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

func TestRectangleContainsPoint(t *testing.T) {
	r := rect(49.3, -123.2, 49.2, -123.0)

	tests := []struct {
		name string
		p    domain.GeoPoint
		want bool
	}{
		{"interior", pt(49.25, -123.1), true},
		{"north edge", pt(49.3, -123.1), true},
		{"south edge", pt(49.2, -123.1), true},
		{"west edge", pt(49.25, -123.2), true},
		{"east edge", pt(49.25, -123.0), true},
		{"corner", pt(49.3, -123.2), true},
		{"north of", pt(49.31, -123.1), false},
		{"south of", pt(49.19, -123.1), false},
		{"west of", pt(49.25, -123.21), false},
		{"east of", pt(49.25, -122.99), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geospatial.RectangleContainsPoint(r, tt.p))
		})
	}
}

func TestRectangleContainsPoint_MatchesInclusiveBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		south := rng.Float64()*10 + 40
		north := south + rng.Float64()*2
		west := rng.Float64()*10 - 130
		east := west + rng.Float64()*2
		r := rect(north, west, south, east)
		p := pt(rng.Float64()*14+39, rng.Float64()*14-131)

		want := south <= p.Lat && p.Lat <= north && west <= p.Lon && p.Lon <= east
		require.Equal(t, want, geospatial.RectangleContainsPoint(r, p), "rect=%+v p=%+v", r, p)
	}
}

func TestRectangleContainsPoint_SwappedCornersContainNothing(t *testing.T) {
	swapped := rect(49.2, -123.0, 49.3, -123.2)
	assert.False(t, swapped.Normalized())
	assert.False(t, geospatial.RectangleContainsPoint(swapped, pt(49.25, -123.1)))
}

func TestRectangleIntersectsLine(t *testing.T) {
	r := rect(10, 0, 0, 10)

	tests := []struct {
		name string
		a, b domain.GeoPoint
		want bool
	}{
		{"both inside", pt(2, 2), pt(8, 8), true},
		{"one inside", pt(5, 5), pt(20, 20), true},
		{"crosses through", pt(5, -5), pt(5, 15), true},
		{"passes outside a corner", pt(-1, 11), pt(11, 23), false},
		{"clips a corner", pt(-2, 8), pt(8, 12), true},
		{"touches edge", pt(10, -5), pt(10, 5), true},
		{"touches corner only", pt(11, 1), pt(9, -1), true},
		{"collinear with edge outside", pt(10, 11), pt(10, 15), false},
		{"entirely north", pt(12, 0), pt(12, 10), false},
		{"entirely west", pt(0, -3), pt(10, -1), false},
		{"diagonal miss", pt(-5, 6), pt(6, 17), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geospatial.RectangleIntersectsLine(r, tt.a, tt.b))
			assert.Equal(t, tt.want, geospatial.RectangleIntersectsLine(r, tt.b, tt.a), "reversed")
		})
	}
}

func TestRectangleIntersectsLine_ContainedEndpointsImplyIntersection(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	r := rect(49.3, -123.2, 49.2, -123.0)
	for i := 0; i < 1000; i++ {
		a := pt(49.2+rng.Float64()*0.1, -123.2+rng.Float64()*0.2)
		b := pt(49.2+rng.Float64()*0.1, -123.2+rng.Float64()*0.2)
		require.True(t, geospatial.RectangleContainsPoint(r, a))
		require.True(t, geospatial.RectangleIntersectsLine(r, a, b))
	}
}

func TestToVecRoundTrip(t *testing.T) {
	p := pt(49.2827, -123.1207)
	v := geospatial.ToVec(p)
	assert.Equal(t, p.Lon, v.X)
	assert.Equal(t, p.Lat, v.Y)
	assert.Equal(t, p, geospatial.FromVec(v))
}
