package raster_test

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stopmap/internal/adapters/raster"
	"github.com/samirrijal/stopmap/internal/core/domain"
)

var view = domain.Bounds{MinLat: 49.25, MinLon: -123.15, MaxLat: 49.27, MaxLon: -123.05}.Rectangle()

func TestSurface_DrawsPrimitives(t *testing.T) {
	s := raster.NewSurface(view, 14, 200, 100)
	assert.Equal(t, view, s.VisibleArea())
	assert.Equal(t, 14, s.ZoomLevel())

	mid := domain.GeoPoint{Lat: 49.26, Lon: -123.10}
	s.AddPolyline(domain.Polyline{
		Color: "#00ff00",
		Width: 6,
		Segments: []domain.Segment{{
			From: domain.GeoPoint{Lat: 49.26, Lon: -123.14},
			To:   domain.GeoPoint{Lat: 49.26, Lon: -123.12},
		}},
	})
	s.AddMarker(domain.MarkerRecord{Position: mid, Icon: domain.IconNearestStop})

	img := s.Render()
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 100, img.Bounds().Dy())

	// the viewport centre is roughly the canvas centre
	c := img.RGBAAt(100, 50)
	assert.Greater(t, c.R, c.G, "nearest marker is red, got %v", c)

	// a quarter of the way in along the route line
	g := img.RGBAAt(30, 50)
	assert.Greater(t, g.G, g.R, "route is green, got %v", g)

	corner := img.RGBAAt(0, 0)
	assert.Equal(t, color.RGBA{0xf2, 0xef, 0xe9, 0xff}, corner)
}

func TestSurface_EncodePNG(t *testing.T) {
	s := raster.NewSurface(view, 14, 64, 32)
	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestParseColor(t *testing.T) {
	c, err := raster.ParseColor("#4363d8")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0x43, 0x63, 0xd8, 0xff}, c)

	_, err = raster.ParseColor("blue")
	assert.Error(t, err)
	_, err = raster.ParseColor("#zzzzzz")
	assert.Error(t, err)
}
