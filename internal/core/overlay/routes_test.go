package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/overlay"
)

func newDrawer(clip overlay.ClipMode) *overlay.RouteDrawer {
	return overlay.NewRouteDrawer(overlay.NewLegend(nil), 1, clip)
}

func TestPlotRoutes_DropsSegmentLeavingViewport(t *testing.T) {
	path := []domain.GeoPoint{pt(49, -123), pt(49.1, -123.1), pt(49.5, -124)}
	stop := &domain.Stop{Number: 1, Routes: []*domain.Route{route("99", path)}}
	view := rect(49.2, -123.2, 48.9, -122.9)

	lines, stats := newDrawer(overlay.ClipStrict).PlotRoutes(view, stop, 15)

	require.Len(t, lines, 1)
	assert.Equal(t, []domain.Segment{{From: pt(49, -123), To: pt(49.1, -123.1)}}, lines[0].Segments)
	assert.Equal(t, 1, stats.SegmentsKept)
	assert.Equal(t, 1, stats.SegmentsDropped)
}

func TestPlotRoutes_CrossingModeKeepsPartialSegments(t *testing.T) {
	path := []domain.GeoPoint{pt(49, -123), pt(49.1, -123.1), pt(49.5, -124)}
	stop := &domain.Stop{Number: 1, Routes: []*domain.Route{route("99", path)}}
	view := rect(49.2, -123.2, 48.9, -122.9)

	lines, stats := newDrawer(overlay.ClipCrossing).PlotRoutes(view, stop, 15)

	require.Len(t, lines, 1)
	assert.Len(t, lines[0].Segments, 2)
	assert.Equal(t, 0, stats.SegmentsDropped)
	assert.Equal(t, [][]domain.GeoPoint{path}, lines[0].Paths())
}

func TestPlotRoutes_NilSelection(t *testing.T) {
	d := newDrawer(overlay.ClipStrict)
	d.PlotRoutes(domain.WholeWorld, vancouver().stops[0], 12)

	lines, _ := d.PlotRoutes(domain.WholeWorld, nil, 12)

	assert.Empty(t, lines)
	assert.Empty(t, d.Legend().Entries())
}

func TestPlotRoutes_SkipsPatternsWithNothingVisible(t *testing.T) {
	far := []domain.GeoPoint{pt(10, 10), pt(11, 11)}
	near := []domain.GeoPoint{pt(49.25, -123.1), pt(49.26, -123.1)}
	stop := &domain.Stop{Number: 1, Routes: []*domain.Route{route("4", far, near)}}

	lines, _ := newDrawer(overlay.ClipStrict).PlotRoutes(downtown, stop, 12)

	require.Len(t, lines, 1)
	assert.Equal(t, "4-b", lines[0].Pattern)
}

func TestPlotRoutes_LegendFollowsPatterns(t *testing.T) {
	far := []domain.GeoPoint{pt(10, 10), pt(11, 11)}
	near := []domain.GeoPoint{pt(49.25, -123.1), pt(49.26, -123.1)}
	stop := &domain.Stop{Number: 1, Routes: []*domain.Route{
		route("N19"),
		route("4", near, near),
		route("14", far),
	}}
	d := newDrawer(overlay.ClipStrict)

	lines, _ := d.PlotRoutes(downtown, stop, 12)

	require.Len(t, lines, 2)
	assert.Equal(t, lines[0].Color, lines[1].Color)
	entries := d.Legend().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "4", entries[0].RouteNumber)
	assert.Equal(t, lines[0].Color, entries[0].Color)
	assert.Equal(t, "14", entries[1].RouteNumber)
}

func TestLineWidth(t *testing.T) {
	tests := []struct {
		zoom    int
		density float64
		want    float64
	}{
		{16, 1, 7},
		{15, 2, 14},
		{14, 1, 5},
		{12, 1.5, 7.5},
		{11, 1, 5},
		{10, 1, 2},
		{5, 1, 2},
		{0, 3, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, overlay.LineWidth(tt.zoom, tt.density), "zoom=%d density=%v", tt.zoom, tt.density)
	}
}

func TestPlotRoutes_WidthFollowsZoom(t *testing.T) {
	stop := vancouver().stops[0]
	d := overlay.NewRouteDrawer(overlay.NewLegend(nil), 2, overlay.ClipStrict)

	for zoom, want := range map[int]float64{16: 14, 12: 10, 5: 4} {
		lines, _ := d.PlotRoutes(downtown, stop, zoom)
		require.NotEmpty(t, lines)
		for _, l := range lines {
			assert.Equal(t, want, l.Width, "zoom %d", zoom)
		}
	}
}

func TestPlotRoutes_LegendResetsEachPass(t *testing.T) {
	r99 := route("99", []domain.GeoPoint{pt(49.25, -123.1), pt(49.26, -123.1)})
	r9 := route("9", []domain.GeoPoint{pt(49.25, -123.05), pt(49.26, -123.05)})
	d := newDrawer(overlay.ClipStrict)

	d.PlotRoutes(downtown, &domain.Stop{Number: 1, Routes: []*domain.Route{r99, r9}}, 12)
	first := d.Legend().Entries()

	d.PlotRoutes(downtown, &domain.Stop{Number: 2, Routes: []*domain.Route{r9, r99}}, 12)
	second := d.Legend().Entries()

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.NotEqual(t, first[0].Color, first[1].Color)
	assert.ElementsMatch(t,
		[]string{first[0].Color, first[1].Color},
		[]string{second[0].Color, second[1].Color})
	assert.Equal(t, "9", second[0].RouteNumber)
	assert.Equal(t, first[0].Color, second[0].Color, "first-seen route takes the first colour")
}

func TestPlotRoutes_RouteColourSharedByPatterns(t *testing.T) {
	a := []domain.GeoPoint{pt(49.25, -123.1), pt(49.26, -123.1)}
	b := []domain.GeoPoint{pt(49.26, -123.1), pt(49.25, -123.1)}
	stop := &domain.Stop{Number: 1, Routes: []*domain.Route{route("99", a, b)}}

	lines, _ := newDrawer(overlay.ClipStrict).PlotRoutes(downtown, stop, 12)

	require.Len(t, lines, 2)
	assert.Equal(t, lines[0].Color, lines[1].Color)
}

func TestLegend_WrapsPalette(t *testing.T) {
	l := overlay.NewLegend([]string{"red", "blue"})

	assert.Equal(t, "red", l.Add("1"))
	assert.Equal(t, "blue", l.Add("2"))
	assert.Equal(t, "red", l.Add("3"))
	assert.Equal(t, "blue", l.Add("2"))
	assert.Len(t, l.Entries(), 3)
}

func TestParseClipMode(t *testing.T) {
	m, err := overlay.ParseClipMode("")
	require.NoError(t, err)
	assert.Equal(t, overlay.ClipStrict, m)

	m, err = overlay.ParseClipMode("crossing")
	require.NoError(t, err)
	assert.Equal(t, overlay.ClipCrossing, m)

	_, err = overlay.ParseClipMode("clip")
	assert.Error(t, err)
}
