// Package raster renders overlay primitives to a PNG image.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

var (
	background   = color.RGBA{0xf2, 0xef, 0xe9, 0xff}
	stopColor    = color.RGBA{0x1f, 0x4e, 0x9c, 0xff}
	nearestColor = color.RGBA{0xd6, 0x27, 0x28, 0xff}
	clusterColor = color.RGBA{0xf5, 0x82, 0x31, 0xff}
)

const markerRadius = 5.0

// Surface is a RendererSurface that draws into a width×height canvas
// showing viewport at zoom. Primitives are buffered until Render.
type Surface struct {
	viewport domain.GeoRectangle
	zoom     int
	canvas   rect.Rect

	origin vec.Vec2
	sx, sy float64

	polylines []domain.Polyline
	markers   []domain.MarkerRecord
	clusters  []domain.Cluster
}

// NewSurface returns an empty canvas of the given size in pixels.
func NewSurface(viewport domain.GeoRectangle, zoom, width, height int) *Surface {
	s := &Surface{
		viewport: viewport,
		zoom:     zoom,
		canvas:   rect.Rect{LLx: 0, LLy: 0, URx: float64(width), URy: float64(height)},
	}
	nw := geospatial.PixelXY(viewport.NorthWest, zoom)
	se := geospatial.PixelXY(viewport.SouthEast, zoom)
	s.origin = nw
	if dx := se.X - nw.X; dx > 0 {
		s.sx = float64(width) / dx
	}
	if dy := se.Y - nw.Y; dy > 0 {
		s.sy = float64(height) / dy
	}
	return s
}

func (s *Surface) VisibleArea() domain.GeoRectangle { return s.viewport }
func (s *Surface) ZoomLevel() int                   { return s.zoom }

func (s *Surface) AddMarker(m domain.MarkerRecord) { s.markers = append(s.markers, m) }
func (s *Surface) AddCluster(c domain.Cluster)     { s.clusters = append(s.clusters, c) }
func (s *Surface) AddPolyline(p domain.Polyline)   { s.polylines = append(s.polylines, p) }

// toCanvas maps a coordinate to canvas pixels.
func (s *Surface) toCanvas(p domain.GeoPoint) vec.Vec2 {
	v := geospatial.PixelXY(p, s.zoom).Sub(s.origin)
	return vec.Vec2{X: v.X * s.sx, Y: v.Y * s.sy}
}

func (s *Surface) onCanvas(v vec.Vec2, margin float64) bool {
	return v.X >= s.canvas.LLx-margin && v.X <= s.canvas.URx+margin &&
		v.Y >= s.canvas.LLy-margin && v.Y <= s.canvas.URy+margin
}

// Render draws routes first, then markers and clusters on top.
func (s *Surface) Render() *image.RGBA {
	w, h := int(s.canvas.URx), int(s.canvas.URy)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	if w == 0 || h == 0 {
		return dst
	}
	r := vector.NewRasterizer(w, h)

	for _, p := range s.polylines {
		c, err := ParseColor(p.Color)
		if err != nil {
			c = stopColor
		}
		for _, seg := range p.Segments {
			r.Reset(w, h)
			addStroke(r, s.toCanvas(seg.From), s.toCanvas(seg.To), p.Width)
			r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
		}
	}

	for _, m := range s.markers {
		v := s.toCanvas(m.Position)
		if !s.onCanvas(v, markerRadius) {
			continue
		}
		c := stopColor
		if m.Icon == domain.IconNearestStop {
			c = nearestColor
		}
		r.Reset(w, h)
		addCircle(r, v, markerRadius)
		r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
	}

	for _, cl := range s.clusters {
		v := s.toCanvas(cl.Position)
		radius := math.Max(markerRadius*1.5, cl.TextSize/2)
		if !s.onCanvas(v, radius) {
			continue
		}
		r.Reset(w, h)
		addCircle(r, v, radius)
		r.Draw(dst, dst.Bounds(), image.NewUniform(clusterColor), image.Point{})
	}
	return dst
}

// EncodePNG renders the canvas and writes it as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.Render())
}

// addStroke adds a segment of the given width as a filled quadrilateral.
func addStroke(r *vector.Rasterizer, a, b vec.Vec2, width float64) {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		addCircle(r, a, width/2)
		return
	}
	n := vec.Vec2{X: -d.Y / l, Y: d.X / l}.Mul(width / 2)
	p0, p1, p2, p3 := a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)
	r.MoveTo(float32(p0.X), float32(p0.Y))
	r.LineTo(float32(p1.X), float32(p1.Y))
	r.LineTo(float32(p2.X), float32(p2.Y))
	r.LineTo(float32(p3.X), float32(p3.Y))
	r.ClosePath()
}

// addCircle approximates a circle with four cubic Béziers.
func addCircle(r *vector.Rasterizer, c vec.Vec2, radius float64) {
	const k = 0.5522847498
	cx, cy, rr := float32(c.X), float32(c.Y), float32(radius)
	kr := float32(k) * rr

	r.MoveTo(cx, cy-rr)
	r.CubeTo(cx+kr, cy-rr, cx+rr, cy-kr, cx+rr, cy)
	r.CubeTo(cx+rr, cy+kr, cx+kr, cy+rr, cx, cy+rr)
	r.CubeTo(cx-kr, cy+rr, cx-rr, cy+kr, cx-rr, cy)
	r.CubeTo(cx-rr, cy-kr, cx-kr, cy-rr, cx, cy-rr)
	r.ClosePath()
}

// ParseColor decodes a #rrggbb colour.
func ParseColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
