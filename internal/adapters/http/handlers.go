package http

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stopmap/internal/adapters/geojson"
	"github.com/samirrijal/stopmap/internal/adapters/raster"
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/ports"
)

const (
	defaultSnapshotSize = 512
	maxSnapshotSize     = 2048
)

var validate = validator.New()

// viewportRequest is the body of PUT /v1/sessions/:id/viewport.
type viewportRequest struct {
	NorthWest *domain.GeoPoint `json:"north_west" validate:"required"`
	SouthEast *domain.GeoPoint `json:"south_east" validate:"required"`
	Zoom      int              `json:"zoom" validate:"gte=0,lte=22"`
}

type selectionRequest struct {
	StopNumber int `json:"stop_number" validate:"required,gt=0"`
}

type locationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// rectangle validates r and returns the viewport it describes.
func (r *viewportRequest) rectangle() (domain.GeoRectangle, error) {
	if err := validate.Struct(r); err != nil {
		return domain.GeoRectangle{}, err
	}
	vp := domain.GeoRectangle{NorthWest: *r.NorthWest, SouthEast: *r.SouthEast}
	if !vp.Normalized() {
		return domain.GeoRectangle{}, errors.New("north_west must lie north-west of south_east")
	}
	return vp, nil
}

// point validates r and returns the reported position.
func (r *locationRequest) point() (domain.GeoPoint, error) {
	if err := validate.Struct(r); err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: *r.Lat, Lon: *r.Lon}, nil
}

// StopResponse is the public view of a catalog stop.
type StopResponse struct {
	Number   int             `json:"number"`
	Name     string          `json:"name"`
	Location domain.GeoPoint `json:"location"`
	Routes   []string        `json:"routes"`
}

func toStopResponse(s *domain.Stop) StopResponse {
	return StopResponse{
		Number:   s.Number,
		Name:     s.Name,
		Location: s.Location,
		Routes:   s.RouteNumbers(),
	}
}

// parseBody decodes and validates a JSON request body. The caller writes
// the 400 response.
func parseBody(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validate.Struct(v)
}

func sessionsReady(deps *Dependencies) bool {
	return deps.Sessions != nil
}

// CreateSessionHandler opens a new map session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		st, err := deps.Sessions.Create(c.UserContext())
		if err != nil {
			return errFromUsecase(c, err)
		}
		c.Location("/v1/sessions/" + st.ID)
		return c.Status(fiber.StatusCreated).JSON(st)
	}
}

// GetSessionHandler returns the state of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		st, err := deps.Sessions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(st)
	}
}

// DeleteSessionHandler closes a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		if err := deps.Sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromUsecase(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetViewportHandler records the visible area and zoom of a session.
func SetViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		var req viewportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		vp, err := req.rectangle()
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Sessions.SetViewport(c.UserContext(), c.Params("id"), vp, req.Zoom); err != nil {
			return errFromUsecase(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SelectStopHandler selects the stop whose routes are drawn.
func SelectStopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		var req selectionRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		stop, err := deps.Sessions.Select(c.UserContext(), c.Params("id"), req.StopNumber)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(toStopResponse(stop))
	}
}

// ClearSelectionHandler deselects the current stop.
func ClearSelectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		if err := deps.Sessions.ClearSelection(c.UserContext(), c.Params("id")); err != nil {
			return errFromUsecase(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UpdateLocationHandler reports the device position and returns the
// nearest stop, if any is in range.
func UpdateLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, err := req.point()
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		nearest, err := deps.Sessions.UpdateLocation(c.UserContext(), c.Params("id"), p)
		if err != nil {
			return errFromUsecase(c, err)
		}
		if nearest == nil {
			return c.JSON(fiber.Map{"nearest_stop": nil})
		}
		return c.JSON(fiber.Map{"nearest_stop": toStopResponse(nearest)})
	}
}

// RedrawHandler runs a redraw pass and returns the frame.
func RedrawHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		frame, err := deps.Sessions.Redraw(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(frame)
	}
}

// FrameGeoJSONHandler redraws a session and returns it as GeoJSON.
func FrameGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		frame, err := deps.Sessions.Redraw(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromUsecase(c, err)
		}
		data, err := geojson.FromFrame(frame).MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// SnapshotHandler redraws a session onto a PNG canvas.
func SnapshotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		width := c.QueryInt("width", defaultSnapshotSize)
		height := c.QueryInt("height", defaultSnapshotSize)
		if width <= 0 || width > maxSnapshotSize || height <= 0 || height > maxSnapshotSize {
			return errBadRequest(c, "width and height must be between 1 and "+strconv.Itoa(maxSnapshotSize))
		}

		var surface *raster.Surface
		_, err := deps.Sessions.RedrawWith(c.UserContext(), c.Params("id"),
			func(v domain.GeoRectangle, zoom int) ports.RendererSurface {
				surface = raster.NewSurface(v, zoom, width, height)
				return surface
			})
		if err != nil {
			return errFromUsecase(c, err)
		}

		var buf bytes.Buffer
		if err := surface.EncodePNG(&buf); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	}
}

// GetMarkerHandler returns the retained marker of a stop in a session.
func GetMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionsReady(deps) {
			return errUnavailable(c, "sessions not available")
		}
		number, err := strconv.Atoi(c.Params("number"))
		if err != nil || number <= 0 {
			return errBadRequest(c, "invalid stop number")
		}
		rec, err := deps.Sessions.Marker(c.UserContext(), c.Params("id"), number)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(rec)
	}
}

// GetStopHandler returns one stop by its number.
func GetStopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Catalog == nil {
			return errUnavailable(c, "catalog not available")
		}
		number, err := strconv.Atoi(c.Params("number"))
		if err != nil || number <= 0 {
			return errBadRequest(c, "invalid stop number")
		}
		stop, err := deps.Catalog.Stop(c.UserContext(), number)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(toStopResponse(stop))
	}
}

// ListStopsHandler lists the stops inside ?bbox=minLon,minLat,maxLon,maxLat
// (the whole catalog when omitted), paginated.
func ListStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Catalog == nil {
			return errUnavailable(c, "catalog not available")
		}
		area := domain.WholeWorld
		if raw := c.Query("bbox"); raw != "" {
			b, err := parseBBox(raw)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			area = b.Rectangle()
		}

		stops, err := deps.Catalog.StopsWithin(c.UserContext(), area)
		if err != nil {
			return errFromUsecase(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(stops)
		page := make([]StopResponse, 0, limit)
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, toStopResponse(stops[i]))
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// parseBBox reads "minLon,minLat,maxLon,maxLat".
func parseBBox(raw string) (domain.Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return domain.Bounds{}, errors.New("bbox must be minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("bbox: invalid number %q", p)
		}
		v[i] = f
	}
	b := domain.Bounds{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return domain.Bounds{}, errors.New("bbox: min must not exceed max")
	}
	return b, nil
}
