package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/stopmap/internal/adapters/nats"
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/metrics"
)

// wsMessage is sent from client to drive its session.
type wsMessage struct {
	Type       string           `json:"type"` // viewport | select | clear | location | redraw
	NorthWest  *domain.GeoPoint `json:"north_west,omitempty"`
	SouthEast  *domain.GeoPoint `json:"south_east,omitempty"`
	Zoom       int              `json:"zoom,omitempty"`
	StopNumber int              `json:"stop_number,omitempty"`
	Lat        *float64         `json:"lat,omitempty"`
	Lon        *float64         `json:"lon,omitempty"`
}

// wsEvent is sent from server to client.
type wsEvent struct {
	Type  string          `json:"type"` // frame | error
	Frame json.RawMessage `json:"frame,omitempty"`
	Error string          `json:"error,omitempty"`
}

// RequireSession rejects the upgrade when the session does not exist.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Sessions == nil {
			return errUnavailable(c, "sessions not available")
		}
		if _, err := deps.Sessions.Get(c.UserContext(), c.Params("id")); err != nil {
			return errFromUsecase(c, err)
		}
		return c.Next()
	}
}

// SessionSocketHandler returns a handler that applies client messages to a
// session and streams back every redrawn frame. When NATS is connected,
// frames are relayed from the session's frame subject, so redraws triggered
// elsewhere (location updates over NATS) reach the client too.
func SessionSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id := c.Params("id")
		log := slog.Default().With("session", id, "remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeErr := func(msg string) { _ = writeJSON(wsEvent{Type: "error", Error: msg}) }

		relay := deps.NATS != nil
		if relay {
			sub, err := deps.NATS.Subscribe(natsadapter.FrameSubject(id), func(msg *nats.Msg) {
				_ = writeJSON(wsEvent{Type: "frame", Frame: json.RawMessage(msg.Data)})
			})
			if err != nil {
				log.Error("ws frame subscribe failed", "error", err)
				return
			}
			defer func() { _ = sub.Unsubscribe() }()
		}

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		ctx := context.Background()
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				writeErr("invalid JSON")
				continue
			}

			if err := applyMessage(ctx, deps, id, m); err != nil {
				writeErr(err.Error())
				continue
			}

			frame, err := deps.Sessions.Redraw(ctx, id)
			if err != nil {
				writeErr(err.Error())
				continue
			}
			if !relay {
				data, _ := json.Marshal(frame)
				_ = writeJSON(wsEvent{Type: "frame", Frame: data})
			}
		}

		log.Info("ws client disconnected")
	}
}

// applyMessage validates m the same way the REST handlers validate their
// bodies and applies it to session id.
func applyMessage(ctx context.Context, deps *Dependencies, id string, m wsMessage) error {
	switch m.Type {
	case "viewport":
		req := viewportRequest{NorthWest: m.NorthWest, SouthEast: m.SouthEast, Zoom: m.Zoom}
		vp, err := req.rectangle()
		if err != nil {
			return err
		}
		return deps.Sessions.SetViewport(ctx, id, vp, req.Zoom)
	case "select":
		if m.StopNumber <= 0 {
			return errors.New("select needs stop_number")
		}
		_, err := deps.Sessions.Select(ctx, id, m.StopNumber)
		return err
	case "clear":
		return deps.Sessions.ClearSelection(ctx, id)
	case "location":
		req := locationRequest{Lat: m.Lat, Lon: m.Lon}
		p, err := req.point()
		if err != nil {
			return err
		}
		_, err = deps.Sessions.UpdateLocation(ctx, id, p)
		return err
	case "redraw":
		return nil
	default:
		return fmt.Errorf("unknown message type: %q", m.Type)
	}
}
