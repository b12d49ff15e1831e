package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/overlay"
	"github.com/samirrijal/stopmap/internal/core/ports"
	"github.com/samirrijal/stopmap/internal/pkg/logging"
	"github.com/samirrijal/stopmap/internal/pkg/metrics"
	"github.com/samirrijal/stopmap/internal/pkg/telemetry"
)

// SessionSettings tunes every session created by a SessionService.
type SessionSettings struct {
	DefaultZoom        int
	MaxClusteringZoom  int
	Density            float64
	NearbyRadiusMeters float64
	ClipMode           overlay.ClipMode
	Palette            []string
	MaxSessions        int
}

// SurfaceFactory builds the surface a redraw is emitted to.
type SurfaceFactory func(viewport domain.GeoRectangle, zoom int) ports.RendererSurface

// session is one map view. The mutex serialises every use of the engine.
type session struct {
	id     string
	mu     sync.Mutex
	engine *overlay.Engine

	viewport domain.GeoRectangle
	zoom     int
	selected *domain.Stop
	nearest  *domain.Stop
	location *domain.GeoPoint

	createdAt time.Time
	updatedAt time.Time
}

func (s *session) Selected() *domain.Stop { return s.selected }
func (s *session) Nearest() *domain.Stop  { return s.nearest }

func (s *session) state() *domain.SessionState {
	st := &domain.SessionState{
		ID:        s.id,
		Viewport:  s.viewport,
		Zoom:      s.zoom,
		Location:  s.location,
		Markers:   s.engine.Stops().Markers().Len(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.selected != nil {
		n := s.selected.Number
		st.SelectedStop = &n
	}
	if s.nearest != nil {
		n := s.nearest.Number
		st.NearestStop = &n
	}
	return st
}

// SessionService owns the live map sessions and drives their redraws.
type SessionService struct {
	catalog   ports.StopCatalog
	publisher ports.FramePublisher
	settings  SessionSettings
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a new SessionService. publisher may be nil.
func NewSessionService(catalog ports.StopCatalog, publisher ports.FramePublisher, settings SessionSettings) *SessionService {
	if settings.DefaultZoom <= 0 {
		settings.DefaultZoom = overlay.DefaultZoom
	}
	if settings.MaxClusteringZoom <= 0 {
		settings.MaxClusteringZoom = overlay.DefaultMaxClusteringZoom
	}
	if settings.Density <= 0 {
		settings.Density = 1
	}
	if settings.NearbyRadiusMeters <= 0 {
		settings.NearbyRadiusMeters = 10000
	}
	return &SessionService{
		catalog:   catalog,
		publisher: publisher,
		settings:  settings,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Create opens a session showing the whole world at the default zoom.
func (s *SessionService) Create(ctx context.Context) (*domain.SessionState, error) {
	now := s.now()
	sess := &session{
		id: uuid.NewString(),
		engine: overlay.NewEngine(s.catalog, overlay.Options{
			Metrics:           overlay.FixedDensity(s.settings.Density),
			DefaultZoom:       s.settings.DefaultZoom,
			MaxClusteringZoom: s.settings.MaxClusteringZoom,
			ClipMode:          s.settings.ClipMode,
			Palette:           s.settings.Palette,
		}),
		viewport:  domain.WholeWorld,
		zoom:      s.settings.DefaultZoom,
		createdAt: now,
		updatedAt: now,
	}

	st := sess.state()

	s.mu.Lock()
	if s.settings.MaxSessions > 0 && len(s.sessions) >= s.settings.MaxSessions {
		s.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	logging.FromContext(ctx).Debug("session created", "session", sess.id)
	return st, nil
}

func (s *SessionService) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

// with runs fn on the locked session.
func (s *SessionService) with(id string, fn func(*session) error) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess)
}

// Get returns a snapshot of the session state.
func (s *SessionService) Get(_ context.Context, id string) (*domain.SessionState, error) {
	var st *domain.SessionState
	err := s.with(id, func(sess *session) error {
		st = sess.state()
		return nil
	})
	return st, err
}

// Delete drops a session and its retained markers.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	metrics.ActiveSessions.Set(float64(n))
	logging.FromContext(ctx).Debug("session deleted", "session", id)
	return nil
}

// Count is the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SetViewport records the area and zoom the client is showing. Zoom 0
// means unknown and is kept as is.
func (s *SessionService) SetViewport(_ context.Context, id string, viewport domain.GeoRectangle, zoom int) error {
	return s.with(id, func(sess *session) error {
		sess.viewport = viewport
		sess.zoom = zoom
		sess.updatedAt = s.now()
		return nil
	})
}

// Select makes stopNumber the stop whose routes are drawn.
func (s *SessionService) Select(_ context.Context, id string, stopNumber int) (*domain.Stop, error) {
	stop, ok := s.catalog.StopByNumber(stopNumber)
	if !ok {
		return nil, fmt.Errorf("stop %d: %w", stopNumber, ErrStopNotFound)
	}
	err := s.with(id, func(sess *session) error {
		sess.selected = stop
		sess.updatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stop, nil
}

// ClearSelection stops drawing routes.
func (s *SessionService) ClearSelection(_ context.Context, id string) error {
	return s.with(id, func(sess *session) error {
		sess.selected = nil
		sess.updatedAt = s.now()
		return nil
	})
}

// UpdateLocation records the device position and resolves the nearest stop
// within the configured radius. It returns nil when no stop is close enough.
// The highlight moves on the next redraw.
func (s *SessionService) UpdateLocation(_ context.Context, id string, p domain.GeoPoint) (*domain.Stop, error) {
	nearest := s.catalog.NearestStop(p, s.settings.NearbyRadiusMeters)
	err := s.with(id, func(sess *session) error {
		loc := p
		sess.location = &loc
		sess.nearest = nearest
		sess.updatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nearest, nil
}

// Redraw runs a full pass into an in-memory surface.
func (s *SessionService) Redraw(ctx context.Context, id string) (*domain.Frame, error) {
	return s.RedrawWith(ctx, id, func(v domain.GeoRectangle, zoom int) ports.RendererSurface {
		return overlay.NewRecorder(v, zoom)
	})
}

// RedrawWith runs a full pass into the surface built by newSurface for the
// session's current view, then publishes the frame.
func (s *SessionService) RedrawWith(ctx context.Context, id string, newSurface SurfaceFactory) (*domain.Frame, error) {
	ctx, span := telemetry.StartSpan(ctx, "overlay.redraw", attribute.String("session.id", id))
	defer span.End()

	var frame domain.Frame
	err := s.with(id, func(sess *session) error {
		start := time.Now()
		frame = sess.engine.Redraw(newSurface(sess.viewport, sess.zoom), sess)
		metrics.ObservePass(frame.Stats, time.Since(start))
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("overlay.zoom", frame.Zoom),
		attribute.Int("overlay.markers", len(frame.Markers)),
		attribute.Int("overlay.clusters", len(frame.Clusters)),
		attribute.Int("overlay.polylines", len(frame.Polylines)),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishFrame(ctx, id, &frame); err != nil {
			logging.FromContext(ctx).Warn("frame publish failed", "session", id, "error", err)
		}
	}
	return &frame, nil
}

// Marker returns the retained marker of a stop in a session.
func (s *SessionService) Marker(_ context.Context, id string, stopNumber int) (domain.MarkerRecord, error) {
	var rec domain.MarkerRecord
	err := s.with(id, func(sess *session) error {
		m, ok := sess.engine.Stops().Marker(stopNumber)
		if !ok {
			return fmt.Errorf("stop %d: %w", stopNumber, ErrMarkerNotFound)
		}
		rec = m
		return nil
	})
	return rec, err
}

// Expire drops sessions not touched since before cutoff and returns how
// many were removed.
func (s *SessionService) Expire(ctx context.Context, cutoff time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.updatedAt.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if len(expired) > 0 {
		metrics.ActiveSessions.Set(float64(n))
		logging.FromContext(ctx).Info("sessions expired", "count", len(expired))
	}
	return len(expired)
}
