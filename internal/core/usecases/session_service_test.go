package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/stopmap/internal/adapters/memory"
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/usecases"
)

// --- Mock FramePublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	frames map[string][]*domain.Frame
	err    error
}

func (m *mockPublisher) PublishFrame(ctx context.Context, sessionID string, frame *domain.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames == nil {
		m.frames = map[string][]*domain.Frame{}
	}
	m.frames[sessionID] = append(m.frames[sessionID], frame)
	return m.err
}

// --- Fixtures ---

func testSnapshot() *domain.CatalogSnapshot {
	path := []domain.GeoPoint{
		{Lat: 49.2631, Lon: -123.1385},
		{Lat: 49.2624, Lon: -123.1000},
		{Lat: 49.2620, Lon: -123.0690},
		{Lat: 49.2615, Lon: -123.0240},
	}
	return &domain.CatalogSnapshot{
		Routes: []domain.Route{
			{Number: "99", Patterns: []*domain.RoutePattern{{Name: "99-east", Path: path[:3]}}},
			{Number: "9", Patterns: []*domain.RoutePattern{{Name: "9-east", Path: path}}},
		},
		Stops: []domain.StopEntry{
			{Number: 50913, Name: "Granville & Broadway", Location: path[0], Routes: []string{"99", "9"}},
			{Number: 50914, Name: "Main & Broadway", Location: path[1], Routes: []string{"99", "9"}},
			{Number: 51861, Name: "Commercial-Broadway", Location: path[2], Routes: []string{"99", "9"}},
		},
	}
}

func newSessionService(t *testing.T, pub *mockPublisher) *usecases.SessionService {
	t.Helper()
	cat, err := memory.FromSnapshot(testSnapshot())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if pub == nil {
		return usecases.NewSessionService(cat, nil, usecases.SessionSettings{})
	}
	return usecases.NewSessionService(cat, pub, usecases.SessionSettings{})
}

var broadway = domain.Bounds{MinLat: 49.25, MinLon: -123.15, MaxLat: 49.27, MaxLon: -123.05}.Rectangle()

// --- Tests ---

func TestSessionService_CreateDefaults(t *testing.T) {
	svc := newSessionService(t, nil)

	st, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ID == "" {
		t.Fatal("expected session id")
	}
	if st.Viewport != domain.WholeWorld {
		t.Errorf("expected whole world viewport, got %+v", st.Viewport)
	}
	if st.Zoom != 16 {
		t.Errorf("expected default zoom 16, got %d", st.Zoom)
	}
	if svc.Count() != 1 {
		t.Errorf("expected 1 session, got %d", svc.Count())
	}
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Errorf("Get: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Redraw(ctx, "missing"); !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Errorf("Redraw: expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "missing"); !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Errorf("Delete: expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_SelectUnknownStop(t *testing.T) {
	svc := newSessionService(t, nil)
	st, _ := svc.Create(context.Background())

	_, err := svc.Select(context.Background(), st.ID, 1)
	if !errors.Is(err, usecases.ErrStopNotFound) {
		t.Errorf("expected ErrStopNotFound, got %v", err)
	}
}

func TestSessionService_RedrawDrawsSelectedRoutes(t *testing.T) {
	pub := &mockPublisher{}
	svc := newSessionService(t, pub)
	ctx := context.Background()
	st, _ := svc.Create(ctx)

	if err := svc.SetViewport(ctx, st.ID, broadway, 18); err != nil {
		t.Fatalf("set viewport: %v", err)
	}
	if _, err := svc.Select(ctx, st.ID, 50914); err != nil {
		t.Fatalf("select: %v", err)
	}

	frame, err := svc.Redraw(ctx, st.ID)
	if err != nil {
		t.Fatalf("redraw: %v", err)
	}
	if len(frame.Markers) != 3 {
		t.Errorf("expected 3 markers, got %d", len(frame.Markers))
	}
	if len(frame.Legend) != 2 || frame.Legend[0].RouteNumber != "99" {
		t.Errorf("unexpected legend %+v", frame.Legend)
	}
	// route 9 leaves the viewport east of Commercial, so its last segment is dropped
	if frame.Stats.SegmentsDropped != 1 {
		t.Errorf("expected 1 dropped segment, got %d", frame.Stats.SegmentsDropped)
	}
	if got := len(pub.frames[st.ID]); got != 1 {
		t.Errorf("expected 1 published frame, got %d", got)
	}
}

func TestSessionService_LocationHighlightsNearest(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	st, _ := svc.Create(ctx)
	_ = svc.SetViewport(ctx, st.ID, broadway, 18)

	nearest, err := svc.UpdateLocation(ctx, st.ID, domain.GeoPoint{Lat: 49.2625, Lon: -123.1010})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nearest == nil || nearest.Number != 50914 {
		t.Fatalf("expected nearest 50914, got %+v", nearest)
	}

	if _, err := svc.Redraw(ctx, st.ID); err != nil {
		t.Fatalf("redraw: %v", err)
	}
	m, err := svc.Marker(ctx, st.ID, 50914)
	if err != nil {
		t.Fatalf("marker: %v", err)
	}
	if m.Icon != domain.IconNearestStop {
		t.Errorf("expected nearest icon, got %s", m.Icon)
	}

	// far away: nothing within the radius
	nearest, _ = svc.UpdateLocation(ctx, st.ID, domain.GeoPoint{Lat: 0, Lon: 0})
	if nearest != nil {
		t.Errorf("expected no nearest stop, got %d", nearest.Number)
	}
	_, _ = svc.Redraw(ctx, st.ID)
	m, _ = svc.Marker(ctx, st.ID, 50914)
	if m.Icon != domain.IconStop {
		t.Errorf("expected icon restored, got %s", m.Icon)
	}
}

func TestSessionService_MarkerRetainedOffscreen(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	st, _ := svc.Create(ctx)

	if _, err := svc.Marker(ctx, st.ID, 50913); !errors.Is(err, usecases.ErrMarkerNotFound) {
		t.Errorf("expected ErrMarkerNotFound before any redraw, got %v", err)
	}

	_ = svc.SetViewport(ctx, st.ID, broadway, 18)
	first, _ := svc.Redraw(ctx, st.ID)

	_ = svc.SetViewport(ctx, st.ID, domain.Bounds{MinLat: 10, MinLon: 10, MaxLat: 11, MaxLon: 11}.Rectangle(), 18)
	frame, _ := svc.Redraw(ctx, st.ID)
	if len(frame.Markers) != 0 {
		t.Errorf("expected no visible markers, got %d", len(frame.Markers))
	}

	m, err := svc.Marker(ctx, st.ID, 50913)
	if err != nil {
		t.Fatalf("expected retained marker: %v", err)
	}
	if m.Handle != first.Markers[0].Handle {
		t.Errorf("marker handle changed: %d != %d", m.Handle, first.Markers[0].Handle)
	}
	got, _ := svc.Get(ctx, st.ID)
	if got.Markers != 3 {
		t.Errorf("expected 3 retained markers, got %d", got.Markers)
	}
}

func TestSessionService_MaxSessions(t *testing.T) {
	cat, _ := memory.FromSnapshot(testSnapshot())
	svc := usecases.NewSessionService(cat, nil, usecases.SessionSettings{MaxSessions: 1})

	if _, err := svc.Create(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background()); !errors.Is(err, usecases.ErrTooManySessions) {
		t.Errorf("expected ErrTooManySessions, got %v", err)
	}
}

func TestSessionService_Expire(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	a, _ := svc.Create(ctx)
	_, _ = svc.Create(ctx)

	if n := svc.Expire(ctx, time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("expected nothing expired, got %d", n)
	}
	if n := svc.Expire(ctx, time.Now().Add(time.Hour)); n != 2 {
		t.Errorf("expected 2 expired, got %d", n)
	}
	if _, err := svc.Get(ctx, a.ID); !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Errorf("expected expired session gone, got %v", err)
	}
}

func TestSessionService_ConcurrentRedraws(t *testing.T) {
	svc := newSessionService(t, &mockPublisher{})
	ctx := context.Background()
	st, _ := svc.Create(ctx)
	_ = svc.SetViewport(ctx, st.ID, broadway, 14)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.Select(ctx, st.ID, 50913)
			}
			if _, err := svc.Redraw(ctx, st.ID); err != nil {
				t.Errorf("redraw: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := svc.Get(ctx, st.ID)
	if got.Markers != 3 {
		t.Errorf("expected 3 markers, got %d", got.Markers)
	}
}
