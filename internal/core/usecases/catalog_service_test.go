package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/stopmap/internal/adapters/memory"
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/ports"
	"github.com/samirrijal/stopmap/internal/core/usecases"
)

// --- Mock CatalogRepository ---

type mockCatalogRepo struct {
	calls int
	snap  *domain.CatalogSnapshot
	err   error
}

func (m *mockCatalogRepo) LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	m.calls++
	return m.snap, m.err
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func buildMemory(s *domain.CatalogSnapshot) (ports.StopCatalog, error) {
	return memory.FromSnapshot(s)
}

// --- Tests ---

func TestCatalogService_LoadCachesSnapshot(t *testing.T) {
	repo := &mockCatalogRepo{snap: testSnapshot()}
	cache := newMockCache()
	svc := usecases.NewCatalogService(repo, cache, buildMemory, 60)
	ctx := context.Background()

	cat, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Stops()) != 3 {
		t.Errorf("expected 3 stops, got %d", len(cat.Stops()))
	}
	if len(cache.data) != 1 {
		t.Fatalf("expected snapshot cached, got %d keys", len(cache.data))
	}

	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("expected repository hit once, got %d", repo.calls)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = svc.Load(ctx)
	if repo.calls != 2 {
		t.Errorf("expected repository hit after invalidate, got %d", repo.calls)
	}
}

func TestCatalogService_CorruptCacheFallsBack(t *testing.T) {
	repo := &mockCatalogRepo{snap: testSnapshot()}
	cache := newMockCache()
	cache.data["catalog:snapshot"] = []byte("{not json")
	svc := usecases.NewCatalogService(repo, cache, buildMemory, 60)

	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("expected repository fallback, got %d calls", repo.calls)
	}
	var snap domain.CatalogSnapshot
	if err := json.Unmarshal(cache.data["catalog:snapshot"], &snap); err != nil {
		t.Errorf("expected cache repaired: %v", err)
	}
}

func TestCatalogService_RepoError(t *testing.T) {
	repo := &mockCatalogRepo{err: errors.New("connection refused")}
	svc := usecases.NewCatalogService(repo, nil, buildMemory, 60)

	_, err := svc.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if svc.Catalog() != nil {
		t.Error("catalog must stay unset after a failed load")
	}
}

func TestCatalogService_Stop(t *testing.T) {
	svc := usecases.NewCatalogService(&mockCatalogRepo{snap: testSnapshot()}, nil, buildMemory, 0)
	ctx := context.Background()

	if _, err := svc.Stop(ctx, 50913); !errors.Is(err, usecases.ErrCatalogNotLoaded) {
		t.Errorf("expected ErrCatalogNotLoaded, got %v", err)
	}
	_, _ = svc.Load(ctx)

	stop, err := svc.Stop(ctx, 50913)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stop.Name != "Granville & Broadway" {
		t.Errorf("unexpected stop %q", stop.Name)
	}
	if _, err := svc.Stop(ctx, 1); !errors.Is(err, usecases.ErrStopNotFound) {
		t.Errorf("expected ErrStopNotFound, got %v", err)
	}
}
