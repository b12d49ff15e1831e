package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/ports"
	"github.com/samirrijal/stopmap/internal/pkg/logging"
	"github.com/samirrijal/stopmap/internal/pkg/metrics"
)

const catalogCacheKey = "catalog:snapshot"

// CatalogBuilder indexes a snapshot into a queryable catalog.
type CatalogBuilder func(*domain.CatalogSnapshot) (ports.StopCatalog, error)

// CatalogService loads the transit catalog once, through the cache, and
// serves stop lookups from memory.
type CatalogService struct {
	repo  ports.CatalogRepository
	cache ports.CacheService
	build CatalogBuilder
	ttl   int

	mu      sync.RWMutex
	catalog ports.StopCatalog
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(repo ports.CatalogRepository, cache ports.CacheService, build CatalogBuilder, ttlSeconds int) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, build: build, ttl: ttlSeconds}
}

// Load fetches the snapshot (cache first) and replaces the in-memory catalog.
func (s *CatalogService) Load(ctx context.Context) (ports.StopCatalog, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := s.build(snap)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()

	metrics.CatalogStops.Set(float64(len(cat.Stops())))
	logging.FromContext(ctx).Info("catalog loaded", "stops", len(cat.Stops()), "routes", len(snap.Routes))
	return cat, nil
}

func (s *CatalogService) snapshot(ctx context.Context) (*domain.CatalogSnapshot, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
			var snap domain.CatalogSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				metrics.CacheHits.WithLabelValues("catalog").Inc()
				return &snap, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("catalog").Inc()
	}

	snap, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, catalogCacheKey, data, s.ttl); err != nil {
				logging.FromContext(ctx).Warn("catalog cache write failed", "error", err)
			}
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next Load reads storage.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, catalogCacheKey)
}

// Catalog returns the loaded catalog, or nil before the first Load.
func (s *CatalogService) Catalog() ports.StopCatalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Stop looks up a stop by number.
func (s *CatalogService) Stop(_ context.Context, number int) (*domain.Stop, error) {
	cat := s.Catalog()
	if cat == nil {
		return nil, ErrCatalogNotLoaded
	}
	stop, ok := cat.StopByNumber(number)
	if !ok {
		return nil, fmt.Errorf("stop %d: %w", number, ErrStopNotFound)
	}
	return stop, nil
}

// StopsWithin lists the stops inside r in catalog order.
func (s *CatalogService) StopsWithin(_ context.Context, r domain.GeoRectangle) ([]*domain.Stop, error) {
	cat := s.Catalog()
	if cat == nil {
		return nil, ErrCatalogNotLoaded
	}
	return cat.StopsWithin(r), nil
}
