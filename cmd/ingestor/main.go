package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/samirrijal/stopmap/internal/adapters/catalogfile"
	"github.com/samirrijal/stopmap/internal/adapters/postgres"
	"github.com/samirrijal/stopmap/internal/adapters/valkey"
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/usecases"
	"github.com/samirrijal/stopmap/internal/pkg/config"
	"github.com/samirrijal/stopmap/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("stopmap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	source := cfg.Catalog.Path
	if len(os.Args) > 1 {
		source = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	snap, err := readCatalog(ctx, source)
	if err != nil {
		log.Fatalf("read catalog: %v", err)
	}
	// Reject dangling references before touching the database.
	if _, err := snap.Link(); err != nil {
		log.Fatalf("catalog: %v", err)
	}
	slog.Info("catalog parsed", "source", source, "routes", len(snap.Routes), "stops", len(snap.Stops))

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := postgres.NewCatalogRepo(db)
	if err := repo.SaveCatalog(ctx, snap); err != nil {
		db.Close()
		log.Fatalf("save catalog: %v", err)
	}
	slog.Info("catalog stored")

	// Drop the cached snapshot so API instances pick up the new catalog.
	if cfg.Valkey.Addr != "" {
		cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable, cached catalog not invalidated", "error", err)
			return
		}
		defer cache.Close()
		svc := usecases.NewCatalogService(repo, cache, nil, cfg.Catalog.CacheTTL)
		if err := svc.Invalidate(ctx); err != nil {
			slog.Warn("cache invalidation failed", "error", err)
		}
	}
}

// readCatalog decodes a YAML catalog from a file path or an http(s) URL.
func readCatalog(ctx context.Context, source string) (*domain.CatalogSnapshot, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return catalogfile.NewRepository(source).LoadCatalog(ctx)
	}

	slog.Info("downloading catalog", "url", source)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, source)
	}
	return catalogfile.Decode(io.LimitReader(resp.Body, 64<<20))
}
