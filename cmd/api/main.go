package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/stopmap/internal/adapters/catalogfile"
	"github.com/samirrijal/stopmap/internal/adapters/http"
	"github.com/samirrijal/stopmap/internal/adapters/memory"
	natsadapter "github.com/samirrijal/stopmap/internal/adapters/nats"
	"github.com/samirrijal/stopmap/internal/adapters/postgres"
	"github.com/samirrijal/stopmap/internal/adapters/valkey"
	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/core/overlay"
	"github.com/samirrijal/stopmap/internal/core/ports"
	"github.com/samirrijal/stopmap/internal/core/usecases"
	"github.com/samirrijal/stopmap/internal/pkg/config"
	"github.com/samirrijal/stopmap/internal/pkg/logging"
	"github.com/samirrijal/stopmap/internal/pkg/telemetry"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	sessionSweepEvery  = time.Minute
)

func main() {
	cfg, err := config.Load("stopmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	deps := &http.Dependencies{Version: "dev"}

	// Catalog source
	var repo ports.CatalogRepository
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		repo = postgres.NewCatalogRepo(db)
	default:
		repo = catalogfile.NewRepository(cfg.Catalog.Path)
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}

	catalog := usecases.NewCatalogService(repo, cache, func(s *domain.CatalogSnapshot) (ports.StopCatalog, error) {
		return memory.FromSnapshot(s)
	}, cfg.Catalog.CacheTTL)
	stops, err := catalog.Load(ctx)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	deps.Catalog = catalog

	// NATS
	var publisher ports.FramePublisher
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		// Raw connection for the WebSocket frame relay
		if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer nc.Close()
			deps.NATS = nc
		}
	}

	clip, err := overlay.ParseClipMode(cfg.Overlay.ClipMode)
	if err != nil {
		log.Fatalf("overlay: %v", err)
	}
	sessions := usecases.NewSessionService(stops, publisher, usecases.SessionSettings{
		DefaultZoom:        cfg.Overlay.DefaultZoom,
		MaxClusteringZoom:  cfg.Overlay.MaxClusteringZoom,
		Density:            cfg.Overlay.DensityFactor,
		NearbyRadiusMeters: cfg.Overlay.NearbyRadiusMeters,
		ClipMode:           clip,
		Palette:            cfg.Overlay.Palette,
		MaxSessions:        cfg.Overlay.MaxSessions,
	})
	deps.Sessions = sessions

	if cfg.NATS.URL != "" {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("location subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribeLocations(ctx, locationHandler(sessions)); err != nil {
				slog.Warn("subscribe locations failed", "error", err)
			}
		}
	}

	go expireSessions(ctx, sessions)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "stopmap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "catalog_source", cfg.Catalog.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// locationHandler applies a device report to its session and redraws it,
// which publishes the new frame. Reports for unknown sessions are dropped.
func locationHandler(sessions *usecases.SessionService) func(context.Context, ports.LocationUpdate) error {
	return func(ctx context.Context, u ports.LocationUpdate) error {
		if _, err := sessions.UpdateLocation(ctx, u.SessionID, u.Location); err != nil {
			if errors.Is(err, usecases.ErrSessionNotFound) {
				slog.Debug("location for unknown session", "session", u.SessionID)
				return nil
			}
			return err
		}
		_, err := sessions.Redraw(ctx, u.SessionID)
		return err
	}
}

func expireSessions(ctx context.Context, sessions *usecases.SessionService) {
	ticker := time.NewTicker(sessionSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sessions.Expire(ctx, now.Add(-sessionIdleTimeout))
		}
	}
}
