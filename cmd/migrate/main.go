package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/samirrijal/stopmap/internal/adapters/postgres"
	"github.com/samirrijal/stopmap/internal/pkg/config"
	"github.com/samirrijal/stopmap/internal/pkg/logging"
)

var upFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_catalog_tables.sql",
}

const downFile = "migrations/down.sql"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("stopmap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = apply(ctx, db, upFiles)
	case "down":
		err = apply(ctx, db, []string{downFile})
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		db.Close()
		log.Fatal(err)
	}
	slog.Info("migrations applied", "direction", os.Args[1])
}

func apply(ctx context.Context, db *postgres.DB, files []string) error {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		slog.Info("applied", "file", f)
	}
	return nil
}
