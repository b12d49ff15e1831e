package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// CatalogRepo implements ports.CatalogRepository and ports.CatalogWriter
// with pgx.
type CatalogRepo struct {
	db *DB
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// LoadCatalog reads routes, patterns, stops and stop-route links in their
// stored order.
func (r *CatalogRepo) LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	snap := &domain.CatalogSnapshot{}

	routeIdx := map[string]int{}
	rows, err := r.db.Pool.Query(ctx, `SELECT number, name FROM routes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.Number, &rt.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routeIdx[rt.Number] = len(snap.Routes)
		snap.Routes = append(snap.Routes, rt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT route_number, name, destination, direction, path
		FROM route_patterns ORDER BY route_number, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	for rows.Next() {
		var (
			routeNumber string
			p           domain.RoutePattern
		)
		if err := rows.Scan(&routeNumber, &p.Name, &p.Destination, &p.Direction, &p.Path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		i, ok := routeIdx[routeNumber]
		if !ok {
			continue
		}
		snap.Routes[i].Patterns = append(snap.Routes[i].Patterns, &p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stopIdx := map[int]int{}
	rows, err = r.db.Pool.Query(ctx, `
		SELECT number, name,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon
		FROM stops ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query stops: %w", err)
	}
	for rows.Next() {
		var s domain.StopEntry
		if err := rows.Scan(&s.Number, &s.Name, &s.Location.Lat, &s.Location.Lon); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stop: %w", err)
		}
		stopIdx[s.Number] = len(snap.Stops)
		snap.Stops = append(snap.Stops, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, `SELECT stop_number, route_number FROM stop_routes ORDER BY stop_number, seq`)
	if err != nil {
		return nil, fmt.Errorf("query stop routes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			stop  int
			route string
		)
		if err := rows.Scan(&stop, &route); err != nil {
			return nil, fmt.Errorf("scan stop route: %w", err)
		}
		if i, ok := stopIdx[stop]; ok {
			snap.Stops[i].Routes = append(snap.Stops[i].Routes, route)
		}
	}
	return snap, rows.Err()
}

// SaveCatalog replaces the stored catalog inside one transaction.
func (r *CatalogRepo) SaveCatalog(ctx context.Context, snap *domain.CatalogSnapshot) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE stop_routes, stops, route_patterns, routes`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	batch := &pgx.Batch{}
	for i, rt := range snap.Routes {
		batch.Queue(`INSERT INTO routes (number, name, seq) VALUES ($1, $2, $3)`, rt.Number, rt.Name, i)
		for j, p := range rt.Patterns {
			path := p.Path
			if path == nil {
				path = []domain.GeoPoint{}
			}
			batch.Queue(`
				INSERT INTO route_patterns (route_number, seq, name, destination, direction, path)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, rt.Number, j, p.Name, p.Destination, p.Direction, path)
		}
	}
	for i, s := range snap.Stops {
		batch.Queue(`
			INSERT INTO stops (number, name, location, seq)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)
		`, s.Number, s.Name, s.Location.Lon, s.Location.Lat, i)
		for j, route := range s.Routes {
			batch.Queue(`INSERT INTO stop_routes (stop_number, route_number, seq) VALUES ($1, $2, $3)`, s.Number, route, j)
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}
