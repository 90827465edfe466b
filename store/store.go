// Package store persists validated routes to Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS routes (
  route_id         TEXT PRIMARY KEY,
  agency_id        TEXT,
  route_short_name TEXT NOT NULL DEFAULT '',
  route_long_name  TEXT NOT NULL DEFAULT '',
  route_desc       TEXT NOT NULL DEFAULT '',
  route_type       INTEGER NOT NULL,
  route_url        TEXT NOT NULL DEFAULT '',
  route_color      TEXT NOT NULL DEFAULT '',
  route_text_color TEXT NOT NULL DEFAULT '',
  route_sort_order INTEGER,
  loaded_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name, route_desc,
  route_type, route_url, route_color, route_text_color, route_sort_order, loaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (route_id) DO UPDATE SET
  agency_id = EXCLUDED.agency_id,
  route_short_name = EXCLUDED.route_short_name,
  route_long_name = EXCLUDED.route_long_name,
  route_desc = EXCLUDED.route_desc,
  route_type = EXCLUDED.route_type,
  route_url = EXCLUDED.route_url,
  route_color = EXCLUDED.route_color,
  route_text_color = EXCLUDED.route_text_color,
  route_sort_order = EXCLUDED.route_sort_order,
  loaded_at = EXCLUDED.loaded_at`

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// RouteStore reads and writes the routes table.
type RouteStore struct {
	db *sql.DB
}

func NewRouteStore(db *sql.DB) *RouteStore {
	return &RouteStore{db: db}
}

func (s *RouteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create routes table: %w", err)
	}
	return nil
}

// SyncRoutes upserts routes by route_id in one transaction. Later rows with
// the same route_id overwrite earlier ones, matching the in-memory index.
func (s *RouteStore) SyncRoutes(ctx context.Context, routes []gtfs.Route) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range routes {
		if _, err := stmt.ExecContext(ctx, upsertArgs(r)...); err != nil {
			return 0, fmt.Errorf("upsert route %s: %w", r.RouteID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(routes), nil
}

func (s *RouteStore) CountRoutes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM routes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count routes: %w", err)
	}
	return n, nil
}

func upsertArgs(r gtfs.Route) []any {
	return []any{
		r.RouteID,
		nullString(r.AgencyID),
		r.RouteShortName,
		r.RouteLongName,
		r.RouteDesc,
		r.RouteType,
		r.RouteURL,
		r.RouteColor,
		r.RouteTextColor,
		nullInt(r.RouteSortOrder),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
