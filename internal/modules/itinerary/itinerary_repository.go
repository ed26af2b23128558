package itinerary

import (
	"context"
	"errors"
	"fmt"

	"trip-planner/internal/models"
	"trip-planner/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the PostgreSQL schema used by Repository. It is applied by Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS destinations (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS routes (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	start_date DATE,
	end_date DATE,
	notes TEXT,
	day_count INTEGER NOT NULL DEFAULT 0,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS route_stops (
	id BIGSERIAL PRIMARY KEY,
	route_id BIGINT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
	destination_id BIGINT NOT NULL,
	day_number INTEGER NOT NULL CHECK (day_number > 0),
	order_in_day INTEGER NOT NULL CHECK (order_in_day > 0),
	notes TEXT,
	planned_time TEXT,
	visited BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_routes_user ON routes(user_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_route_stops_day ON route_stops(route_id, day_number, order_in_day);
`

const routeColumns = `id, user_id, name, start_date, end_date, notes, day_count, version, created_at, updated_at`

const stopColumns = `id, route_id, destination_id, day_number, order_in_day, notes, planned_time, visited, created_at, updated_at`

// Repository is the PostgreSQL implementation of store.Store.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new itinerary repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ store.Store = (*Repository)(nil)

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}
	return nil
}

// scanRoute is a helper function to scan a row into a Route model.
func scanRoute(row pgx.Row) (*models.Route, error) {
	var route models.Route
	err := row.Scan(
		&route.ID,
		&route.UserID,
		&route.Name,
		&route.StartDate,
		&route.EndDate,
		&route.Notes,
		&route.DayCount,
		&route.Version,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}
	return &route, nil
}

func scanStop(row pgx.Row) (*models.Stop, error) {
	var stop models.Stop
	err := row.Scan(
		&stop.ID,
		&stop.RouteID,
		&stop.DestinationID,
		&stop.DayNumber,
		&stop.OrderInDay,
		&stop.Notes,
		&stop.PlannedTime,
		&stop.Visited,
		&stop.CreatedAt,
		&stop.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan stop: %w", err)
	}
	return &stop, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func queryStops(ctx context.Context, q querier, query string, args ...any) ([]*models.Stop, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := []*models.Stop{}
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

// translateError maps PostgreSQL serialization and deadlock failures to ErrConflict
// so that the whole operation is retried.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%s: %w: %s", op, models.ErrConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repository) CreateRoute(ctx context.Context, route *models.Route) (*models.Route, error) {
	query := `
		INSERT INTO routes (user_id, name, start_date, end_date, notes, day_count, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
		RETURNING ` + routeColumns

	row := r.db.QueryRow(ctx, query,
		route.UserID, route.Name, route.StartDate, route.EndDate, route.Notes, route.DayCount,
		route.CreatedAt, route.UpdatedAt)
	created, err := scanRoute(row)
	if err != nil {
		return nil, fmt.Errorf("repository.CreateRoute: %w", err)
	}
	return created, nil
}

func (r *Repository) ListRoutes(ctx context.Context, userID string) ([]*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListRoutes.Query: %w", err)
	}
	defer rows.Close()

	routes := []*models.Route{}
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListRoutes.Scan: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListRoutes: %w", err)
	}
	return routes, nil
}

func (r *Repository) FindRoute(ctx context.Context, routeID int64, userID string) (*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 AND user_id = $2`
	route, err := scanRoute(r.db.QueryRow(ctx, query, routeID, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindRoute: %w", err)
	}
	return route, nil
}

func (r *Repository) FindStopRouteID(ctx context.Context, stopID int64) (int64, error) {
	var routeID int64
	err := r.db.QueryRow(ctx, `SELECT route_id FROM route_stops WHERE id = $1`, stopID).Scan(&routeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("repository.FindStopRouteID: %w", err)
	}
	return routeID, nil
}

func (r *Repository) ListStops(ctx context.Context, routeID int64) ([]*models.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM route_stops WHERE route_id = $1 ORDER BY day_number, order_in_day, id`
	stops, err := queryStops(ctx, r.db, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListStops: %w", err)
	}
	return stops, nil
}

// WithinTx runs fn in a READ COMMITTED transaction. Route rows are locked with
// SELECT ... FOR UPDATE by LockRoute, and SaveRoute checks the version.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	pgTx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.WithinTx.Begin: %w", err)
	}
	defer pgTx.Rollback(ctx)

	if err := fn(&txRepository{tx: pgTx}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return translateError("repository.WithinTx.Commit", err)
	}
	return nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close is a no-op; the pool is owned by the caller.
func (r *Repository) Close() error {
	return nil
}

// txRepository implements store.Tx on one pgx transaction.
type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) LockRoute(ctx context.Context, routeID int64, userID string) (*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 AND user_id = $2 FOR UPDATE`
	route, err := scanRoute(t.tx.QueryRow(ctx, query, routeID, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, translateError("repository.LockRoute", err)
	}
	return route, nil
}

func (t *txRepository) SaveRoute(ctx context.Context, route *models.Route, expectedVersion int64) error {
	query := `
		UPDATE routes
		SET name = $1, start_date = $2, end_date = $3, notes = $4, day_count = $5,
		    version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8`

	cmdTag, err := t.tx.Exec(ctx, query,
		route.Name, route.StartDate, route.EndDate, route.Notes, route.DayCount, route.UpdatedAt,
		route.ID, expectedVersion)
	if err != nil {
		return translateError("repository.SaveRoute", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrConflict // version moved on since the route was loaded
	}
	route.Version = expectedVersion + 1
	return nil
}

func (t *txRepository) DeleteRoute(ctx context.Context, routeID int64) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM routes WHERE id = $1`, routeID)
	if err != nil {
		return translateError("repository.DeleteRoute", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (t *txRepository) ListDayStops(ctx context.Context, routeID int64, dayNumber int) ([]*models.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM route_stops WHERE route_id = $1 AND day_number = $2 ORDER BY order_in_day, id`
	stops, err := queryStops(ctx, t.tx, query, routeID, dayNumber)
	if err != nil {
		return nil, translateError("repository.ListDayStops", err)
	}
	return stops, nil
}

func (t *txRepository) ListRouteStops(ctx context.Context, routeID int64) ([]*models.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM route_stops WHERE route_id = $1 ORDER BY day_number, order_in_day, id`
	stops, err := queryStops(ctx, t.tx, query, routeID)
	if err != nil {
		return nil, translateError("repository.ListRouteStops", err)
	}
	return stops, nil
}

func (t *txRepository) FindStop(ctx context.Context, routeID, stopID int64) (*models.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM route_stops WHERE id = $1 AND route_id = $2`
	stop, err := scanStop(t.tx.QueryRow(ctx, query, stopID, routeID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, translateError("repository.FindStop", err)
	}
	return stop, nil
}

func (t *txRepository) InsertStop(ctx context.Context, stop *models.Stop) error {
	query := `
		INSERT INTO route_stops (route_id, destination_id, day_number, order_in_day, notes, planned_time, visited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := t.tx.QueryRow(ctx, query,
		stop.RouteID, stop.DestinationID, stop.DayNumber, stop.OrderInDay,
		stop.Notes, stop.PlannedTime, stop.Visited, stop.CreatedAt, stop.UpdatedAt,
	).Scan(&stop.ID)
	if err != nil {
		return translateError("repository.InsertStop", err)
	}
	return nil
}

func (t *txRepository) UpdateStop(ctx context.Context, stop *models.Stop) error {
	query := `
		UPDATE route_stops
		SET day_number = $1, order_in_day = $2, notes = $3, planned_time = $4, visited = $5, updated_at = $6
		WHERE id = $7 AND route_id = $8`
	cmdTag, err := t.tx.Exec(ctx, query,
		stop.DayNumber, stop.OrderInDay, stop.Notes, stop.PlannedTime, stop.Visited, stop.UpdatedAt,
		stop.ID, stop.RouteID)
	if err != nil {
		return translateError("repository.UpdateStop", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteStop(ctx context.Context, stopID int64) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM route_stops WHERE id = $1`, stopID)
	if err != nil {
		return translateError("repository.DeleteStop", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteDayStops(ctx context.Context, routeID int64, dayNumber int) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM route_stops WHERE route_id = $1 AND day_number = $2`, routeID, dayNumber)
	if err != nil {
		return translateError("repository.DeleteDayStops", err)
	}
	return nil
}
