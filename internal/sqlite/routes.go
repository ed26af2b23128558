package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trip-planner/internal/models"
)

const routeColumns = `id, user_id, name, start_date, end_date, notes, day_count, version, created_at, updated_at`

const stopColumns = `id, route_id, destination_id, day_number, order_in_day, notes, planned_time, visited, created_at, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*models.Route, error) {
	var r models.Route
	var start, end sql.NullTime
	var notes sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &start, &end, &notes, &r.DayCount, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}
	if start.Valid {
		r.StartDate = &start.Time
	}
	if end.Valid {
		r.EndDate = &end.Time
	}
	if notes.Valid {
		r.Notes = &notes.String
	}
	return &r, nil
}

func scanStop(row rowScanner) (*models.Stop, error) {
	var st models.Stop
	var notes, planned sql.NullString
	err := row.Scan(&st.ID, &st.RouteID, &st.DestinationID, &st.DayNumber, &st.OrderInDay,
		&notes, &planned, &st.Visited, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan stop: %w", err)
	}
	if notes.Valid {
		st.Notes = &notes.String
	}
	if planned.Valid {
		st.PlannedTime = &planned.String
	}
	return &st, nil
}

func queryStops(ctx context.Context, q queryer, query string, args ...any) ([]*models.Stop, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	stops := []*models.Stop{}
	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stops: %w", err)
	}
	return stops, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// CreateRoute inserts a new empty route and fills in its id.
func (s *Store) CreateRoute(ctx context.Context, route *models.Route) (*models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO routes (user_id, name, start_date, end_date, notes, day_count, version, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, route.UserID, route.Name,
		nullableTime(route.StartDate), nullableTime(route.EndDate), nullableString(route.Notes),
		route.DayCount, route.CreatedAt, route.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite.CreateRoute: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite.CreateRoute: %w", err)
	}
	created := *route
	created.ID = id
	created.Version = 1
	return &created, nil
}

// ListRoutes returns the user's routes, most recently modified first.
func (s *Store) ListRoutes(ctx context.Context, userID string) ([]*models.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE user_id = ? ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite.ListRoutes: %w", err)
	}
	defer rows.Close()

	routes := []*models.Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite.ListRoutes: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.ListRoutes: %w", err)
	}
	return routes, nil
}

func (s *Store) FindRoute(ctx context.Context, routeID int64, userID string) (*models.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = ? AND user_id = ?`, routeID, userID)
	return scanRoute(row)
}

func (s *Store) FindStopRouteID(ctx context.Context, stopID int64) (int64, error) {
	var routeID int64
	err := s.db.QueryRowContext(ctx, `SELECT route_id FROM route_stops WHERE id = ?`, stopID).Scan(&routeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("sqlite.FindStopRouteID: %w", err)
	}
	return routeID, nil
}

func (s *Store) ListStops(ctx context.Context, routeID int64) ([]*models.Stop, error) {
	return queryStops(ctx, s.db,
		`SELECT `+stopColumns+` FROM route_stops WHERE route_id = ? ORDER BY day_number, order_in_day, id`, routeID)
}

// txRepository implements store.Tx on top of one *sql.Tx.
type txRepository struct {
	tx *sql.Tx
}

func (r *txRepository) LockRoute(ctx context.Context, routeID int64, userID string) (*models.Route, error) {
	// The immediate transaction already holds the database write lock.
	row := r.tx.QueryRowContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = ? AND user_id = ?`, routeID, userID)
	return scanRoute(row)
}

func (r *txRepository) SaveRoute(ctx context.Context, route *models.Route, expectedVersion int64) error {
	query := `UPDATE routes
	          SET name = ?, start_date = ?, end_date = ?, notes = ?, day_count = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ?`
	res, err := r.tx.ExecContext(ctx, query, route.Name,
		nullableTime(route.StartDate), nullableTime(route.EndDate), nullableString(route.Notes),
		route.DayCount, route.UpdatedAt, route.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("sqlite.SaveRoute: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite.SaveRoute: %w", err)
	}
	if n == 0 {
		return models.ErrConflict
	}
	route.Version = expectedVersion + 1
	return nil
}

func (r *txRepository) DeleteRoute(ctx context.Context, routeID int64) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM route_stops WHERE route_id = ?`, routeID); err != nil {
		return fmt.Errorf("sqlite.DeleteRoute stops: %w", err)
	}
	res, err := r.tx.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, routeID)
	if err != nil {
		return fmt.Errorf("sqlite.DeleteRoute: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *txRepository) ListDayStops(ctx context.Context, routeID int64, dayNumber int) ([]*models.Stop, error) {
	return queryStops(ctx, r.tx,
		`SELECT `+stopColumns+` FROM route_stops WHERE route_id = ? AND day_number = ? ORDER BY order_in_day, id`,
		routeID, dayNumber)
}

func (r *txRepository) ListRouteStops(ctx context.Context, routeID int64) ([]*models.Stop, error) {
	return queryStops(ctx, r.tx,
		`SELECT `+stopColumns+` FROM route_stops WHERE route_id = ? ORDER BY day_number, order_in_day, id`, routeID)
}

func (r *txRepository) FindStop(ctx context.Context, routeID, stopID int64) (*models.Stop, error) {
	row := r.tx.QueryRowContext(ctx,
		`SELECT `+stopColumns+` FROM route_stops WHERE id = ? AND route_id = ?`, stopID, routeID)
	return scanStop(row)
}

func (r *txRepository) InsertStop(ctx context.Context, stop *models.Stop) error {
	query := `INSERT INTO route_stops (route_id, destination_id, day_number, order_in_day, notes, planned_time, visited, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.tx.ExecContext(ctx, query, stop.RouteID, stop.DestinationID, stop.DayNumber, stop.OrderInDay,
		nullableString(stop.Notes), nullableString(stop.PlannedTime), stop.Visited, stop.CreatedAt, stop.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite.InsertStop: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite.InsertStop: %w", err)
	}
	stop.ID = id
	return nil
}

func (r *txRepository) UpdateStop(ctx context.Context, stop *models.Stop) error {
	query := `UPDATE route_stops
	          SET day_number = ?, order_in_day = ?, notes = ?, planned_time = ?, visited = ?, updated_at = ?
	          WHERE id = ? AND route_id = ?`
	res, err := r.tx.ExecContext(ctx, query, stop.DayNumber, stop.OrderInDay,
		nullableString(stop.Notes), nullableString(stop.PlannedTime), stop.Visited, stop.UpdatedAt,
		stop.ID, stop.RouteID)
	if err != nil {
		return fmt.Errorf("sqlite.UpdateStop: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteStop(ctx context.Context, stopID int64) error {
	res, err := r.tx.ExecContext(ctx, `DELETE FROM route_stops WHERE id = ?`, stopID)
	if err != nil {
		return fmt.Errorf("sqlite.DeleteStop: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteDayStops(ctx context.Context, routeID int64, dayNumber int) error {
	if _, err := r.tx.ExecContext(ctx,
		`DELETE FROM route_stops WHERE route_id = ? AND day_number = ?`, routeID, dayNumber); err != nil {
		return fmt.Errorf("sqlite.DeleteDayStops: %w", err)
	}
	return nil
}
