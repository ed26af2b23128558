// Package store declares the persistence contract of the itinerary core.
// Implementations live in internal/modules/itinerary (Postgres) and internal/sqlite.
package store

import (
	"context"

	"trip-planner/internal/models"
)

// Store gives non-transactional reads and a transactional read/modify/write scope
// over routes and their stops.
type Store interface {
	CreateRoute(ctx context.Context, route *models.Route) (*models.Route, error)
	ListRoutes(ctx context.Context, userID string) ([]*models.Route, error)
	// FindRoute returns models.ErrNotFound when the route does not exist or is owned by someone else.
	FindRoute(ctx context.Context, routeID int64, userID string) (*models.Route, error)
	FindStopRouteID(ctx context.Context, stopID int64) (int64, error)
	ListStops(ctx context.Context, routeID int64) ([]*models.Stop, error)

	// WithinTx runs fn in one transaction. The transaction commits when fn returns nil
	// and rolls back otherwise, including when ctx is cancelled.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	HealthCheck(ctx context.Context) error
	Close() error
}

// Tx is the write scope of one operation.
type Tx interface {
	// LockRoute loads the route for update and checks ownership.
	LockRoute(ctx context.Context, routeID int64, userID string) (*models.Route, error)
	// SaveRoute writes the route's mutable fields and bumps its version.
	// It returns models.ErrConflict if the stored version is no longer expectedVersion.
	SaveRoute(ctx context.Context, route *models.Route, expectedVersion int64) error
	DeleteRoute(ctx context.Context, routeID int64) error

	// ListDayStops returns the stops of one (route, day) ordered by order-in-day.
	ListDayStops(ctx context.Context, routeID int64, dayNumber int) ([]*models.Stop, error)
	// ListRouteStops returns every stop of a route ordered by day, then order-in-day.
	ListRouteStops(ctx context.Context, routeID int64) ([]*models.Stop, error)
	FindStop(ctx context.Context, routeID, stopID int64) (*models.Stop, error)
	InsertStop(ctx context.Context, stop *models.Stop) error
	// UpdateStop writes day number, order, notes, planned time and visited flag.
	UpdateStop(ctx context.Context, stop *models.Stop) error
	DeleteStop(ctx context.Context, stopID int64) error
	DeleteDayStops(ctx context.Context, routeID int64, dayNumber int) error
}

// DestinationReader resolves catalog entries. It is read-only.
type DestinationReader interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*models.Destination, error)
}
