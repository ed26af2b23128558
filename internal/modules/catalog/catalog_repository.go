package catalog

import (
	"context"
	"fmt"

	"trip-planner/internal/models"
	"trip-planner/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the destination catalog from PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new catalog repository.
func NewRepository(db *pgxpool.Pool) store.DestinationReader {
	return &Repository{db: db}
}

// FindByIDs returns the destinations with the given ids. Unknown ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*models.Destination, error) {
	result := make(map[int64]*models.Destination, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, name, address, latitude, longitude
		FROM destinations
		WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository.FindByIDs.Query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.ID, &d.Name, &d.Address, &d.Latitude, &d.Longitude); err != nil {
			return nil, fmt.Errorf("repository.FindByIDs.Scan: %w", err)
		}
		if d.Latitude == nil || d.Longitude == nil {
			d.Latitude, d.Longitude = nil, nil
		}
		result[d.ID] = &d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.FindByIDs: %w", err)
	}
	return result, nil
}
