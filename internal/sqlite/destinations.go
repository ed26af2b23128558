package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"trip-planner/internal/models"
)

// FindByIDs resolves destinations by id. Unknown ids are absent from the result.
func (s *Store) FindByIDs(ctx context.Context, ids []int64) (map[int64]*models.Destination, error) {
	result := make(map[int64]*models.Destination, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT id, name, address, latitude, longitude FROM destinations WHERE id IN (` +
		strings.Join(placeholders, ",") + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite.FindByIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Destination
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.Name, &d.Address, &lat, &lng); err != nil {
			return nil, fmt.Errorf("sqlite.FindByIDs scan: %w", err)
		}
		if lat.Valid && lng.Valid {
			d.Latitude = &lat.Float64
			d.Longitude = &lng.Float64
		}
		result[d.ID] = &d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.FindByIDs: %w", err)
	}
	return result, nil
}

// SaveDestination inserts a catalog entry. The catalog is managed outside the itinerary
// core; this is used to seed local databases.
func (s *Store) SaveDestination(ctx context.Context, d *models.Destination) (*models.Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lat, lng any
	if d.HasCoordinates() {
		lat, lng = *d.Latitude, *d.Longitude
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO destinations (name, address, latitude, longitude) VALUES (?, ?, ?, ?)`,
		d.Name, d.Address, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("sqlite.SaveDestination: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite.SaveDestination: %w", err)
	}
	saved := *d
	saved.ID = id
	return &saved, nil
}

// SeedDestinations loads a JSON array of destinations from path into an empty catalog.
// It returns the number of inserted entries; a non-empty catalog is left untouched.
func (s *Store) SeedDestinations(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("sqlite.SeedDestinations read: %w", err)
	}
	var entries []models.Destination
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("sqlite.SeedDestinations decode: %w", err)
	}

	var existing int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM destinations`).Scan(&existing); err != nil {
		return 0, fmt.Errorf("sqlite.SeedDestinations count: %w", err)
	}
	if existing > 0 {
		s.logger.Infof("Destination catalog already has %d entries, skipping seed", existing)
		return 0, nil
	}

	for i := range entries {
		if _, err := s.SaveDestination(ctx, &entries[i]); err != nil {
			return i, err
		}
	}
	s.logger.Infof("Seeded %d destinations from %s", len(entries), path)
	return len(entries), nil
}
