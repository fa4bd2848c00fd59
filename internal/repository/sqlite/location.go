package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

var _ repository.LocationRepository = (*DB)(nil)

// seedLocations inserts the fixed office list. Existing ids are left alone,
// so restarting the server never duplicates or overwrites a location.
func (db *DB) seedLocations(ctx context.Context, locations []model.Location) error {
	for _, l := range locations {
		_, err := db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO locations (id, pincode, name) VALUES (?, ?, ?)`,
			l.ID, l.Pincode, l.Name,
		)
		if err != nil {
			return fmt.Errorf("inserting location %d: %w", l.ID, err)
		}
	}
	return nil
}

// ListLocations returns every registered location ordered by id.
func (db *DB) ListLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, pincode, name FROM locations ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing locations: %w", err)
	}
	defer rows.Close()

	locations := make([]model.Location, 0, len(model.DefaultLocations))
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Pincode, &l.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning location row: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating locations: %w", err)
	}
	return locations, nil
}

// GetLocation returns apperror.ErrNotFound for an unknown id.
func (db *DB) GetLocation(ctx context.Context, id int64) (*model.Location, error) {
	var l model.Location
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, pincode, name FROM locations WHERE id = ?`, id,
	).Scan(&l.ID, &l.Pincode, &l.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("location", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting location %d: %w", id, err)
	}
	return &l, nil
}
