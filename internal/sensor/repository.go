package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Repository defines the interface for sensor persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a sensor by its unique identifier.
	// Returns ErrSensorNotFound if the sensor does not exist.
	GetByID(ctx context.Context, id string) (*Sensor, error)

	// List retrieves all sensors.
	List(ctx context.Context) ([]Sensor, error)

	// ListBySource retrieves all sensors bound to a specific source.
	ListBySource(ctx context.Context, source string) ([]Sensor, error)

	// ListByQuantity retrieves all sensors measuring a specific quantity.
	ListByQuantity(ctx context.Context, quantity units.Quantity) ([]Sensor, error)

	// Create inserts a new sensor.
	// Returns ErrSensorExists if the ID, slug, or source/field binding
	// collides with an existing sensor.
	Create(ctx context.Context, s *Sensor) error

	// Update modifies an existing sensor.
	// Returns ErrSensorNotFound if the sensor does not exist.
	Update(ctx context.Context, s *Sensor) error

	// Delete removes a sensor by ID.
	// Returns ErrSensorNotFound if the sensor does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a sensor by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Sensor, error) {
	query := `
		SELECT id, name, slug, source, field, quantity, source_unit,
			display_unit, precision, enabled, created_at, updated_at
		FROM sensors
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	s, err := scanSensor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor by id: %w", err)
	}
	return s, nil
}

// List retrieves all sensors.
func (r *SQLiteRepository) List(ctx context.Context) ([]Sensor, error) {
	query := `
		SELECT id, name, slug, source, field, quantity, source_unit,
			display_unit, precision, enabled, created_at, updated_at
		FROM sensors
		ORDER BY name`

	return r.querySensors(ctx, query)
}

// ListBySource retrieves all sensors bound to a specific source.
func (r *SQLiteRepository) ListBySource(ctx context.Context, source string) ([]Sensor, error) {
	query := `
		SELECT id, name, slug, source, field, quantity, source_unit,
			display_unit, precision, enabled, created_at, updated_at
		FROM sensors
		WHERE source = ?
		ORDER BY name`

	return r.querySensors(ctx, query, source)
}

// ListByQuantity retrieves all sensors measuring a specific quantity.
func (r *SQLiteRepository) ListByQuantity(ctx context.Context, quantity units.Quantity) ([]Sensor, error) {
	query := `
		SELECT id, name, slug, source, field, quantity, source_unit,
			display_unit, precision, enabled, created_at, updated_at
		FROM sensors
		WHERE quantity = ?
		ORDER BY name`

	return r.querySensors(ctx, query, string(quantity))
}

// Create inserts a new sensor.
func (r *SQLiteRepository) Create(ctx context.Context, s *Sensor) error {
	// Set timestamps if not set
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query := `
		INSERT INTO sensors (
			id, name, slug, source, field, quantity, source_unit,
			display_unit, precision, enabled, created_at, updated_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?
		)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Name,
		s.Slug,
		s.Source,
		s.Field,
		string(s.Quantity),
		string(s.SourceUnit),
		nullableUnit(s.DisplayUnit),
		nullablePrecision(s.Precision),
		boolToInt(s.Enabled),
		s.CreatedAt.Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		// Check for unique constraint violation (id, slug, or source/field)
		if isUniqueConstraintError(err) {
			return ErrSensorExists
		}
		return fmt.Errorf("inserting sensor: %w", err)
	}

	return nil
}

// Update modifies an existing sensor.
func (r *SQLiteRepository) Update(ctx context.Context, s *Sensor) error {
	// First check the sensor exists
	exists, err := r.exists(ctx, s.ID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSensorNotFound
	}

	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sensors SET
			name = ?, slug = ?, source = ?, field = ?, quantity = ?,
			source_unit = ?, display_unit = ?, precision = ?, enabled = ?,
			updated_at = ?
		WHERE id = ?`

	_, err = r.db.ExecContext(ctx, query,
		s.Name,
		s.Slug,
		s.Source,
		s.Field,
		string(s.Quantity),
		string(s.SourceUnit),
		nullableUnit(s.DisplayUnit),
		nullablePrecision(s.Precision),
		boolToInt(s.Enabled),
		s.UpdatedAt.Format(time.RFC3339),
		s.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSensorExists
		}
		return fmt.Errorf("updating sensor: %w", err)
	}

	return nil
}

// Delete removes a sensor by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sensor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSensorNotFound
	}

	return nil
}

// querySensors executes a query and returns a slice of sensors.
func (r *SQLiteRepository) querySensors(ctx context.Context, query string, args ...any) ([]Sensor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	var sensors []Sensor
	for rows.Next() {
		s, err := scanSensorFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		sensors = append(sensors, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}

	return sensors, nil
}

// exists checks if a sensor with the given ID exists.
func (r *SQLiteRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensors WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking sensor exists: %w", err)
	}
	return count > 0, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSensor scans a single row into a Sensor.
func scanSensor(row *sql.Row) (*Sensor, error) {
	return scanSensorRow(row)
}

// scanSensorFromRows scans a rows result into a Sensor.
func scanSensorFromRows(rows *sql.Rows) (*Sensor, error) {
	return scanSensorRow(rows)
}

// scanSensorRow scans a row or rows result into a Sensor.
func scanSensorRow(scanner rowScanner) (*Sensor, error) {
	var s Sensor
	var quantity, sourceUnit string
	var displayUnit, precision sql.NullString
	var enabled int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&s.ID,
		&s.Name,
		&s.Slug,
		&s.Source,
		&s.Field,
		&quantity,
		&sourceUnit,
		&displayUnit,
		&precision,
		&enabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Set type fields
	s.Quantity = units.Quantity(quantity)
	s.SourceUnit = units.Unit(sourceUnit)
	s.Enabled = enabled != 0

	// Set nullable overrides
	if displayUnit.Valid && displayUnit.String != "" {
		u := units.Unit(displayUnit.String)
		s.DisplayUnit = &u
	}
	if precision.Valid && precision.String != "" {
		p := units.Precision(precision.String)
		s.Precision = &p
	}

	// Parse timestamps
	var parseErr error
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	s.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &s, nil
}

// nullableUnit returns a sql.NullString for optional unit pointers.
func nullableUnit(u *units.Unit) sql.NullString {
	if u == nil || *u == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*u), Valid: true}
}

// nullablePrecision returns a sql.NullString for optional precision pointers.
func nullablePrecision(p *units.Precision) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
