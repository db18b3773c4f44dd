package normalizer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryStore persists normalised readings for the history endpoint.
//
// Implementations must be thread-safe and use UTC timestamps.
type HistoryStore interface {
	// Record persists one normalised reading.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - rec: The reading to persist
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, rec Normalized) error

	// History returns recent readings for a sensor, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - sensorID: Unique sensor identifier
	//   - limit: Maximum entries to return (default 50, max 200)
	//   - since: Lower bound on created_at; zero means no bound
	//
	// Returns:
	//   - []Normalized: Readings ordered by created_at DESC (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	History(ctx context.Context, sensorID string, limit int, since time.Time) ([]Normalized, error)

	// Prune deletes readings older than the given duration.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - olderThan: Duration to retain (readings older than now-olderThan are deleted)
	//
	// Returns:
	//   - int64: Number of rows deleted
	//   - error: nil on success, otherwise the underlying database error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SQLiteHistoryStore implements HistoryStore using the reading_history table.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// NewSQLiteHistoryStore creates a new SQLite reading history store.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteHistoryStore: Store instance ready for use
func NewSQLiteHistoryStore(db *sql.DB) *SQLiteHistoryStore {
	return &SQLiteHistoryStore{db: db}
}

// Record inserts a normalised reading into the history table.
func (s *SQLiteHistoryStore) Record(ctx context.Context, rec Normalized) error {
	if rec.SensorID == "" {
		return fmt.Errorf("sensor id is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = rec.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reading_history (id, sensor_id, quantity, unit, value, observed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.SensorID,
		string(rec.Quantity),
		string(rec.Unit),
		rec.Value,
		rec.ObservedAt.UTC().Format(time.RFC3339),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading history: %w", err)
	}

	return nil
}

// History returns recent readings for a sensor, ordered newest first.
func (s *SQLiteHistoryStore) History(ctx context.Context, sensorID string, limit int, since time.Time) ([]Normalized, error) {
	if sensorID == "" {
		return nil, fmt.Errorf("sensor id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT id, sensor_id, quantity, unit, value, observed_at, created_at
		 FROM reading_history
		 WHERE sensor_id = ?`
	args := []any{sensorID}

	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC().Format(time.RFC3339))
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reading history: %w", err)
	}
	defer rows.Close()

	readings := make([]Normalized, 0, limit)
	for rows.Next() {
		var rec Normalized
		var quantity, unit string
		var observedAt, createdAt string

		if err := rows.Scan(&rec.ID, &rec.SensorID, &quantity, &unit, &rec.Value, &observedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning reading history: %w", err)
		}

		rec.Quantity = units.Quantity(quantity)
		rec.Unit = units.Unit(unit)

		rec.ObservedAt, err = parseHistoryTimestamp(observedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing observed_at: %w", err)
		}
		rec.CreatedAt, err = parseHistoryTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		readings = append(readings, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reading history: %w", err)
	}

	return readings, nil
}

// Prune deletes history readings older than the given duration.
func (s *SQLiteHistoryStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM reading_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting reading history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
	}

	return timestamp, nil
}
