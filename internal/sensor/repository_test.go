package sensor

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// setupTestDB creates an in-memory SQLite database with the sensors table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create sensors table matching the schema, precision column included
	schema := `
		CREATE TABLE sensors (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			slug         TEXT NOT NULL UNIQUE,
			source       TEXT NOT NULL,
			field        TEXT NOT NULL,
			quantity     TEXT NOT NULL,
			source_unit  TEXT NOT NULL,
			display_unit TEXT,
			precision    TEXT,
			enabled      INTEGER NOT NULL DEFAULT 1,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			UNIQUE (source, field)
		);
		CREATE INDEX idx_sensors_source ON sensors (source);
		CREATE INDEX idx_sensors_quantity ON sensors (quantity);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testSensor creates a sensor for testing. The ID doubles as the field
// so distinct sensors never collide on the source/field binding.
func testSensor(id, name string) *Sensor {
	return &Sensor{
		ID:         id,
		Name:       name,
		Slug:       GenerateSlug(name),
		Source:     "weather-station",
		Field:      id,
		Quantity:   units.Temperature,
		SourceUnit: units.Celsius,
		Enabled:    true,
	}
}

func TestSQLiteRepository_Create(t *testing.T) { //nolint:gocognit // comprehensive table-driven test
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("creates sensor successfully", func(t *testing.T) {
		s := testSensor("sen-001", "Garden Temperature")

		err := repo.Create(ctx, s)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		// Verify it was created
		got, err := repo.GetByID(ctx, "sen-001")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Name != "Garden Temperature" {
			t.Errorf("Name = %q, want %q", got.Name, "Garden Temperature")
		}
		if got.Quantity != units.Temperature {
			t.Errorf("Quantity = %q, want %q", got.Quantity, units.Temperature)
		}
		if got.SourceUnit != units.Celsius {
			t.Errorf("SourceUnit = %q, want %q", got.SourceUnit, units.Celsius)
		}
		if !got.Enabled {
			t.Error("Enabled = false, want true")
		}
	})

	t.Run("returns error for duplicate ID", func(t *testing.T) {
		s := testSensor("sen-duplicate", "First Sensor")
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("first Create() error = %v", err)
		}

		s2 := testSensor("sen-duplicate", "Second Sensor")
		err := repo.Create(ctx, s2)
		if !errors.Is(err, ErrSensorExists) {
			t.Errorf("Create() error = %v, want ErrSensorExists", err)
		}
	})

	t.Run("returns error for duplicate slug", func(t *testing.T) {
		s := testSensor("sen-slug-a", "Slug Holder")
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("first Create() error = %v", err)
		}

		s2 := testSensor("sen-slug-b", "Different Name")
		s2.Slug = "slug-holder"
		err := repo.Create(ctx, s2)
		if !errors.Is(err, ErrSensorExists) {
			t.Errorf("Create() error = %v, want ErrSensorExists", err)
		}
	})

	t.Run("returns error for duplicate source and field", func(t *testing.T) {
		s := testSensor("sen-bind-a", "Binding Holder")
		s.Field = "shared_field"
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("first Create() error = %v", err)
		}

		s2 := testSensor("sen-bind-b", "Binding Challenger")
		s2.Field = "shared_field"
		err := repo.Create(ctx, s2)
		if !errors.Is(err, ErrSensorExists) {
			t.Errorf("Create() error = %v, want ErrSensorExists", err)
		}
	})

	t.Run("stores all fields correctly", func(t *testing.T) {
		displayUnit := units.Fahrenheit
		precision := units.PrecisionHalves

		s := &Sensor{
			ID:          "sen-full",
			Name:        "Full Sensor",
			Slug:        "full-sensor",
			Source:      "boiler-bridge",
			Field:       "flow_temperature",
			Quantity:    units.Temperature,
			SourceUnit:  units.Celsius,
			DisplayUnit: &displayUnit,
			Precision:   &precision,
			Enabled:     false,
		}

		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := repo.GetByID(ctx, "sen-full")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}

		// Verify all fields
		if got.Source != "boiler-bridge" {
			t.Errorf("Source = %q, want %q", got.Source, "boiler-bridge")
		}
		if got.Field != "flow_temperature" {
			t.Errorf("Field = %q, want %q", got.Field, "flow_temperature")
		}
		if got.DisplayUnit == nil || *got.DisplayUnit != units.Fahrenheit {
			t.Errorf("DisplayUnit = %v, want %q", got.DisplayUnit, units.Fahrenheit)
		}
		if got.Precision == nil || *got.Precision != units.PrecisionHalves {
			t.Errorf("Precision = %v, want %q", got.Precision, units.PrecisionHalves)
		}
		if got.Enabled {
			t.Error("Enabled = true, want false")
		}
		if got.CreatedAt.IsZero() {
			t.Error("CreatedAt is zero, want set")
		}
		if got.UpdatedAt.IsZero() {
			t.Error("UpdatedAt is zero, want set")
		}
	})

	t.Run("preserves provided created_at", func(t *testing.T) {
		created := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
		s := testSensor("sen-ts", "Timestamped Sensor")
		s.CreatedAt = created

		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := repo.GetByID(ctx, "sen-ts")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
		}
	})
}

func TestSQLiteRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	s := testSensor("sen-get", "Lookup Sensor")
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("finds existing sensor", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "sen-get")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.ID != "sen-get" {
			t.Errorf("ID = %q, want %q", got.ID, "sen-get")
		}
		// Optional overrides were not set
		if got.DisplayUnit != nil {
			t.Errorf("DisplayUnit = %v, want nil", got.DisplayUnit)
		}
		if got.Precision != nil {
			t.Errorf("Precision = %v, want nil", got.Precision)
		}
	})

	t.Run("returns ErrSensorNotFound for missing sensor", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "does-not-exist")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("GetByID() error = %v, want ErrSensorNotFound", err)
		}
	})
}

func TestSQLiteRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("returns empty list for no sensors", func(t *testing.T) {
		sensors, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(sensors) != 0 {
			t.Errorf("List() returned %d sensors, want 0", len(sensors))
		}
	})

	t.Run("returns sensors ordered by name", func(t *testing.T) {
		for _, seed := range []struct{ id, name string }{
			{"sen-c", "Cellar Humidity"},
			{"sen-a", "Attic Temperature"},
			{"sen-b", "Bedroom Pressure"},
		} {
			if err := repo.Create(ctx, testSensor(seed.id, seed.name)); err != nil {
				t.Fatalf("Create(%s) error = %v", seed.id, err)
			}
		}

		sensors, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(sensors) != 3 {
			t.Fatalf("List() returned %d sensors, want 3", len(sensors))
		}
		wantOrder := []string{"Attic Temperature", "Bedroom Pressure", "Cellar Humidity"}
		for i, want := range wantOrder {
			if sensors[i].Name != want {
				t.Errorf("sensors[%d].Name = %q, want %q", i, sensors[i].Name, want)
			}
		}
	})
}

func TestSQLiteRepository_ListBySource(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	outside := testSensor("sen-out", "Outside Temperature")
	inside := testSensor("sen-in", "Inside Temperature")
	inside.Source = "thermostat"

	for _, s := range []*Sensor{outside, inside} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	sensors, err := repo.ListBySource(ctx, "weather-station")
	if err != nil {
		t.Fatalf("ListBySource() error = %v", err)
	}
	if len(sensors) != 1 {
		t.Fatalf("ListBySource() returned %d sensors, want 1", len(sensors))
	}
	if sensors[0].ID != "sen-out" {
		t.Errorf("ID = %q, want %q", sensors[0].ID, "sen-out")
	}

	none, err := repo.ListBySource(ctx, "unknown-source")
	if err != nil {
		t.Fatalf("ListBySource() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListBySource(unknown) returned %d sensors, want 0", len(none))
	}
}

func TestSQLiteRepository_ListByQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	temp := testSensor("sen-temp", "Loft Temperature")
	press := testSensor("sen-press", "Loft Pressure")
	press.Quantity = units.Pressure
	press.SourceUnit = units.Hectopascals

	for _, s := range []*Sensor{temp, press} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	sensors, err := repo.ListByQuantity(ctx, units.Pressure)
	if err != nil {
		t.Fatalf("ListByQuantity() error = %v", err)
	}
	if len(sensors) != 1 {
		t.Fatalf("ListByQuantity() returned %d sensors, want 1", len(sensors))
	}
	if sensors[0].ID != "sen-press" {
		t.Errorf("ID = %q, want %q", sensors[0].ID, "sen-press")
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("updates existing sensor", func(t *testing.T) {
		s := testSensor("sen-upd", "Original Name")
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		displayUnit := units.Fahrenheit
		s.Name = "Renamed Sensor"
		s.DisplayUnit = &displayUnit
		s.Enabled = false

		if err := repo.Update(ctx, s); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := repo.GetByID(ctx, "sen-upd")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Name != "Renamed Sensor" {
			t.Errorf("Name = %q, want %q", got.Name, "Renamed Sensor")
		}
		if got.DisplayUnit == nil || *got.DisplayUnit != units.Fahrenheit {
			t.Errorf("DisplayUnit = %v, want %q", got.DisplayUnit, units.Fahrenheit)
		}
		if got.Enabled {
			t.Error("Enabled = true, want false")
		}
	})

	t.Run("clears optional overrides", func(t *testing.T) {
		displayUnit := units.Fahrenheit
		precision := units.PrecisionTenths

		s := testSensor("sen-clear", "Override Sensor")
		s.DisplayUnit = &displayUnit
		s.Precision = &precision
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		s.DisplayUnit = nil
		s.Precision = nil
		if err := repo.Update(ctx, s); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := repo.GetByID(ctx, "sen-clear")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.DisplayUnit != nil {
			t.Errorf("DisplayUnit = %v, want nil", got.DisplayUnit)
		}
		if got.Precision != nil {
			t.Errorf("Precision = %v, want nil", got.Precision)
		}
	})

	t.Run("returns ErrSensorNotFound for missing sensor", func(t *testing.T) {
		s := testSensor("sen-ghost", "Ghost Sensor")
		err := repo.Update(ctx, s)
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("Update() error = %v, want ErrSensorNotFound", err)
		}
	})
}

func TestSQLiteRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("deletes existing sensor", func(t *testing.T) {
		s := testSensor("sen-del", "Doomed Sensor")
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := repo.Delete(ctx, "sen-del"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		_, err := repo.GetByID(ctx, "sen-del")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("GetByID() after delete error = %v, want ErrSensorNotFound", err)
		}
	})

	t.Run("returns ErrSensorNotFound for missing sensor", func(t *testing.T) {
		err := repo.Delete(ctx, "never-existed")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("Delete() error = %v, want ErrSensorNotFound", err)
		}
	})
}
