package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	mu      sync.Mutex
	sensors map[string]*Sensor
	// For testing error paths
	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		sensors: make(map[string]*Sensor),
	}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sensors[id]; ok {
		return s.Clone(), nil
	}
	return nil, ErrSensorNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	sensors := make([]Sensor, 0, len(m.sensors))
	for _, s := range m.sensors {
		sensors = append(sensors, *s.Clone())
	}
	return sensors, nil
}

func (m *MockRepository) ListBySource(_ context.Context, source string) ([]Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sensors []Sensor
	for _, s := range m.sensors {
		if s.Source == source {
			sensors = append(sensors, *s.Clone())
		}
	}
	return sensors, nil
}

func (m *MockRepository) ListByQuantity(_ context.Context, quantity units.Quantity) ([]Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sensors []Sensor
	for _, s := range m.sensors {
		if s.Quantity == quantity {
			sensors = append(sensors, *s.Clone())
		}
	}
	return sensors, nil
}

func (m *MockRepository) Create(_ context.Context, s *Sensor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.sensors[s.ID]; ok {
		return ErrSensorExists
	}
	m.sensors[s.ID] = s.Clone()
	return nil
}

func (m *MockRepository) Update(_ context.Context, s *Sensor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.sensors[s.ID]; !ok {
		return ErrSensorNotFound
	}
	m.sensors[s.ID] = s.Clone()
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.sensors[id]; !ok {
		return ErrSensorNotFound
	}
	delete(m.sensors, id)
	return nil
}

func TestRegistry_RefreshCache(t *testing.T) {
	repo := NewMockRepository()
	repo.sensors["sen-1"] = testSensor("sen-1", "Sensor One")
	repo.sensors["sen-2"] = testSensor("sen-2", "Sensor Two")

	registry := NewRegistry(repo)
	ctx := context.Background()

	if err := registry.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	if count := registry.GetSensorCount(); count != 2 {
		t.Errorf("GetSensorCount() = %d, want 2", count)
	}
}

func TestRegistry_GetSensor(t *testing.T) {
	repo := NewMockRepository()
	repo.sensors["sen-cached"] = testSensor("sen-cached", "Cached Sensor")

	registry := NewRegistry(repo)
	ctx := context.Background()

	t.Run("falls back to repository on cache miss", func(t *testing.T) {
		got, err := registry.GetSensor(ctx, "sen-cached")
		if err != nil {
			t.Fatalf("GetSensor() error = %v", err)
		}
		if got.Name != "Cached Sensor" {
			t.Errorf("Name = %q, want %q", got.Name, "Cached Sensor")
		}

		// Second lookup should be served from the cache
		if count := registry.GetSensorCount(); count != 1 {
			t.Errorf("GetSensorCount() after miss = %d, want 1", count)
		}
	})

	t.Run("returns ErrSensorNotFound for missing sensor", func(t *testing.T) {
		_, err := registry.GetSensor(ctx, "missing")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("GetSensor() error = %v, want ErrSensorNotFound", err)
		}
	})

	t.Run("returned sensor is isolated from the cache", func(t *testing.T) {
		displayUnit := units.Fahrenheit
		got, err := registry.GetSensor(ctx, "sen-cached")
		if err != nil {
			t.Fatalf("GetSensor() error = %v", err)
		}

		got.Name = "Mutated"
		got.DisplayUnit = &displayUnit

		again, err := registry.GetSensor(ctx, "sen-cached")
		if err != nil {
			t.Fatalf("GetSensor() error = %v", err)
		}
		if again.Name != "Cached Sensor" {
			t.Errorf("cache was mutated through returned sensor: Name = %q", again.Name)
		}
		if again.DisplayUnit != nil {
			t.Errorf("cache was mutated through returned sensor: DisplayUnit = %v", again.DisplayUnit)
		}
	})
}

func TestRegistry_GetSensorBySlug(t *testing.T) {
	repo := NewMockRepository()
	repo.sensors["sen-slug"] = testSensor("sen-slug", "Slugged Sensor")

	registry := NewRegistry(repo)
	ctx := context.Background()

	t.Run("finds sensor with cold cache", func(t *testing.T) {
		got, err := registry.GetSensorBySlug(ctx, "slugged-sensor")
		if err != nil {
			t.Fatalf("GetSensorBySlug() error = %v", err)
		}
		if got.ID != "sen-slug" {
			t.Errorf("ID = %q, want %q", got.ID, "sen-slug")
		}
	})

	t.Run("finds sensor from cache", func(t *testing.T) {
		if err := registry.RefreshCache(ctx); err != nil {
			t.Fatalf("RefreshCache() error = %v", err)
		}

		got, err := registry.GetSensorBySlug(ctx, "slugged-sensor")
		if err != nil {
			t.Fatalf("GetSensorBySlug() error = %v", err)
		}
		if got.ID != "sen-slug" {
			t.Errorf("ID = %q, want %q", got.ID, "sen-slug")
		}
	})

	t.Run("returns ErrSensorNotFound for unknown slug", func(t *testing.T) {
		_, err := registry.GetSensorBySlug(ctx, "no-such-slug")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("GetSensorBySlug() error = %v, want ErrSensorNotFound", err)
		}
	})
}

func TestRegistry_CreateSensor(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	t.Run("creates sensor with generated ID and slug", func(t *testing.T) {
		s := &Sensor{
			Name:       "New Sensor",
			Source:     "weather-station",
			Field:      "wind_speed",
			Quantity:   units.Speed,
			SourceUnit: units.MetersPerSecond,
			Enabled:    true,
		}

		if err := registry.CreateSensor(ctx, s); err != nil {
			t.Fatalf("CreateSensor() error = %v", err)
		}

		// ID should be generated
		if s.ID == "" {
			t.Error("ID was not generated")
		}

		// Slug should be generated
		if s.Slug != "new-sensor" {
			t.Errorf("Slug = %q, want %q", s.Slug, "new-sensor")
		}

		// Should be in cache
		got, err := registry.GetSensor(ctx, s.ID)
		if err != nil {
			t.Fatalf("GetSensor() error = %v", err)
		}
		if got.Name != "New Sensor" {
			t.Errorf("Name = %q, want %q", got.Name, "New Sensor")
		}
	})

	t.Run("validates sensor before creating", func(t *testing.T) {
		s := &Sensor{
			Name: "", // Invalid: empty name
		}

		err := registry.CreateSensor(ctx, s)
		if !errors.Is(err, ErrInvalidSensor) {
			t.Errorf("CreateSensor() error = %v, want ErrInvalidSensor", err)
		}
	})

	t.Run("returns error for duplicate ID", func(t *testing.T) {
		s1 := testSensor("dup-id", "First")
		if err := registry.CreateSensor(ctx, s1); err != nil {
			t.Fatalf("first CreateSensor() error = %v", err)
		}

		s2 := testSensor("dup-id", "Second")
		err := registry.CreateSensor(ctx, s2)
		if !errors.Is(err, ErrSensorExists) {
			t.Errorf("CreateSensor() error = %v, want ErrSensorExists", err)
		}
	})

	t.Run("does not cache on repository failure", func(t *testing.T) {
		repo.createErr = errors.New("disk full")
		defer func() { repo.createErr = nil }()

		before := registry.GetSensorCount()
		s := testSensor("sen-fail", "Failing Sensor")
		if err := registry.CreateSensor(ctx, s); err == nil {
			t.Fatal("CreateSensor() = nil, want error")
		}
		if after := registry.GetSensorCount(); after != before {
			t.Errorf("GetSensorCount() = %d, want %d", after, before)
		}
	})
}

func TestRegistry_UpdateSensor(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	// Create initial sensor
	s := testSensor("sen-update", "Original")
	if err := registry.CreateSensor(ctx, s); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	t.Run("updates sensor and regenerates slug", func(t *testing.T) {
		s.Name = "Updated"

		if err := registry.UpdateSensor(ctx, s); err != nil {
			t.Fatalf("UpdateSensor() error = %v", err)
		}

		got, _ := registry.GetSensor(ctx, "sen-update")
		if got.Name != "Updated" {
			t.Errorf("Name = %q, want %q", got.Name, "Updated")
		}
		// Slug should be regenerated when name changes
		if got.Slug != "updated" {
			t.Errorf("Slug = %q, want %q", got.Slug, "updated")
		}
	})

	t.Run("preserves explicit slug", func(t *testing.T) {
		s.Name = "Renamed Again"
		s.Slug = "pinned-slug"

		if err := registry.UpdateSensor(ctx, s); err != nil {
			t.Fatalf("UpdateSensor() error = %v", err)
		}

		got, _ := registry.GetSensor(ctx, "sen-update")
		if got.Slug != "pinned-slug" {
			t.Errorf("Slug = %q, want %q", got.Slug, "pinned-slug")
		}
	})

	t.Run("preserves created_at from stored sensor", func(t *testing.T) {
		stored, _ := registry.GetSensor(ctx, "sen-update")

		update := stored.Clone()
		update.CreatedAt = stored.CreatedAt.AddDate(1, 0, 0)
		update.Enabled = false

		if err := registry.UpdateSensor(ctx, update); err != nil {
			t.Fatalf("UpdateSensor() error = %v", err)
		}

		got, _ := registry.GetSensor(ctx, "sen-update")
		if !got.CreatedAt.Equal(stored.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, stored.CreatedAt)
		}
	})

	t.Run("returns ErrSensorNotFound for nonexistent", func(t *testing.T) {
		nonexistent := testSensor("nonexistent", "Ghost")
		err := registry.UpdateSensor(ctx, nonexistent)
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("UpdateSensor() error = %v, want ErrSensorNotFound", err)
		}
	})
}

func TestRegistry_DeleteSensor(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	s := testSensor("sen-delete", "Doomed")
	if err := registry.CreateSensor(ctx, s); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	t.Run("deletes sensor", func(t *testing.T) {
		if err := registry.DeleteSensor(ctx, "sen-delete"); err != nil {
			t.Fatalf("DeleteSensor() error = %v", err)
		}

		_, err := registry.GetSensor(ctx, "sen-delete")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("GetSensor() after delete error = %v, want ErrSensorNotFound", err)
		}
	})

	t.Run("returns ErrSensorNotFound for nonexistent", func(t *testing.T) {
		err := registry.DeleteSensor(ctx, "never-existed")
		if !errors.Is(err, ErrSensorNotFound) {
			t.Errorf("DeleteSensor() error = %v, want ErrSensorNotFound", err)
		}
	})
}

func TestRegistry_GetSensorsBySource(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	station := testSensor("sen-station", "Station Temperature")
	boiler := testSensor("sen-boiler", "Boiler Temperature")
	boiler.Source = "boiler-bridge"

	for _, s := range []*Sensor{station, boiler} {
		if err := registry.CreateSensor(ctx, s); err != nil {
			t.Fatalf("CreateSensor() error = %v", err)
		}
	}

	sensors, err := registry.GetSensorsBySource(ctx, "weather-station")
	if err != nil {
		t.Fatalf("GetSensorsBySource() error = %v", err)
	}
	if len(sensors) != 1 {
		t.Fatalf("GetSensorsBySource() returned %d sensors, want 1", len(sensors))
	}
	if sensors[0].ID != "sen-station" {
		t.Errorf("ID = %q, want %q", sensors[0].ID, "sen-station")
	}
}

func TestRegistry_GetSensorsByQuantity(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	temp := testSensor("sen-temp", "Loft Temperature")
	mass := testSensor("sen-mass", "Hopper Weight")
	mass.Quantity = units.Mass
	mass.SourceUnit = units.Kilograms

	for _, s := range []*Sensor{temp, mass} {
		if err := registry.CreateSensor(ctx, s); err != nil {
			t.Fatalf("CreateSensor() error = %v", err)
		}
	}

	sensors, err := registry.GetSensorsByQuantity(ctx, units.Mass)
	if err != nil {
		t.Fatalf("GetSensorsByQuantity() error = %v", err)
	}
	if len(sensors) != 1 {
		t.Fatalf("GetSensorsByQuantity() returned %d sensors, want 1", len(sensors))
	}
	if sensors[0].ID != "sen-mass" {
		t.Errorf("ID = %q, want %q", sensors[0].ID, "sen-mass")
	}
}

func TestRegistry_GetEnabledBySource(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	enabled := testSensor("sen-on", "Enabled Sensor")
	enabled.Field = "temperature"

	disabled := testSensor("sen-off", "Disabled Sensor")
	disabled.Field = "humidity"
	disabled.Enabled = false

	other := testSensor("sen-other", "Other Source")
	other.Source = "thermostat"
	other.Field = "temperature"

	for _, s := range []*Sensor{enabled, disabled, other} {
		if err := registry.CreateSensor(ctx, s); err != nil {
			t.Fatalf("CreateSensor() error = %v", err)
		}
	}

	t.Run("returns enabled sensors keyed by field", func(t *testing.T) {
		byField, err := registry.GetEnabledBySource(ctx, "weather-station")
		if err != nil {
			t.Fatalf("GetEnabledBySource() error = %v", err)
		}
		if len(byField) != 1 {
			t.Fatalf("GetEnabledBySource() returned %d sensors, want 1", len(byField))
		}
		got, ok := byField["temperature"]
		if !ok {
			t.Fatal("missing entry for field \"temperature\"")
		}
		if got.ID != "sen-on" {
			t.Errorf("ID = %q, want %q", got.ID, "sen-on")
		}
	})

	t.Run("returns empty map for unknown source", func(t *testing.T) {
		byField, err := registry.GetEnabledBySource(ctx, "nobody")
		if err != nil {
			t.Fatalf("GetEnabledBySource() error = %v", err)
		}
		if len(byField) != 0 {
			t.Errorf("GetEnabledBySource() returned %d sensors, want 0", len(byField))
		}
	})
}

func TestRegistry_GetStats(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	temp := testSensor("sen-1", "Temperature One")
	temp2 := testSensor("sen-2", "Temperature Two")
	temp2.Enabled = false
	press := testSensor("sen-3", "Pressure One")
	press.Source = "barometer"
	press.Quantity = units.Pressure
	press.SourceUnit = units.Hectopascals

	for _, s := range []*Sensor{temp, temp2, press} {
		if err := registry.CreateSensor(ctx, s); err != nil {
			t.Fatalf("CreateSensor() error = %v", err)
		}
	}

	stats := registry.GetStats()

	if stats.TotalSensors != 3 {
		t.Errorf("TotalSensors = %d, want 3", stats.TotalSensors)
	}
	if stats.EnabledSensors != 2 {
		t.Errorf("EnabledSensors = %d, want 2", stats.EnabledSensors)
	}
	if stats.ByQuantity["temperature"] != 2 {
		t.Errorf("ByQuantity[temperature] = %d, want 2", stats.ByQuantity["temperature"])
	}
	if stats.ByQuantity["pressure"] != 1 {
		t.Errorf("ByQuantity[pressure] = %d, want 1", stats.ByQuantity["pressure"])
	}
	if stats.BySource["weather-station"] != 2 {
		t.Errorf("BySource[weather-station] = %d, want 2", stats.BySource["weather-station"])
	}
	if stats.BySource["barometer"] != 1 {
		t.Errorf("BySource[barometer] = %d, want 1", stats.BySource["barometer"])
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	// Create initial sensor
	s := testSensor("concurrent", "Concurrent Sensor")
	if err := registry.CreateSensor(ctx, s); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	// Run concurrent operations
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)

		// Concurrent reads
		go func() {
			defer wg.Done()
			registry.GetSensor(ctx, "concurrent")
		}()

		// Concurrent lists
		go func() {
			defer wg.Done()
			registry.ListSensors(ctx)
		}()

		// Concurrent lookups by source
		go func() {
			defer wg.Done()
			registry.GetEnabledBySource(ctx, "weather-station")
		}()
	}

	wg.Wait()

	// Should still be accessible
	_, err := registry.GetSensor(ctx, "concurrent")
	if err != nil {
		t.Errorf("GetSensor() after concurrent access error = %v", err)
	}
}
