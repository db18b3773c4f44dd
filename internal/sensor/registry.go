package sensor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides sensor management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations. Mutations write to the
// repository first and then update the cache, so readers never observe
// a sensor that failed to persist.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Sensor // Cached sensors by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new sensor registry backed by the given repository.
// Logging is disabled until SetLogger is called.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Sensor),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all sensors from the repository into the cache.
// Call this at startup and after external changes to the database.
func (r *Registry) RefreshCache(ctx context.Context) error {
	sensors, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading sensors for cache: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Sensor, len(sensors))
	for i := range sensors {
		r.cache[sensors[i].ID] = sensors[i].Clone()
	}

	r.logger.Info("sensor cache refreshed", "count", len(sensors))
	return nil
}

// GetSensor retrieves a sensor by ID, checking the cache first.
// Returns ErrSensorNotFound if the sensor does not exist.
func (r *Registry) GetSensor(ctx context.Context, id string) (*Sensor, error) {
	r.cacheMu.RLock()
	if s, ok := r.cache[id]; ok {
		clone := s.Clone()
		r.cacheMu.RUnlock()
		return clone, nil
	}
	r.cacheMu.RUnlock()

	// Cache miss, try the repository
	s, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.Clone()
	r.cacheMu.Unlock()

	return s, nil
}

// GetSensorBySlug retrieves a sensor by its slug.
// Returns ErrSensorNotFound if no sensor has the given slug.
func (r *Registry) GetSensorBySlug(ctx context.Context, slug string) (*Sensor, error) {
	r.cacheMu.RLock()
	for _, s := range r.cache {
		if s.Slug == slug {
			clone := s.Clone()
			r.cacheMu.RUnlock()
			return clone, nil
		}
	}
	r.cacheMu.RUnlock()

	// Slow path: the cache may be cold
	sensors, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sensors by slug: %w", err)
	}
	for i := range sensors {
		if sensors[i].Slug == slug {
			return sensors[i].Clone(), nil
		}
	}

	return nil, ErrSensorNotFound
}

// ListSensors retrieves all sensors, sorted by name.
func (r *Registry) ListSensors(ctx context.Context) ([]Sensor, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		sensors := make([]Sensor, 0, len(r.cache))
		for _, s := range r.cache {
			sensors = append(sensors, *s.Clone())
		}
		r.cacheMu.RUnlock()

		sort.Slice(sensors, func(i, j int) bool {
			return sensors[i].Name < sensors[j].Name
		})
		return sensors, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// GetSensorsBySource retrieves all sensors bound to a source, sorted by name.
func (r *Registry) GetSensorsBySource(ctx context.Context, source string) ([]Sensor, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		var sensors []Sensor
		for _, s := range r.cache {
			if s.Source == source {
				sensors = append(sensors, *s.Clone())
			}
		}
		r.cacheMu.RUnlock()

		sort.Slice(sensors, func(i, j int) bool {
			return sensors[i].Name < sensors[j].Name
		})
		return sensors, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.ListBySource(ctx, source)
}

// GetSensorsByQuantity retrieves all sensors measuring a quantity, sorted by name.
func (r *Registry) GetSensorsByQuantity(ctx context.Context, quantity units.Quantity) ([]Sensor, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		var sensors []Sensor
		for _, s := range r.cache {
			if s.Quantity == quantity {
				sensors = append(sensors, *s.Clone())
			}
		}
		r.cacheMu.RUnlock()

		sort.Slice(sensors, func(i, j int) bool {
			return sensors[i].Name < sensors[j].Name
		})
		return sensors, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.ListByQuantity(ctx, quantity)
}

// GetEnabledBySource retrieves the enabled sensors bound to a source,
// keyed by field name. This is the lookup the ingestion path performs
// for every raw observation, so it is served from the cache where
// possible.
func (r *Registry) GetEnabledBySource(ctx context.Context, source string) (map[string]*Sensor, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		byField := make(map[string]*Sensor)
		for _, s := range r.cache {
			if s.Source == source && s.Enabled {
				byField[s.Field] = s.Clone()
			}
		}
		r.cacheMu.RUnlock()
		return byField, nil
	}
	r.cacheMu.RUnlock()

	sensors, err := r.repo.ListBySource(ctx, source)
	if err != nil {
		return nil, err
	}

	byField := make(map[string]*Sensor)
	for i := range sensors {
		if sensors[i].Enabled {
			byField[sensors[i].Field] = sensors[i].Clone()
		}
	}
	return byField, nil
}

// CreateSensor creates a new sensor with generated ID and slug.
//
// The creation process:
//  1. Generate a UUID if no ID is provided
//  2. Generate a slug from the name if no slug is provided
//  3. Validate the complete sensor
//  4. Persist to the repository
//  5. Add to the cache
func (r *Registry) CreateSensor(ctx context.Context, s *Sensor) error {
	if s == nil {
		return ErrInvalidSensor
	}

	if s.ID == "" {
		s.ID = GenerateID()
	}
	if s.Slug == "" {
		s.Slug = GenerateSlug(s.Name)
	}

	if err := Validate(s); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, s); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.Clone()
	r.cacheMu.Unlock()

	r.logger.Info("sensor created",
		"id", s.ID,
		"name", s.Name,
		"source", s.Source,
		"field", s.Field,
	)
	return nil
}

// UpdateSensor modifies an existing sensor.
//
// If the name changed and the caller did not supply a new slug, the
// slug is regenerated from the new name. CreatedAt is preserved from
// the stored sensor.
func (r *Registry) UpdateSensor(ctx context.Context, s *Sensor) error {
	if s == nil {
		return ErrInvalidSensor
	}

	existing, err := r.GetSensor(ctx, s.ID)
	if err != nil {
		return err
	}

	if s.Name != existing.Name && s.Slug == existing.Slug {
		s.Slug = GenerateSlug(s.Name)
	}
	s.CreatedAt = existing.CreatedAt

	if err := Validate(s); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, s); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.Clone()
	r.cacheMu.Unlock()

	r.logger.Info("sensor updated", "id", s.ID, "name", s.Name)
	return nil
}

// DeleteSensor removes a sensor by ID.
func (r *Registry) DeleteSensor(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("sensor deleted", "id", id)
	return nil
}

// GetSensorCount returns the number of registered sensors.
func (r *Registry) GetSensorCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Stats holds summary statistics about the sensor inventory.
type Stats struct {
	TotalSensors   int            `json:"total_sensors"`
	EnabledSensors int            `json:"enabled_sensors"`
	ByQuantity     map[string]int `json:"by_quantity"`
	BySource       map[string]int `json:"by_source"`
}

// GetStats returns summary statistics computed from the cache.
func (r *Registry) GetStats() Stats {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	stats := Stats{
		TotalSensors: len(r.cache),
		ByQuantity:   make(map[string]int),
		BySource:     make(map[string]int),
	}
	for _, s := range r.cache {
		if s.Enabled {
			stats.EnabledSensors++
		}
		stats.ByQuantity[string(s.Quantity)]++
		stats.BySource[s.Source]++
	}
	return stats
}
