package sensor

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Catalog is a YAML document describing a fleet of sensors, used for
// bulk provisioning. Entries are matched to existing sensors by their
// source/field binding, so a catalog can be imported repeatedly.
type Catalog struct {
	// Sensors lists the sensor definitions in the catalog
	Sensors []CatalogEntry `yaml:"sensors"`
}

// CatalogEntry describes a single sensor in a catalog document.
type CatalogEntry struct {
	// Name is the human-readable sensor name (required)
	Name string `yaml:"name"`

	// Slug overrides the generated URL identifier (optional)
	Slug string `yaml:"slug,omitempty"`

	// Source is the publisher the sensor listens to (required)
	Source string `yaml:"source"`

	// Field is the key within the source's observations (required)
	Field string `yaml:"field"`

	// Quantity is the measured quantity, e.g. "temperature" (required)
	Quantity string `yaml:"quantity"`

	// SourceUnit is the unit the source reports in (required)
	SourceUnit string `yaml:"source_unit"`

	// DisplayUnit overrides the unit system's target unit (optional)
	DisplayUnit string `yaml:"display_unit,omitempty"`

	// Precision overrides the display rounding step (optional)
	Precision string `yaml:"precision,omitempty"`

	// Enabled controls whether observations are processed (default true)
	Enabled *bool `yaml:"enabled,omitempty"`
}

// toSensor converts a catalog entry into a Sensor ready for validation.
func (e CatalogEntry) toSensor() *Sensor {
	s := &Sensor{
		Name:       e.Name,
		Slug:       e.Slug,
		Source:     e.Source,
		Field:      e.Field,
		Quantity:   units.Quantity(e.Quantity),
		SourceUnit: units.Unit(e.SourceUnit),
		Enabled:    true,
	}
	if e.DisplayUnit != "" {
		u := units.Unit(e.DisplayUnit)
		s.DisplayUnit = &u
	}
	if e.Precision != "" {
		p := units.Precision(e.Precision)
		s.Precision = &p
	}
	if e.Enabled != nil {
		s.Enabled = *e.Enabled
	}
	return s
}

// ParseCatalog parses and validates a YAML catalog document.
//
// Every entry is validated and all problems are reported together,
// each prefixed with the entry's index, so a catalog author sees the
// full list in one pass. Duplicate source/field bindings within the
// document are also rejected.
//
// Returns ErrInvalidCatalog (wrapped) if the document cannot be parsed
// or any entry is invalid.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %v", ErrInvalidCatalog, err)
	}

	if len(catalog.Sensors) == 0 {
		return nil, fmt.Errorf("%w: no sensors defined", ErrInvalidCatalog)
	}

	var problems []string
	seen := make(map[string]int)

	for i, entry := range catalog.Sensors {
		if err := Validate(entry.toSensor()); err != nil {
			problems = append(problems, fmt.Sprintf("sensors[%d]: %v", i, err))
		}

		binding := entry.Source + "/" + entry.Field
		if prev, ok := seen[binding]; ok {
			problems = append(problems, fmt.Sprintf(
				"sensors[%d]: duplicate binding %q (already used by sensors[%d])", i, binding, prev))
		} else {
			seen[binding] = i
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}

	return &catalog, nil
}

// ImportResult holds the outcome of a catalog import.
type ImportResult struct {
	// Success indicates whether the import completed without errors
	Success bool `json:"success"`

	// DryRun indicates whether changes were only simulated
	DryRun bool `json:"dry_run"`

	// Results contains counts of what was done
	Results ImportResultStats `json:"results"`

	// Errors lists entries that could not be applied
	Errors []string `json:"errors,omitempty"`
}

// ImportResultStats contains counts from an import operation.
type ImportResultStats struct {
	// SensorsCreated is the number of new sensors added
	SensorsCreated int `json:"sensors_created"`

	// SensorsUpdated is the number of existing sensors modified
	SensorsUpdated int `json:"sensors_updated"`

	// SensorsSkipped is the number of entries already up to date
	SensorsSkipped int `json:"sensors_skipped"`
}

// Import applies a parsed catalog to the registry.
//
// Entries are matched to existing sensors by source/field binding:
// unmatched entries are created, matched entries are updated when they
// differ and skipped when identical. With dryRun set, the outcome is
// computed but nothing is persisted.
//
// Per-entry failures are collected in the result rather than aborting
// the import, so one bad entry does not block the rest.
func Import(ctx context.Context, registry *Registry, catalog *Catalog, dryRun bool) (*ImportResult, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", ErrInvalidCatalog)
	}

	result := &ImportResult{DryRun: dryRun}

	for i, entry := range catalog.Sensors {
		want := entry.toSensor()

		existing, err := findByBinding(ctx, registry, want.Source, want.Field)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sensors[%d] %s/%s: %v", i, want.Source, want.Field, err))
			continue
		}

		switch {
		case existing == nil:
			if dryRun {
				if err := Validate(want); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("sensors[%d] %s/%s: %v", i, want.Source, want.Field, err))
					continue
				}
			} else if err := registry.CreateSensor(ctx, want); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("sensors[%d] %s/%s: %v", i, want.Source, want.Field, err))
				continue
			}
			result.Results.SensorsCreated++

		case entryMatches(existing, want):
			result.Results.SensorsSkipped++

		default:
			want.ID = existing.ID
			if want.Slug == "" {
				want.Slug = existing.Slug
			}
			if !dryRun {
				if err := registry.UpdateSensor(ctx, want); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("sensors[%d] %s/%s: %v", i, want.Source, want.Field, err))
					continue
				}
			}
			result.Results.SensorsUpdated++
		}
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

// findByBinding looks up a sensor by its source/field binding.
// Returns nil without error if no sensor has the binding.
func findByBinding(ctx context.Context, registry *Registry, source, field string) (*Sensor, error) {
	sensors, err := registry.GetSensorsBySource(ctx, source)
	if err != nil {
		return nil, err
	}
	for i := range sensors {
		if sensors[i].Field == field {
			return &sensors[i], nil
		}
	}
	return nil, nil
}

// entryMatches reports whether an existing sensor already carries the
// catalog entry's settings. A blank slug in the entry matches any slug.
func entryMatches(existing, want *Sensor) bool {
	if existing.Name != want.Name ||
		existing.Quantity != want.Quantity ||
		existing.SourceUnit != want.SourceUnit ||
		existing.Enabled != want.Enabled {
		return false
	}
	if want.Slug != "" && existing.Slug != want.Slug {
		return false
	}
	if !equalUnitPtr(existing.DisplayUnit, want.DisplayUnit) {
		return false
	}
	return equalPrecisionPtr(existing.Precision, want.Precision)
}

func equalUnitPtr(a, b *units.Unit) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalPrecisionPtr(a, b *units.Precision) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
