package sensor

import (
	"time"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Sensor binds one field of a source's observation payload to a measurement
// definition. This matches the database schema in
// migrations/20260301_100000_initial_schema.up.sql.
type Sensor struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`

	// Binding: which raw payload field this sensor reads.
	// Source is the integration identifier (e.g. "weatherstation"),
	// Field the key within that source's observation payload.
	Source string `json:"source"`
	Field  string `json:"field"`

	// Measurement classification. SourceUnit is the unit raw values arrive
	// in; it must be a recognised member of Quantity's unit set.
	Quantity   units.Quantity `json:"quantity"`
	SourceUnit units.Unit     `json:"source_unit"`

	// Display overrides. When nil, the deployment unit system decides the
	// target unit and the configured default decides the precision.
	DisplayUnit *units.Unit      `json:"display_unit,omitempty"`
	Precision   *units.Precision `json:"precision,omitempty"`

	// Enabled gates normalisation; disabled sensors keep their history but
	// receive no new readings.
	Enabled bool `json:"enabled"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone creates an independent copy of the Sensor.
// Pointer fields are cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (s *Sensor) Clone() *Sensor {
	if s == nil {
		return nil
	}

	cpy := *s // Shallow copy of value fields

	if s.DisplayUnit != nil {
		u := *s.DisplayUnit
		cpy.DisplayUnit = &u
	}
	if s.Precision != nil {
		p := *s.Precision
		cpy.Precision = &p
	}

	return &cpy
}

// TargetUnit resolves the unit this sensor's readings are normalised into.
//
// Resolution order:
//  1. The sensor's explicit DisplayUnit override
//  2. The unit system's default for the sensor's quantity
//  3. The source unit unchanged (quantities the system does not cover)
func (s *Sensor) TargetUnit(system units.System) units.Unit {
	if s.DisplayUnit != nil {
		return *s.DisplayUnit
	}
	if target, ok := system.TargetFor(s.Quantity); ok {
		return target
	}
	return s.SourceUnit
}

// DisplayPrecision resolves the rounding policy for this sensor,
// falling back to the supplied deployment default when unset.
func (s *Sensor) DisplayPrecision(fallback units.Precision) units.Precision {
	if s.Precision != nil {
		return *s.Precision
	}
	return fallback
}
