package normalizer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/clear-gauge-core/internal/reading"
	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Observation is the raw payload an integration publishes for one
// measurement cycle.
// Topic: cleargauge/raw/{source}
//
// Two payload shapes are accepted. The envelope form carries an
// optional timestamp:
//
//	{"observed_at": "2026-03-01T12:00:00Z",
//	 "readings": {"temperature": 21.4, "humidity": {"value": 63}}}
//
// and the flat form is just the field map, for sources that publish
// their readings directly:
//
//	{"temperature": 21.4, "pressure": [{"value": 1012.8}, {"value": 1013.1, "max": true}]}
type Observation struct {
	// ObservedAt is when the source took the readings (UTC).
	// If absent, the time of receipt is used.
	ObservedAt *time.Time `json:"observed_at,omitempty"`

	// Readings maps field names to their reported values.
	Readings map[string]reading.Reading `json:"readings"`
}

// ParseObservation decodes a raw observation payload.
//
// Envelope payloads are decoded strictly. In the flat form, fields
// that do not decode as readings (status strings, nested metadata)
// are ignored rather than failing the whole payload, since raw
// integration payloads routinely mix readings with bookkeeping.
func ParseObservation(payload []byte) (*Observation, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObservation, err)
	}

	if _, ok := raw["readings"]; ok {
		var obs Observation
		if err := json.Unmarshal(payload, &obs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedObservation, err)
		}
		return &obs, nil
	}

	// Flat form
	obs := &Observation{Readings: make(map[string]reading.Reading, len(raw))}
	for field, value := range raw {
		if field == "observed_at" {
			var ts time.Time
			if err := json.Unmarshal(value, &ts); err == nil {
				obs.ObservedAt = &ts
			}
			continue
		}

		var r reading.Reading
		if err := json.Unmarshal(value, &r); err != nil {
			continue
		}
		obs.Readings[field] = r
	}
	return obs, nil
}

// Normalized is one reading after selection, conversion, and rounding.
// Topic: cleargauge/readings/{sensor_id}
// QoS: 1, Retained: Yes
type Normalized struct {
	// ID uniquely identifies this reading (UUID).
	ID string `json:"id"`

	// Cycle groups every reading produced from one raw observation (UUID).
	Cycle string `json:"cycle"`

	// SensorID is the sensor this reading belongs to.
	SensorID string `json:"sensor_id"`

	// SensorSlug is the sensor's URL identifier, for display consumers.
	SensorSlug string `json:"sensor_slug,omitempty"`

	// Source is the integration that published the raw observation.
	Source string `json:"source"`

	// Field is the key within the source's observation payload.
	Field string `json:"field"`

	// Quantity is the measured quantity (temperature, pressure, ...).
	Quantity units.Quantity `json:"quantity"`

	// Value is the reading in the target unit, rounded per the sensor's
	// precision policy.
	Value float64 `json:"value"`

	// Unit is the target unit the value was converted into.
	Unit units.Unit `json:"unit"`

	// ObservedAt is when the source took the reading (UTC).
	ObservedAt time.Time `json:"observed_at"`

	// CreatedAt is when the reading was normalised (UTC).
	CreatedAt time.Time `json:"created_at"`
}
