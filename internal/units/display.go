package units

import "math"

// Precision selects the rounding rule applied before a value is shown to
// a user.
type Precision string

// Recognised precision policies. Anything else, including the empty
// string, falls back to nearest-whole rounding; an unexpected precision is
// never an error.
const (
	PrecisionWhole  Precision = "whole"
	PrecisionHalves Precision = "halves"
	PrecisionTenths Precision = "tenths"
)

// AllPrecisions returns the recognised precision policies.
func AllPrecisions() []Precision {
	return []Precision{PrecisionWhole, PrecisionHalves, PrecisionTenths}
}

// IsValid reports whether p is one of the recognised precision policies.
func (p Precision) IsValid() bool {
	switch p {
	case PrecisionWhole, PrecisionHalves, PrecisionTenths:
		return true
	default:
		return false
	}
}

// RoundTo applies a display precision policy to a value: halves rounds to
// the nearest 0.5, tenths to one decimal place, and everything else to the
// nearest whole number.
func RoundTo(value float64, precision Precision) float64 {
	switch precision {
	case PrecisionHalves:
		return math.Round(value*2) / 2 //nolint:mnd // halves = doubled, rounded, halved
	case PrecisionTenths:
		return math.Round(value*10) / 10 //nolint:mnd // tenths = one decimal place
	default:
		return math.Round(value)
	}
}

// DisplayTemperature prepares a temperature reading for user display under
// a deployment's unit system.
//
// A nil temperature passes through as nil: missing data is not an error.
// A present value must be finite. When the source unit differs from the
// system's preferred temperature unit the value is converted first, then
// the precision policy is applied.
//
// Parameters:
//   - system: The deployment's unit system
//   - temperature: The reading, or nil when the source had no data
//   - from: The unit the reading is expressed in
//   - precision: Rounding policy for the result
//
// Returns:
//   - *float64: The display-ready value, or nil for nil input
//   - error: ErrNotFinite, or a conversion error when from is unknown
func DisplayTemperature(system System, temperature *float64, from Unit, precision Precision) (*float64, error) {
	if temperature == nil {
		return nil, nil
	}

	value := *temperature
	if err := checkFinite(value); err != nil {
		return nil, err
	}

	if from != system.Temperature() {
		converted, err := ConvertTemperature(value, from, system.Temperature())
		if err != nil {
			return nil, err
		}
		value = converted
	}

	rounded := RoundTo(value, precision)
	return &rounded, nil
}
