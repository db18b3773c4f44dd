package units

import "fmt"

// Preset unit system names, as they appear in configuration.
const (
	SystemNameMetric   = "metric"
	SystemNameImperial = "imperial"
)

// System bundles one preferred unit per quantity for an entire deployment.
//
// A System is an immutable value: its fields are unexported, every
// accessor returns a copy, and there is no mutation API. Code that needs
// different units constructs a new System and threads it through
// explicitly rather than altering a shared instance.
type System struct {
	name        string
	temperature Unit
	length      Unit
	volume      Unit
	mass        Unit
}

// Preset systems, constructed once and safe to copy freely.
var (
	// Metric prefers Celsius, kilometres, litres, and grams.
	Metric = System{
		name:        SystemNameMetric,
		temperature: Celsius,
		length:      Kilometers,
		volume:      Liters,
		mass:        Grams,
	}

	// Imperial prefers Fahrenheit, miles, gallons, and pounds.
	Imperial = System{
		name:        SystemNameImperial,
		temperature: Fahrenheit,
		length:      Miles,
		volume:      Gallons,
		mass:        Pounds,
	}
)

// NewSystem constructs a System after validating every unit against its
// quantity's recognised set.
//
// Validation is batched: all four units are checked before failing, and
// the returned *InvalidSystemError lists every invalid one, not just the
// first.
//
// Parameters:
//   - name: Label for the system (e.g. "metric")
//   - temperature, length, volume, mass: One unit per quantity
//
// Returns:
//   - System: The constructed system
//   - error: *InvalidSystemError listing each rejected unit
func NewSystem(name string, temperature, length, volume, mass Unit) (System, error) {
	var invalid []InvalidSystemUnit
	if !Valid(Temperature, temperature) {
		invalid = append(invalid, InvalidSystemUnit{Quantity: Temperature, Unit: temperature})
	}
	if !Valid(Length, length) {
		invalid = append(invalid, InvalidSystemUnit{Quantity: Length, Unit: length})
	}
	if !Valid(Volume, volume) {
		invalid = append(invalid, InvalidSystemUnit{Quantity: Volume, Unit: volume})
	}
	if !Valid(Mass, mass) {
		invalid = append(invalid, InvalidSystemUnit{Quantity: Mass, Unit: mass})
	}
	if len(invalid) > 0 {
		return System{}, &InvalidSystemError{Invalid: invalid}
	}

	return System{
		name:        name,
		temperature: temperature,
		length:      length,
		volume:      volume,
		mass:        mass,
	}, nil
}

// SystemByName resolves a configuration string to a preset System.
func SystemByName(name string) (System, error) {
	switch name {
	case SystemNameMetric:
		return Metric, nil
	case SystemNameImperial:
		return Imperial, nil
	default:
		return System{}, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
	}
}

// Name returns the system's label.
func (s System) Name() string { return s.name }

// Temperature returns the system's preferred temperature unit.
func (s System) Temperature() Unit { return s.temperature }

// Length returns the system's preferred length unit.
func (s System) Length() Unit { return s.length }

// Volume returns the system's preferred volume unit.
func (s System) Volume() Unit { return s.volume }

// Mass returns the system's preferred mass unit.
func (s System) Mass() Unit { return s.mass }

// ConvertTemperature converts a temperature from the given unit into this
// system's preferred temperature unit.
func (s System) ConvertTemperature(value float64, from Unit) (float64, error) {
	return ConvertTemperature(value, from, s.temperature)
}

// ConvertLength converts a length from the given unit into this system's
// preferred length unit.
func (s System) ConvertLength(value float64, from Unit) (float64, error) {
	return ConvertLength(value, from, s.length)
}

// AsMap returns the system's quantity→unit mapping, suitable for
// serialisation in status payloads.
func (s System) AsMap() map[Quantity]Unit {
	return map[Quantity]Unit{
		Temperature: s.temperature,
		Length:      s.length,
		Volume:      s.volume,
		Mass:        s.mass,
	}
}

// TargetFor returns the system's preferred unit for a quantity, or false
// when the system carries no preference (pressure and speed readings keep
// their source unit unless a sensor overrides it).
func (s System) TargetFor(quantity Quantity) (Unit, bool) {
	switch quantity {
	case Temperature:
		return s.temperature, true
	case Length:
		return s.length, true
	case Volume:
		return s.volume, true
	case Mass:
		return s.mass, true
	default:
		return "", false
	}
}
