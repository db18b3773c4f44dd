package units

import (
	"fmt"
	"math"
)

// Linear map between the two temperature scales.
const (
	fahrenheitSlope  = 1.8
	fahrenheitOffset = 32.0
)

// Magnus formula constants for dewpoint approximation, valid for ordinary
// atmospheric temperatures.
const (
	magnusB = 17.67
	magnusC = 243.5
)

const maxHumidityPercent = 100.0

// ConvertTemperature converts a temperature between Celsius and Fahrenheit.
//
// The temperature set holds exactly these two units, so conversion is the
// direct linear formula rather than a pivot table: C→F is value*1.8+32 and
// F→C is (value-32)/1.8. Identical units return the value unchanged,
// exactly.
//
// Returns:
//   - float64: The converted temperature
//   - error: ErrUnknownUnit or ErrNotFinite
func ConvertTemperature(value float64, from, to Unit) (float64, error) {
	if err := checkUnit(Temperature, from); err != nil {
		return 0, err
	}
	if err := checkUnit(Temperature, to); err != nil {
		return 0, err
	}
	if err := checkFinite(value); err != nil {
		return 0, err
	}
	if from == to {
		return value, nil
	}

	if from == Celsius {
		return value*fahrenheitSlope + fahrenheitOffset, nil
	}
	return (value - fahrenheitOffset) / fahrenheitSlope, nil
}

// DewPoint derives the dewpoint from a temperature and relative humidity
// using the Magnus approximation.
//
// The temperature is interpreted in the given unit and the result is
// returned in the same unit. Humidity must lie within (0, 100]: zero is
// rejected before the logarithm is evaluated, and at exactly 100% the
// dewpoint equals the input temperature.
//
// Parameters:
//   - temperature: The air temperature, in unit
//   - humidity: Relative humidity percentage, within (0, 100]
//   - unit: Temperature unit for both input and result
//
// Returns:
//   - float64: The dewpoint, in unit
//   - error: ErrUnknownUnit, ErrNotFinite, or ErrHumidityRange
func DewPoint(temperature, humidity float64, unit Unit) (float64, error) {
	if err := checkUnit(Temperature, unit); err != nil {
		return 0, err
	}
	if err := checkFinite(temperature); err != nil {
		return 0, err
	}
	if err := checkFinite(humidity); err != nil {
		return 0, err
	}
	if humidity <= 0 || humidity > maxHumidityPercent {
		return 0, fmt.Errorf("%w: got %v", ErrHumidityRange, humidity)
	}

	celsius, err := ConvertTemperature(temperature, unit, Celsius)
	if err != nil {
		return 0, err
	}

	gamma := math.Log(humidity/maxHumidityPercent) + magnusB*celsius/(magnusC+celsius)
	dewpoint := magnusC * gamma / (magnusB - gamma)

	return ConvertTemperature(dewpoint, Celsius, unit)
}
