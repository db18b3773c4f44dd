package units

import "fmt"

// factorTables maps each factor-based quantity to its pivot table. Each
// table entry is the size of one unit expressed in the quantity's pivot
// unit (metres, pascals, grams, litres, metres/second). Temperature is
// absent: its two units relate by an affine formula, not a factor.
var factorTables = map[Quantity]map[Unit]float64{
	Length:   lengthToMeters,
	Pressure: pressureToPascals,
	Mass:     massToGrams,
	Volume:   volumeToLiters,
	Speed:    speedToMetersPerSecond,
}

// Convert converts a value between two units of the given quantity.
//
// Both units must belong to the quantity's recognised set and the value
// must be finite; validation happens before any arithmetic. Identical
// units short-circuit to the input value exactly.
//
// Parameters:
//   - quantity: The measurement category the units belong to
//   - value: The magnitude to convert
//   - from: The unit the value is currently expressed in
//   - to: The unit to convert to
//
// Returns:
//   - float64: The converted magnitude
//   - error: ErrUnknownQuantity, ErrUnknownUnit, or ErrNotFinite
func Convert(quantity Quantity, value float64, from, to Unit) (float64, error) {
	if quantity == Temperature {
		return ConvertTemperature(value, from, to)
	}
	if _, ok := factorTables[quantity]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownQuantity, quantity)
	}
	return convertByFactor(quantity, value, from, to)
}

// convertByFactor routes a conversion through the quantity's pivot unit:
// multiply into the pivot, divide out to the target. Two rounding steps
// instead of one direct pairwise factor, so round-trips are equal only to
// within floating-point tolerance, never bit-exact.
func convertByFactor(quantity Quantity, value float64, from, to Unit) (float64, error) {
	if err := checkUnit(quantity, from); err != nil {
		return 0, err
	}
	if err := checkUnit(quantity, to); err != nil {
		return 0, err
	}
	if err := checkFinite(value); err != nil {
		return 0, err
	}
	if from == to {
		return value, nil
	}

	table := factorTables[quantity]
	return value * table[from] / table[to], nil
}
