package units

// massToGrams holds each mass unit's size in grams, the pivot unit for
// mass conversion. Avoirdupois definitions: 1 lb = 453.59237 g exactly,
// 1 oz = 1/16 lb, 1 st = 14 lb.
var massToGrams = map[Unit]float64{
	Milligrams: 0.001,
	Grams:      1,
	Kilograms:  1000,
	Ounces:     28.349523125,
	Pounds:     453.59237,
	Stones:     6350.29318,
}

// ConvertMass converts a mass between two recognised units.
//
// Conversion routes through grams. Identical units return the value
// unchanged, exactly.
//
// Returns:
//   - float64: The converted mass
//   - error: ErrUnknownUnit or ErrNotFinite
func ConvertMass(value float64, from, to Unit) (float64, error) {
	return convertByFactor(Mass, value, from, to)
}
