package units

// volumeToLiters holds each volume unit's size in litres, the pivot unit
// for volume conversion. Gallons and fluid ounces are US liquid measure:
// 1 gal = 3.785411784 L exactly, 1 fl. oz. = 1/128 gal.
var volumeToLiters = map[Unit]float64{
	Milliliters: 0.001,
	Liters:      1,
	CubicMeters: 1000,
	CubicFeet:   28.316846592,
	Gallons:     3.785411784,
	FluidOunces: 0.0295735295625,
}

// ConvertVolume converts a volume between two recognised units.
//
// Conversion routes through litres. Identical units return the value
// unchanged, exactly.
//
// Returns:
//   - float64: The converted volume
//   - error: ErrUnknownUnit or ErrNotFinite
func ConvertVolume(value float64, from, to Unit) (float64, error) {
	return convertByFactor(Volume, value, from, to)
}
