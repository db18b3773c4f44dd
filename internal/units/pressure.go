package units

// pressureToPascals holds each pressure unit's size in pascals, the pivot
// unit for pressure conversion. hPa and mbar are the same magnitude under
// two names, so converting between them is exact.
var pressureToPascals = map[Unit]float64{
	Pascals:         1,
	Hectopascals:    100,
	Millibars:       100,
	InchesOfMercury: 3386.389,
	PSI:             6894.757,
}

// ConvertPressure converts a pressure between two recognised units.
//
// Conversion routes through pascals. Identical units return the value
// unchanged, exactly.
//
// Returns:
//   - float64: The converted pressure
//   - error: ErrUnknownUnit or ErrNotFinite
func ConvertPressure(value float64, from, to Unit) (float64, error) {
	return convertByFactor(Pressure, value, from, to)
}
