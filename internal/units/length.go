package units

// lengthToMeters holds each length unit's size in metres, the pivot unit
// for length conversion. The imperial entries are the international
// definitions (1 in = 25.4 mm exactly).
var lengthToMeters = map[Unit]float64{
	Millimeters: 0.001,
	Centimeters: 0.01,
	Meters:      1,
	Kilometers:  1000,
	Inches:      0.0254,
	Feet:        0.3048,
	Yards:       0.9144,
	Miles:       1609.344,
}

// ConvertLength converts a length between two recognised units.
//
// Conversion routes through metres. Identical units return the value
// unchanged, exactly.
//
// Returns:
//   - float64: The converted length
//   - error: ErrUnknownUnit or ErrNotFinite
func ConvertLength(value float64, from, to Unit) (float64, error) {
	return convertByFactor(Length, value, from, to)
}
