package units

// Time divisors for the derived speed factors.
const (
	secondsPerHour = 3600.0
	secondsPerDay  = 86400.0
)

// speedToMetersPerSecond holds each speed unit's size in metres/second,
// the pivot unit for speed conversion. The per-day and per-hour entries
// express precipitation rates as very small speeds, which keeps wind and
// rainfall intensity in one table.
var speedToMetersPerSecond = map[Unit]float64{
	MetersPerSecond:   1,
	KilometersPerHour: 1000.0 / secondsPerHour,
	MilesPerHour:      1609.344 / secondsPerHour,
	FeetPerSecond:     0.3048,
	Knots:             1852.0 / secondsPerHour,
	MillimetersPerDay: 0.001 / secondsPerDay,
	InchesPerDay:      0.0254 / secondsPerDay,
	InchesPerHour:     0.0254 / secondsPerHour,
}

// ConvertSpeed converts a speed between two recognised units.
//
// Conversion routes through metres/second. Identical units return the
// value unchanged, exactly.
//
// Returns:
//   - float64: The converted speed
//   - error: ErrUnknownUnit or ErrNotFinite
func ConvertSpeed(value float64, from, to Unit) (float64, error) {
	return convertByFactor(Speed, value, from, to)
}
