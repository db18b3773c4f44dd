// Package units implements the measurement core of Clear Gauge:
// quantity domains, unit conversion, the deployment-wide unit system,
// and the display precision policy.
//
// # Architecture
//
// Every physical quantity (temperature, length, pressure, mass, volume,
// speed) owns a closed set of recognised unit symbols and a conversion
// table. Factor-based quantities convert through a canonical pivot unit
// (metres, pascals, grams, litres, metres/second); temperature has exactly
// two units and uses the direct linear formula instead.
//
//	caller value ──▶ validate units ──▶ validate magnitude ──▶ convert
//	                      │                    │                  │
//	                 ErrUnknownUnit       ErrNotFinite      pivot or formula
//
// A System bundles one preferred unit per quantity for a whole deployment
// (the metric and imperial presets). Systems are immutable values:
// changing units at runtime means constructing a new System and passing it
// along, never mutating a shared instance.
//
// # Key Responsibilities
//
//   - Closed valid-unit sets per quantity, validated on every call
//   - Pivot-based conversion with an exact identity short-circuit
//   - Dewpoint derivation (Magnus approximation)
//   - Unit system construction with batch validation of all four units
//   - Rounding policy for user display (whole, halves, tenths)
//
// # Thread Safety
//
// Everything here is a pure function or an immutable value. All functions
// and methods are safe for concurrent use from any number of goroutines
// without coordination.
package units
