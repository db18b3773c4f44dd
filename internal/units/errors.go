package units

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the units package.
// Wrap with fmt.Errorf("%w: ...") to add context while preserving errors.Is matching.
var (
	// ErrUnknownUnit indicates a unit symbol that is not a member of its
	// quantity's recognised set. The wrapped message names both the symbol
	// and the quantity.
	ErrUnknownUnit = errors.New("units: unit not recognised")

	// ErrUnknownQuantity indicates a quantity outside the fixed set of
	// measurement categories.
	ErrUnknownQuantity = errors.New("units: quantity not recognised")

	// ErrUnknownSystem indicates a unit system name with no preset.
	ErrUnknownSystem = errors.New("units: unit system not recognised")

	// ErrNotFinite indicates a magnitude that is NaN or infinite. Raised
	// before any arithmetic is attempted.
	ErrNotFinite = errors.New("units: value is not a finite number")

	// ErrHumidityRange indicates a relative humidity outside (0, 100].
	// Checked before the dewpoint logarithm is evaluated.
	ErrHumidityRange = errors.New("units: humidity must be within (0, 100]")
)

// InvalidSystemUnit records one rejected unit from a System constructor call.
type InvalidSystemUnit struct {
	Quantity Quantity
	Unit     Unit
}

// InvalidSystemError reports every invalid unit found while constructing a
// System. All four constructor arguments are checked before this error is
// returned, so a caller sees the full list of problems at once rather than
// only the first.
type InvalidSystemError struct {
	Invalid []InvalidSystemUnit
}

// Error joins the individual failures into a single message.
func (e *InvalidSystemError) Error() string {
	parts := make([]string, 0, len(e.Invalid))
	for _, iu := range e.Invalid {
		parts = append(parts, fmt.Sprintf("%q is not a recognised %s unit", iu.Unit, iu.Quantity))
	}
	return "units: invalid unit system: " + strings.Join(parts, "; ")
}

// Unwrap exposes each rejected unit as an ErrUnknownUnit wrap so that
// errors.Is(err, ErrUnknownUnit) matches aggregated failures too.
func (e *InvalidSystemError) Unwrap() []error {
	errs := make([]error, 0, len(e.Invalid))
	for _, iu := range e.Invalid {
		errs = append(errs, fmt.Errorf("%w: %q is not a recognised %s unit", ErrUnknownUnit, iu.Unit, iu.Quantity))
	}
	return errs
}
