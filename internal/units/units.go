package units

import (
	"fmt"
	"math"
)

// Quantity identifies a physical measurement category. Each quantity owns a
// closed set of recognised units; a unit symbol is only meaningful within
// its own quantity, so cross-quantity conversion always fails.
type Quantity string

// Recognised quantities.
const (
	Temperature Quantity = "temperature"
	Length      Quantity = "length"
	Pressure    Quantity = "pressure"
	Mass        Quantity = "mass"
	Volume      Quantity = "volume"
	Speed       Quantity = "speed"
)

// Unit identifies a unit of measure within one quantity's set.
type Unit string

// Temperature units. Exactly two; there is no Kelvin in this set.
const (
	Celsius    Unit = "°C"
	Fahrenheit Unit = "°F"
)

// Length units.
const (
	Millimeters Unit = "mm"
	Centimeters Unit = "cm"
	Meters      Unit = "m"
	Kilometers  Unit = "km"
	Inches      Unit = "in"
	Feet        Unit = "ft"
	Yards       Unit = "yd"
	Miles       Unit = "mi"
)

// Pressure units.
const (
	Pascals         Unit = "Pa"
	Hectopascals    Unit = "hPa"
	Millibars       Unit = "mbar"
	InchesOfMercury Unit = "inHg"
	PSI             Unit = "psi"
)

// Mass units.
const (
	Milligrams Unit = "mg"
	Grams      Unit = "g"
	Kilograms  Unit = "kg"
	Ounces     Unit = "oz"
	Pounds     Unit = "lb"
	Stones     Unit = "st"
)

// Volume units.
const (
	Milliliters Unit = "mL"
	Liters      Unit = "L"
	CubicMeters Unit = "m³"
	CubicFeet   Unit = "ft³"
	Gallons     Unit = "gal"
	FluidOunces Unit = "fl. oz."
)

// Speed units. The per-day and per-hour entries cover precipitation rates.
const (
	MetersPerSecond   Unit = "m/s"
	KilometersPerHour Unit = "km/h"
	MilesPerHour      Unit = "mph"
	FeetPerSecond     Unit = "ft/s"
	Knots             Unit = "kn"
	MillimetersPerDay Unit = "mm/d"
	InchesPerDay      Unit = "in/d"
	InchesPerHour     Unit = "in/h"
)

// quantityOrder fixes the listing order for AllQuantities and UnitsFor.
var quantityOrder = []Quantity{Temperature, Length, Pressure, Mass, Volume, Speed}

// unitOrder fixes each quantity's listing order (declaration order above).
var unitOrder = map[Quantity][]Unit{
	Temperature: {Celsius, Fahrenheit},
	Length:      {Millimeters, Centimeters, Meters, Kilometers, Inches, Feet, Yards, Miles},
	Pressure:    {Pascals, Hectopascals, Millibars, InchesOfMercury, PSI},
	Mass:        {Milligrams, Grams, Kilograms, Ounces, Pounds, Stones},
	Volume:      {Milliliters, Liters, CubicMeters, CubicFeet, Gallons, FluidOunces},
	Speed:       {MetersPerSecond, KilometersPerHour, MilesPerHour, FeetPerSecond, Knots, MillimetersPerDay, InchesPerDay, InchesPerHour},
}

// unitSets indexes every quantity's recognised units for O(1) validation.
// Built once at init from unitOrder.
var unitSets map[Quantity]map[Unit]struct{}

func init() {
	unitSets = make(map[Quantity]map[Unit]struct{}, len(unitOrder))
	for quantity, unitList := range unitOrder {
		set := make(map[Unit]struct{}, len(unitList))
		for _, unit := range unitList {
			set[unit] = struct{}{}
		}
		unitSets[quantity] = set
	}
}

// AllQuantities returns every recognised quantity in a stable order.
func AllQuantities() []Quantity {
	out := make([]Quantity, len(quantityOrder))
	copy(out, quantityOrder)
	return out
}

// UnitsFor returns the recognised units of a quantity in a stable order.
// Returns nil for an unrecognised quantity.
func UnitsFor(quantity Quantity) []Unit {
	unitList, ok := unitOrder[quantity]
	if !ok {
		return nil
	}
	out := make([]Unit, len(unitList))
	copy(out, unitList)
	return out
}

// Valid reports whether unit is a recognised member of quantity's set.
func Valid(quantity Quantity, unit Unit) bool {
	set, ok := unitSets[quantity]
	if !ok {
		return false
	}
	_, ok = set[unit]
	return ok
}

// checkUnit validates a unit's membership in its quantity's set.
func checkUnit(quantity Quantity, unit Unit) error {
	if !Valid(quantity, unit) {
		return fmt.Errorf("%w: %q is not a recognised %s unit", ErrUnknownUnit, unit, quantity)
	}
	return nil
}

// checkFinite validates a magnitude before any arithmetic touches it.
func checkFinite(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v", ErrNotFinite, value)
	}
	return nil
}
