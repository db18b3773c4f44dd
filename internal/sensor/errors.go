package sensor

import "errors"

// Domain errors for the sensor package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, sensor.ErrSensorNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSensorNotFound is returned when a sensor ID or slug does not exist.
	ErrSensorNotFound = errors.New("sensor: not found")

	// ErrSensorExists is returned when creating a sensor that collides with
	// an existing ID, slug, or source/field binding.
	ErrSensorExists = errors.New("sensor: already exists")

	// ErrInvalidSensor is returned when sensor validation fails. The message
	// lists every failed check joined with "; ".
	ErrInvalidSensor = errors.New("sensor: invalid")

	// ErrInvalidCatalog is returned when a catalog document cannot be decoded
	// or contains invalid entries.
	ErrInvalidCatalog = errors.New("sensor: invalid catalog")
)
