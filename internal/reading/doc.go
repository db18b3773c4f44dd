// Package reading models raw sensor observations for Clear Gauge Core.
//
// Connected sources do not agree on a payload shape: some report a bare
// number per field, some an object with a value, and forecast-style
// sources report an ordered series of candidates where individual
// entries carry a "min" or "max" marker. This package folds all of
// those shapes into one tagged variant, Reading, so the rest of the
// system never inspects payload structure at runtime.
//
// # Selection
//
// Reading.Select resolves a reading to the single number worth
// reporting, using a fixed precedence:
//
//	max-tagged  >  min-tagged  >  first entry  >  nothing
//
// A series with exactly one entry yields that entry's value regardless
// of markers. Absent values propagate as nil rather than as errors; a
// source that omits a field simply produces no reading for it.
//
// # Thread Safety
//
// Reading and Value are immutable after construction and Select never
// returns a pointer into internal state, so values may be shared freely
// across goroutines.
package reading
