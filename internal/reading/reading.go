package reading

// Value is one observed sample. Number is nil when the source reported
// the entry without a usable magnitude. Min and Max mark the entry as a
// period minimum or maximum in forecast-style series.
type Value struct {
	Number *float64
	Min    bool
	Max    bool
}

// Number builds an untagged sample carrying n.
func Number(n float64) Value {
	return Value{Number: &n}
}

// Min builds a sample carrying n tagged as a period minimum.
func Min(n float64) Value {
	return Value{Number: &n, Min: true}
}

// Max builds a sample carrying n tagged as a period maximum.
func Max(n float64) Value {
	return Value{Number: &n, Max: true}
}

// Reading is a tagged variant over the two payload shapes a source can
// report for one field: a single sample, or an ordered series of
// candidate samples. The zero Reading is a single sample with no value.
type Reading struct {
	single   Value
	series   []Value
	isSeries bool
}

// NewSingle wraps one sample as a Reading.
func NewSingle(value Value) Reading {
	return Reading{single: value}
}

// NewSeries wraps an ordered list of candidate samples as a Reading.
// The input slice is copied; later mutation of it does not affect the
// returned Reading.
func NewSeries(values ...Value) Reading {
	series := make([]Value, len(values))
	copy(series, values)
	return Reading{series: series, isSeries: true}
}

// Select resolves the reading to the one number worth reporting.
//
// A single sample yields its number. A series is scanned with a fixed
// precedence: the first max-tagged entry wins, then the first
// min-tagged entry, then the first entry. A one-entry series yields
// that entry's number regardless of markers. Returns nil when the
// winning entry carries no number or the series is empty.
func (r Reading) Select() *float64 {
	if !r.isSeries {
		return cloneNumber(r.single.Number)
	}

	switch len(r.series) {
	case 0:
		return nil
	case 1:
		return cloneNumber(r.series[0].Number)
	}

	for _, v := range r.series {
		if v.Max {
			return cloneNumber(v.Number)
		}
	}
	for _, v := range r.series {
		if v.Min {
			return cloneNumber(v.Number)
		}
	}
	return cloneNumber(r.series[0].Number)
}

// Select looks up key in readings and resolves it per Reading.Select.
// A missing key, like an absent value, yields nil rather than an error.
func Select(readings map[string]Reading, key string) *float64 {
	r, ok := readings[key]
	if !ok {
		return nil
	}
	return r.Select()
}

// cloneNumber copies the pointee so callers never alias internal state.
func cloneNumber(n *float64) *float64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
