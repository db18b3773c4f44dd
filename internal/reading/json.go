package reading

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire shapes accepted for one field of an observation payload:
//
//	42.5                           bare number
//	{"value": 42.5}                single sample
//	{"value": 42.5, "max": true}   tagged sample
//	[{...}, {...}]                 series of samples
//
// Anything else (strings, booleans, nested objects in the value slot)
// fails decoding; sources cannot smuggle non-numeric magnitudes past
// the wire boundary.

// UnmarshalJSON decodes a Value from its object form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var aux struct {
		Number json.RawMessage `json:"value"`
		Min    bool            `json:"min"`
		Max    bool            `json:"max"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshal sample: %w", err)
	}

	v.Min = aux.Min
	v.Max = aux.Max
	v.Number = nil

	if len(aux.Number) == 0 || bytes.Equal(aux.Number, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(aux.Number, &n); err != nil {
		return fmt.Errorf("%w: got %s", ErrNotNumber, aux.Number)
	}
	v.Number = &n
	return nil
}

// MarshalJSON encodes a Value in its object form, omitting false
// markers.
func (v Value) MarshalJSON() ([]byte, error) {
	aux := struct {
		Number *float64 `json:"value"`
		Min    bool     `json:"min,omitempty"`
		Max    bool     `json:"max,omitempty"`
	}{v.Number, v.Min, v.Max}
	return json.Marshal(aux)
}

// UnmarshalJSON decodes any accepted wire shape into a Reading. A JSON
// null leaves the zero Reading (a single sample with no value).
func (r *Reading) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("unmarshal reading: empty payload")
	}

	switch trimmed[0] {
	case 'n': // null
		*r = Reading{}
		return nil
	case '[':
		var series []Value
		if err := json.Unmarshal(data, &series); err != nil {
			return fmt.Errorf("unmarshal reading series: %w", err)
		}
		*r = NewSeries(series...)
		return nil
	case '{':
		var single Value
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("unmarshal reading: %w", err)
		}
		*r = NewSingle(single)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: got %s", ErrNotNumber, trimmed)
		}
		*r = NewSingle(Number(n))
		return nil
	}
}

// MarshalJSON encodes a Reading canonically: a series as an array of
// sample objects, a single sample as one object. Bare numbers accepted
// on input are re-encoded in object form.
func (r Reading) MarshalJSON() ([]byte, error) {
	if r.isSeries {
		return json.Marshal(r.series)
	}
	return json.Marshal(r.single)
}
