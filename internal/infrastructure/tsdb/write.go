package tsdb

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// readingsMeasurement is the measurement normalised readings land in.
// VictoriaMetrics exposes line-protocol data as {measurement}_{field},
// so readings appear in PromQL as readings_value.
const readingsMeasurement = "readings"

// WriteReading records one normalised sensor reading.
//
// This is the primary method for reading storage. The write is
// non-blocking; lines are batched and flushed asynchronously, with
// failures surfaced through the SetOnError callback.
//
// Parameters:
//   - sensorID: Unique sensor identifier (e.g., "sen-4f21")
//   - quantity: Measured quantity (e.g., "temperature")
//   - unit: Unit the value is expressed in (e.g., "°C")
//   - value: The normalised reading
//   - ts: When the source observed the reading
//
// Returns:
//   - error: ErrNotConnected when the client is closed, nil otherwise
//
// Example:
//
//	client.WriteReading("sen-4f21", "temperature", "°C", 21.5, observedAt)
func (c *Client) WriteReading(sensorID, quantity, unit string, value float64, ts time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.addLine(formatLineProtocol(
		readingsMeasurement,
		map[string]string{
			"sensor_id": sensorID,
			"quantity":  quantity,
			"unit":      unit,
		},
		map[string]interface{}{
			"value": value,
		},
		ts,
	))
	return nil
}

// formatLineProtocol formats a data point as an InfluxDB line protocol string.
//
// Format: measurement,tag1=val1,tag2=val2 field1=val1,field2=val2 timestamp_ns
//
// VictoriaMetrics accepts this format on the /write endpoint.
func formatLineProtocol(measurement string, tags map[string]string, fields map[string]interface{}, t time.Time) string {
	var b strings.Builder

	// Measurement (escaped to prevent injection)
	b.WriteString(escapeMeasurement(measurement))

	// Tags (sorted for deterministic output and testability)
	tagKeys := make([]string, 0, len(tags))
	for k := range tags {
		tagKeys = append(tagKeys, k)
	}
	sort.Strings(tagKeys)
	for _, k := range tagKeys {
		b.WriteByte(',')
		b.WriteString(escapeTag(k))
		b.WriteByte('=')
		b.WriteString(escapeTag(tags[k]))
	}

	// Fields (sorted for deterministic output)
	fieldKeys := make([]string, 0, len(fields))
	for k := range fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	b.WriteByte(' ')
	first := true
	for _, k := range fieldKeys {
		v := fields[k]
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(escapeTag(k))
		b.WriteByte('=')
		switch val := v.(type) {
		case float64:
			b.WriteString(fmt.Sprintf("%g", val))
		case int:
			b.WriteString(fmt.Sprintf("%di", val))
		case int64:
			b.WriteString(fmt.Sprintf("%di", val))
		case bool:
			if val {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		case string:
			b.WriteString(fmt.Sprintf("%q", val))
		default:
			b.WriteString(fmt.Sprintf("%v", val))
		}
	}

	// Timestamp in nanoseconds
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%d", t.UnixNano()))

	return b.String()
}

// escapeTag escapes special characters in tag keys/values per line protocol spec.
// Commas, equals signs, and spaces must be backslash-escaped.
// Newlines are stripped to prevent line protocol injection.
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "=", "\\=")
	return s
}

// escapeMeasurement escapes special characters in measurement names.
// Newlines are stripped to prevent line protocol injection.
func escapeMeasurement(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	return s
}
