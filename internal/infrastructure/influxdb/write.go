package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// readingsMeasurement is the measurement normalised readings land in.
const readingsMeasurement = "readings"

// WriteReading records one normalised sensor reading.
//
// This is the primary method for long-term reading storage. The write
// is non-blocking; points are batched and sent asynchronously, with
// failures surfaced through the SetOnError callback.
//
// Tags carry the sensor binding so dashboards can group and filter by
// sensor, quantity, or unit without scanning field values.
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

	point := write.NewPoint(
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
	)

	c.writeAPI.WritePoint(point)
	return nil
}
