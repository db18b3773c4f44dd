// Package influxdb provides InfluxDB connectivity for Clear Gauge Core.
//
// It wraps the official influxdb-client-go v2 library with Clear Gauge-specific
// patterns for connection management, reading storage, and health monitoring.
//
// # Purpose
//
// This package handles long-term storage of normalised sensor readings,
// one point per reading, tagged by sensor, quantity, and unit.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "cleargauge",
//	    Bucket: "readings",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write normalised readings
//	client.WriteReading("sen-4f21", "temperature", "°C", 21.5, observedAt)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency reading traffic.
package influxdb
