// Package tsdb provides time-series database connectivity for Clear Gauge Core.
//
// It writes to VictoriaMetrics using InfluxDB line protocol over HTTP and
// queries using PromQL. Zero external dependencies, uses only net/http.
//
// # Purpose
//
// This package stores normalised sensor readings for dashboarding and
// ad-hoc PromQL analysis, and backs the API's metrics proxy endpoints.
// Readings are written one line per reading, tagged by sensor, quantity,
// and unit.
//
// # Usage
//
//	cfg := config.TSDBConfig{
//	    Enabled:       true,
//	    URL:           "http://localhost:8428",
//	    BatchSize:     1000,
//	    FlushInterval: 1,
//	}
//
//	client, err := tsdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write normalised readings
//	client.WriteReading("sen-4f21", "temperature", "°C", 21.5, observedAt)
//
//	// Query them back with PromQL
//	resp, err := client.QueryRange(ctx, tsdb.ReadingSeries("sen-4f21"), start, end, time.Minute)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are batched internally and flushed on size threshold or timer.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via a callback.
// Connection, health check, and query errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// Batch flush is a single HTTP POST with newline-delimited line protocol.
// VictoriaMetrics processes these with minimal overhead.
package tsdb
