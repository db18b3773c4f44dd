// Package normalizer implements the reading pipeline for Clear Gauge.
//
// This package turns raw observations published by field sources into
// normalised readings: one record per mapped sensor, converted into the
// deployment's target unit and rounded per the sensor's precision
// policy.
//
// # Architecture
//
// The normalizer sits between the raw and normalised MQTT namespaces:
//
//	┌─────────────────┐          ┌─────────────────┐          ┌──────────────┐
//	│  Field Sources  │   MQTT   │   Normalizer    │   MQTT   │  Consumers   │
//	│  (weather, etc) │─────────►│   (this pkg)    │─────────►│  (API, WS)   │
//	└─────────────────┘ raw/...  └────────┬────────┘ readings └──────────────┘
//	                                      │
//	                                      ▼
//	                         SQLite history + time-series sinks
//
// # Key Responsibilities
//
//   - Subscribe to raw observation topics (one per source)
//   - Decode observation payloads (envelope or flat form)
//   - Resolve each field to an enabled sensor definition
//   - Select a representative value per reading (max over min over first)
//   - Convert values into the sensor's target unit
//   - Round per sensor precision, falling back to the temperature default
//   - Fan out to retained MQTT, history, sinks, and WebSocket clients
//
// # Failure Handling
//
// The pipeline never stops on bad input. Malformed payloads, unknown
// topics, missing values, and conversion failures are logged and
// counted; the remaining fields of the observation still process.
// Counters are exposed through GetMetrics for the API layer.
//
// # Usage
//
//	norm, err := normalizer.New(normalizer.Options{
//	    Broker:  client,
//	    Sensors: registry,
//	    History: store,
//	    System:  system,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := norm.Start(ctx); err != nil {
//	    return err
//	}
//	defer norm.Stop()
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package normalizer
