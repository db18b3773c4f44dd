// Package sensor provides the Sensor Registry for Clear Gauge Core.
//
// The Sensor Registry is the central inventory of every measurement
// channel the hub knows about. A sensor binds a source (an MQTT
// publisher such as a weather station or boiler bridge) and a field
// within that source's observations to a measured quantity, the unit
// the source reports in, and optional display overrides. The ingestion
// pipeline consults the registry for every raw observation it
// normalises.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│                          Sensor Registry                                 │
//	│                                                                          │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐   │
//	│  │     Registry     │    │    Repository    │    │    Validation    │   │
//	│  │   (registry.go)  │───▶│  (repository.go) │    │ (validation.go)  │   │
//	│  │                  │    │                  │    │                  │   │
//	│  │ • CRUD ops       │    │ • SQLite queries │    │ • Sensor checks  │   │
//	│  │ • In-memory cache│    │ • Nullable cols  │    │ • Unit checks    │   │
//	│  │ • Thread safety  │    │ • RFC3339 times  │    │ • Slug generation│   │
//	│  └──────────────────┘    └──────────────────┘    └──────────────────┘   │
//	│           │                       │                                      │
//	└───────────│───────────────────────│──────────────────────────────────────┘
//	            │                       │
//	            ▼                       ▼
//	┌──────────────────────┐   ┌──────────────────────┐
//	│  Ingestion pipeline  │   │   SQLite Database    │
//	│  • lookup by source  │   │   (sensors table)    │
//	│  REST API            │   └──────────────────────┘
//	│  • GET /sensors      │
//	└──────────────────────┘
//
// # Key Types
//
//   - Sensor: One measurement channel with its source/field binding
//   - Catalog: YAML document for bulk provisioning of sensors
//   - Registry: Cached CRUD operations over a Repository
//   - Repository: Persistence interface, implemented by SQLiteRepository
//
// # Usage
//
//	// Create repository and registry
//	repo := sensor.NewSQLiteRepository(db)
//	registry := sensor.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	// Load sensors into cache on startup
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	// Create a new sensor
//	s := &sensor.Sensor{
//	    Name:       "Garden Temperature",
//	    Source:     "weather-station",
//	    Field:      "temperature",
//	    Quantity:   units.Temperature,
//	    SourceUnit: units.Celsius,
//	    Enabled:    true,
//	}
//	if err := registry.CreateSensor(ctx, s); err != nil {
//	    return err
//	}
//
//	// Look up the enabled sensors for an incoming observation
//	byField, _ := registry.GetEnabledBySource(ctx, "weather-station")
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected
// by a read-write mutex, and cached sensors are cloned on the way in and
// out. The Repository implementation must also be thread-safe.
//
// # Related Documentation
//
//   - migrations/20260301_100000_initial_schema.up.sql — Database schema
//   - migrations/20260412_153000_add_sensor_precision.up.sql — Precision column
package sensor
