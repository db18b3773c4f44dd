// Clear Gauge Core - Sensor Normalisation Hub
//
// This is the main entry point for the Clear Gauge Core application.
// Clear Gauge turns raw sensor observations arriving over MQTT into
// normalised readings in the deployment's unit system, and serves them
// over a REST/WebSocket API. It is designed for:
//   - Offline-first operation (no cloud dependency)
//   - A single configured unit system across every surface
//   - Open transports (MQTT in, HTTP/WebSocket out)
//
// For architecture details, see: docs/architecture/system-overview.md
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/clear-gauge-core/migrations"

	"github.com/nerrad567/clear-gauge-core/internal/api"
	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/config"
	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/database"
	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/logging"
	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/tsdb"
	"github.com/nerrad567/clear-gauge-core/internal/normalizer"
	"github.com/nerrad567/clear-gauge-core/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Clear Gauge Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Resolve the deployment-wide unit system. Every normalised reading
	// and every API response follows this choice.
	system, err := cfg.System()
	if err != nil {
		return fmt.Errorf("resolving unit system: %w", err)
	}
	precision := cfg.TemperaturePrecision()
	log.Info("unit system selected",
		"system", system.Name(),
		"temperature_precision", string(precision),
	)

	// Open database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise sensor registry
	sensorRepo := sensor.NewSQLiteRepository(db.DB)
	registry := sensor.NewRegistry(sensorRepo)
	registry.SetLogger(log)

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading sensor registry: %w", refreshErr)
	}
	log.Info("sensor registry initialised", "sensors", registry.GetSensorCount())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Time-series sinks are optional; the pipeline runs without them.
	var writers []normalizer.TimeSeriesWriter

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		writers = append(writers, influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the Prometheus-compatible TSDB (optional)
	var tsdbClient *tsdb.Client
	if cfg.TSDB.Enabled {
		tsdbClient, err = tsdb.Connect(ctx, cfg.TSDB)
		if err != nil {
			return fmt.Errorf("connecting to TSDB: %w", err)
		}
		defer func() {
			log.Info("closing TSDB connection")
			if closeErr := tsdbClient.Close(); closeErr != nil {
				log.Error("error closing TSDB", "error", closeErr)
			}
		}()
		log.Info("TSDB connected", "url", cfg.TSDB.URL)

		tsdbClient.SetOnError(func(err error) {
			log.Error("TSDB write error", "error", err)
		})
		writers = append(writers, tsdbClient)
	} else {
		log.Info("TSDB disabled")
	}

	// Reading history lives in the same SQLite database as the registry.
	history := normalizer.NewSQLiteHistoryStore(db.DB)

	// One WebSocket hub is shared between the API server and the
	// pipeline's broadcast fan-out.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Start the normalisation pipeline
	pipeline, err := normalizer.New(normalizer.Options{
		Broker:           mqttClient,
		Sensors:          registry,
		History:          history,
		System:           system,
		DefaultPrecision: precision,
		QoS:              byte(cfg.MQTT.QoS),
		Writers:          writers,
		Broadcaster:      hub,
		Logger:           log,
		Retention:        time.Duration(cfg.Normalizer.History.RetentionDays) * 24 * time.Hour,
		PruneInterval:    time.Duration(cfg.Normalizer.History.PruneIntervalMinutes) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("creating normalizer: %w", err)
	}
	if startErr := pipeline.Start(ctx); startErr != nil {
		return fmt.Errorf("starting normalizer: %w", startErr)
	}
	defer func() {
		log.Info("stopping normalizer")
		pipeline.Stop()
	}()
	log.Info("normalizer started")

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Registry:    registry,
		System:      system,
		Precision:   precision,
		History:     history,
		Pipeline:    pipeline,
		TSDB:        tsdbClient,
		MQTT:        mqttClient,
		DB:          db.DB,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"tls", cfg.API.TLS.Enabled,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, tsdbClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Normalizer
	// 3. TSDB / InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Clear Gauge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CLEARGAUGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CLEARGAUGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - tsdbClient: TSDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, tsdbClient *tsdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Check TSDB (if enabled)
	if tsdbClient != nil {
		if err := tsdbClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("tsdb: %w", err)
		}
	}

	return nil
}
