package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStatus represents the complete system status response.
type SystemStatus struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Units         UnitSettings   `json:"units"`
	Runtime       RuntimeStats   `json:"runtime"`
	WebSocket     WSStats        `json:"websocket"`
	MQTT          *MQTTStats     `json:"mqtt,omitempty"`
	Pipeline      *PipelineStats `json:"pipeline,omitempty"`
	Sensors       SensorStats    `json:"sensors"`
	Database      *DatabaseStats `json:"database,omitempty"`
}

// UnitSettings reports the deployment-wide display policy.
type UnitSettings struct {
	System               string            `json:"system"`
	Targets              map[string]string `json:"targets"`
	TemperaturePrecision string            `json:"temperature_precision"`
}

// RuntimeStats contains Go runtime statistics.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSStats contains WebSocket hub statistics.
type WSStats struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTStats contains MQTT client statistics.
type MQTTStats struct {
	Connected bool `json:"connected"`
}

// PipelineStats contains normaliser pipeline counters.
type PipelineStats struct {
	Received       uint64 `json:"received"`
	Normalized     uint64 `json:"normalized"`
	Skipped        uint64 `json:"skipped"`
	Malformed      uint64 `json:"malformed"`
	Failed         uint64 `json:"failed"`
	TrackedSensors int    `json:"tracked_sensors"`
}

// SensorStats contains sensor catalogue statistics.
type SensorStats struct {
	Total      int            `json:"total"`
	Enabled    int            `json:"enabled"`
	ByQuantity map[string]int `json:"by_quantity"`
	BySource   map[string]int `json:"by_source"`
}

// DatabaseStats contains database connection pool statistics.
type DatabaseStats struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleSystem returns the deployment settings and runtime status.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	targets := make(map[string]string)
	for quantity, unit := range s.system.AsMap() {
		targets[string(quantity)] = string(unit)
	}

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Units: UnitSettings{
			System:               s.system.Name(),
			Targets:              targets,
			TemperaturePrecision: string(s.precision),
		},
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSStats{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	// MQTT status (if configured)
	if s.mqtt != nil {
		status.MQTT = &MQTTStats{
			Connected: s.mqtt.IsConnected(),
		}
	}

	// Pipeline counters (if the normaliser is running)
	if s.pipeline != nil {
		m := s.pipeline.GetMetrics()
		status.Pipeline = &PipelineStats{
			Received:       m.Received,
			Normalized:     m.Normalized,
			Skipped:        m.Skipped,
			Malformed:      m.Malformed,
			Failed:         m.Failed,
			TrackedSensors: m.TrackedSensors,
		}
	}

	// Sensor catalogue stats
	regStats := s.registry.GetStats()
	status.Sensors = SensorStats{
		Total:      regStats.TotalSensors,
		Enabled:    regStats.EnabledSensors,
		ByQuantity: regStats.ByQuantity,
		BySource:   regStats.BySource,
	}

	// Database stats (if available)
	if s.db != nil {
		dbStats := s.db.Stats()
		status.Database = &DatabaseStats{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, status)
}
