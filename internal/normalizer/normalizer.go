package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/clear-gauge-core/internal/sensor"
	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Normalizer operation constants.
const (
	// processTimeout bounds the handling of a single observation.
	processTimeout = 5 * time.Second

	// pruneTimeout bounds one history prune pass.
	pruneTimeout = 30 * time.Second
)

// Broker is the MQTT surface the normalizer needs.
// This allows mocking in tests and flexibility in implementation.
type Broker interface {
	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// PublishRetained sends a retained message to a topic.
	PublishRetained(topic string, payload []byte) error
}

// SensorDirectory resolves the enabled sensors for a source, keyed by
// observation field. This interface is satisfied by *sensor.Registry.
type SensorDirectory interface {
	GetEnabledBySource(ctx context.Context, source string) (map[string]*sensor.Sensor, error)
}

// Broadcaster pushes normalised readings to connected WebSocket clients.
// This is optional - if nil, the normalizer operates without broadcasting.
type Broadcaster interface {
	BroadcastReading(rec Normalized)
}

// TimeSeriesWriter forwards readings to a time-series sink.
// Writers are optional; failures are logged and never block the pipeline.
type TimeSeriesWriter interface {
	WriteReading(sensorID, quantity, unit string, value float64, ts time.Time) error
}

// Logger defines the logging interface used by the normalizer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a normalizer.
type Options struct {
	// Broker is the MQTT client implementation.
	Broker Broker

	// Sensors resolves source/field bindings to sensor definitions.
	Sensors SensorDirectory

	// History is the reading history store.
	History HistoryStore

	// System is the deployment's unit system.
	System units.System

	// DefaultPrecision is the rounding applied to temperature readings
	// when a sensor carries no precision override.
	DefaultPrecision units.Precision

	// QoS is the subscription quality of service.
	QoS byte

	// Writers are optional time-series sinks.
	Writers []TimeSeriesWriter

	// Broadcaster is optional WebSocket fan-out.
	Broadcaster Broadcaster

	// Logger is optional structured logger.
	Logger Logger

	// Retention is how long history readings are kept.
	Retention time.Duration

	// PruneInterval is how often the prune loop runs. Zero disables
	// pruning.
	PruneInterval time.Duration
}

// Normalizer turns raw observations into normalised readings.
//
// It subscribes to the raw observation topics, and for each payload:
// decodes the observation, looks up the source's enabled sensors,
// selects a representative value per field, converts it into the
// sensor's target unit, rounds it per the sensor's precision policy,
// and fans the result out to MQTT, history, any time-series sinks, the
// WebSocket broadcaster, and the in-memory latest snapshot.
//
// Malformed payloads and conversion failures are logged and counted,
// never fatal: one bad field does not block the rest of the cycle.
//
// Thread Safety: All methods are safe for concurrent use.
type Normalizer struct {
	broker      Broker
	sensors     SensorDirectory
	history     HistoryStore
	system      units.System
	precision   units.Precision
	qos         byte
	writers     []TimeSeriesWriter
	broadcaster Broadcaster

	// Latest reading per sensor ID
	latest   map[string]Normalized
	latestMu sync.RWMutex

	// Pipeline counters
	received   atomic.Uint64
	normalized atomic.Uint64
	skipped    atomic.Uint64
	malformed  atomic.Uint64
	failed     atomic.Uint64

	// History pruning
	retention     time.Duration
	pruneInterval time.Duration

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Normalizer-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a new normalizer instance.
// Call Start() to begin operation.
func New(opts Options) (*Normalizer, error) {
	if opts.Broker == nil {
		return nil, fmt.Errorf("broker is required")
	}
	if opts.Sensors == nil {
		return nil, fmt.Errorf("sensor directory is required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if !opts.DefaultPrecision.IsValid() {
		opts.DefaultPrecision = units.PrecisionWhole
	}

	// Create normalizer-level context so in-flight work is cancelled on Stop()
	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Normalizer{
		broker:        opts.Broker,
		sensors:       opts.Sensors,
		history:       opts.History,
		system:        opts.System,
		precision:     opts.DefaultPrecision,
		qos:           opts.QoS,
		writers:       opts.Writers,
		broadcaster:   opts.Broadcaster,
		latest:        make(map[string]Normalized),
		retention:     opts.Retention,
		pruneInterval: opts.PruneInterval,
		done:          make(chan struct{}),
		ctx:           ctx,
		ctxCancel:     ctxCancel,
		logger:        opts.Logger,
	}, nil
}

// Start begins normalizer operation.
// This subscribes to the raw observation topics and starts the history
// prune loop when pruning is configured.
func (n *Normalizer) Start(_ context.Context) error {
	topic := mqtt.Topics{}.AllRaw()
	if err := n.broker.Subscribe(topic, n.qos, n.handleRaw); err != nil {
		return fmt.Errorf("subscribe to raw observations: %w", err)
	}
	n.logInfo("subscribed to raw observations", "topic", topic)

	if n.pruneInterval > 0 && n.retention > 0 {
		n.wg.Add(1)
		go n.pruneLoop()
	}

	n.logInfo("normalizer started",
		"system", n.system.Name(),
		"temperature_precision", string(n.precision),
		"sinks", len(n.writers))

	return nil
}

// Stop gracefully shuts down the normalizer.
func (n *Normalizer) Stop() {
	n.stopOnce.Do(func() {
		close(n.done)

		// Cancel normalizer context to abort in-flight processing
		n.ctxCancel()

		// Wait for the prune loop
		n.wg.Wait()

		n.logInfo("normalizer stopped")
	})
}

// handleRaw processes one raw observation message.
// The returned error is surfaced through the MQTT client's handler
// logging; per-field failures are handled (and counted) locally.
func (n *Normalizer) handleRaw(topic string, payload []byte) error {
	n.received.Add(1)

	source, ok := mqtt.Topics{}.SourceFromRaw(topic)
	if !ok {
		n.malformed.Add(1)
		return fmt.Errorf("%w: %s", ErrUnexpectedTopic, topic)
	}

	obs, err := ParseObservation(payload)
	if err != nil {
		n.malformed.Add(1)
		return fmt.Errorf("observation from %q: %w", source, err)
	}

	n.processObservation(source, obs)
	return nil
}

// processObservation normalises every mapped field of one observation.
func (n *Normalizer) processObservation(source string, obs *Observation) {
	if len(obs.Readings) == 0 {
		n.logDebug("observation carried no readings", "source", source)
		return
	}

	// Derive timeout from normalizer context so work is cancelled on shutdown
	ctx, cancel := context.WithTimeout(n.ctx, processTimeout)
	defer cancel()

	byField, err := n.sensors.GetEnabledBySource(ctx, source)
	if err != nil {
		n.failed.Add(1)
		n.logError("sensor lookup failed", fmt.Errorf("source=%s: %w", source, err))
		return
	}
	if len(byField) == 0 {
		n.logDebug("no enabled sensors for source", "source", source)
		return
	}

	observedAt := time.Now().UTC()
	if obs.ObservedAt != nil {
		observedAt = obs.ObservedAt.UTC()
	}

	// One cycle ID groups every reading from this observation
	cycle := uuid.New().String()

	for field, rd := range obs.Readings {
		sen, ok := byField[field]
		if !ok {
			// Unmapped fields are expected; sources publish more than
			// the deployment tracks.
			continue
		}

		value := rd.Select()
		if value == nil {
			n.skipped.Add(1)
			n.logDebug("reading carried no value", "source", source, "field", field)
			continue
		}

		rec, err := n.normalize(sen, *value, observedAt, cycle)
		if err != nil {
			n.failed.Add(1)
			n.logError("normalisation failed",
				fmt.Errorf("sensor=%s field=%s: %w", sen.ID, field, err))
			continue
		}

		n.fanOut(ctx, rec)
		n.normalized.Add(1)
	}
}

// normalize converts one selected value into a Normalized record.
func (n *Normalizer) normalize(sen *sensor.Sensor, value float64, observedAt time.Time, cycle string) (Normalized, error) {
	target := sen.TargetUnit(n.system)

	converted, err := units.Convert(sen.Quantity, value, sen.SourceUnit, target)
	if err != nil {
		return Normalized{}, fmt.Errorf("converting %s %s to %s: %w",
			sen.Quantity, sen.SourceUnit, target, err)
	}

	return Normalized{
		ID:         uuid.New().String(),
		Cycle:      cycle,
		SensorID:   sen.ID,
		SensorSlug: sen.Slug,
		Source:     sen.Source,
		Field:      sen.Field,
		Quantity:   sen.Quantity,
		Value:      n.round(sen, converted),
		Unit:       target,
		ObservedAt: observedAt,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// round applies the sensor's precision policy.
//
// A sensor-level override always wins. Without one, only temperature
// readings are rounded (using the configured default); other quantities
// pass through so stored values keep their source resolution.
func (n *Normalizer) round(sen *sensor.Sensor, value float64) float64 {
	switch {
	case sen.Precision != nil:
		return units.RoundTo(value, *sen.Precision)
	case sen.Quantity == units.Temperature:
		return units.RoundTo(value, n.precision)
	default:
		return value
	}
}

// fanOut delivers one normalised reading to every configured consumer.
// Each delivery failure is logged independently; the remaining
// consumers still receive the reading.
func (n *Normalizer) fanOut(ctx context.Context, rec Normalized) {
	payload, err := json.Marshal(rec)
	if err != nil {
		n.logError("failed to marshal reading", err)
	} else {
		topic := mqtt.Topics{}.NormalizedReading(rec.SensorID)
		if err := n.broker.PublishRetained(topic, payload); err != nil {
			n.logError("failed to publish reading", err)
		}
	}

	if err := n.history.Record(ctx, rec); err != nil {
		n.logError("failed to record reading history", err)
	}

	for _, w := range n.writers {
		if err := w.WriteReading(rec.SensorID, string(rec.Quantity), string(rec.Unit), rec.Value, rec.ObservedAt); err != nil {
			n.logError("failed to write time series", err)
		}
	}

	if n.broadcaster != nil {
		n.broadcaster.BroadcastReading(rec)
	}

	n.setLatest(rec)
}

// pruneLoop deletes history readings past the retention window on the
// configured interval.
func (n *Normalizer) pruneLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(n.ctx, pruneTimeout)
			deleted, err := n.history.Prune(ctx, n.retention)
			cancel()

			if err != nil {
				n.logError("history prune failed", err)
				continue
			}
			if deleted > 0 {
				n.logInfo("pruned reading history", "deleted", deleted)
			}
		}
	}
}

// setLatest records the most recent reading for a sensor.
func (n *Normalizer) setLatest(rec Normalized) {
	n.latestMu.Lock()
	n.latest[rec.SensorID] = rec
	n.latestMu.Unlock()
}

// Latest returns the most recent reading for a sensor, if any.
func (n *Normalizer) Latest(sensorID string) (Normalized, bool) {
	n.latestMu.RLock()
	defer n.latestMu.RUnlock()

	rec, ok := n.latest[sensorID]
	return rec, ok
}

// LatestAll returns the most recent reading for every sensor, ordered
// by source then field for stable output.
func (n *Normalizer) LatestAll() []Normalized {
	n.latestMu.RLock()
	readings := make([]Normalized, 0, len(n.latest))
	for _, rec := range n.latest {
		readings = append(readings, rec)
	}
	n.latestMu.RUnlock()

	sort.Slice(readings, func(i, j int) bool {
		if readings[i].Source != readings[j].Source {
			return readings[i].Source < readings[j].Source
		}
		return readings[i].Field < readings[j].Field
	})
	return readings
}

// ForgetLatest drops the snapshot entry for a sensor.
// Call this when a sensor is deleted so the readings endpoint stops
// reporting it.
func (n *Normalizer) ForgetLatest(sensorID string) {
	n.latestMu.Lock()
	delete(n.latest, sensorID)
	n.latestMu.Unlock()
}

// SetLogger sets the logger for the normalizer.
func (n *Normalizer) SetLogger(logger Logger) {
	n.loggerMu.Lock()
	n.logger = logger
	n.loggerMu.Unlock()
}

// logInfo logs an info message if logger is set.
func (n *Normalizer) logInfo(msg string, keysAndValues ...any) {
	n.loggerMu.RLock()
	logger := n.logger
	n.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (n *Normalizer) logError(msg string, err error) {
	n.loggerMu.RLock()
	logger := n.logger
	n.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (n *Normalizer) logDebug(msg string, keysAndValues ...any) {
	n.loggerMu.RLock()
	logger := n.logger
	n.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// Metrics contains pipeline counters for the API metrics endpoint.
type Metrics struct {
	Received       uint64
	Normalized     uint64
	Skipped        uint64
	Malformed      uint64
	Failed         uint64
	TrackedSensors int
}

// GetMetrics returns current pipeline counters.
func (n *Normalizer) GetMetrics() Metrics {
	n.latestMu.RLock()
	tracked := len(n.latest)
	n.latestMu.RUnlock()

	return Metrics{
		Received:       n.received.Load(),
		Normalized:     n.normalized.Load(),
		Skipped:        n.skipped.Load(),
		Malformed:      n.malformed.Load(),
		Failed:         n.failed.Load(),
		TrackedSensors: tracked,
	}
}
