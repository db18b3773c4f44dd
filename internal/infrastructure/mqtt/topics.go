package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Clear Gauge MQTT scheme.
//
// All topics use the flat scheme: cleargauge/{category}/{identifier}
// Sources publish raw observations; Core publishes normalised readings
// and status. Feeders and UIs never share a category.
const (
	// TopicPrefix is the base for all Clear Gauge topics.
	TopicPrefix = "cleargauge"

	// TopicPrefixRaw is the base for inbound raw observation topics.
	// Scheme: cleargauge/raw/{source}
	TopicPrefixRaw = "cleargauge/raw"

	// TopicPrefixReadings is the base for normalised reading topics.
	// Scheme: cleargauge/readings/{sensor_id}
	TopicPrefixReadings = "cleargauge/readings"

	// TopicPrefixStatus is the base for liveness status topics.
	// Scheme: cleargauge/status/{component}
	TopicPrefixStatus = "cleargauge/status"

	// TopicPrefixEvents is the base for sensor lifecycle event topics.
	// Scheme: cleargauge/events/{event_type}
	TopicPrefixEvents = "cleargauge/events"
)

// rawTopicParts is the expected segment count of a raw observation topic.
const rawTopicParts = 3

// Topics provides builders for Clear Gauge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	rawTopic := topics.RawObservations("weatherstation")
//	// Returns: "cleargauge/raw/weatherstation"
type Topics struct{}

// =============================================================================
// Ingestion Topics
// =============================================================================

// RawObservations returns the topic a source publishes raw observations to.
//
// Example: cleargauge/raw/weatherstation
func (Topics) RawObservations(source string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixRaw, source)
}

// SourceFromRaw extracts the source identifier from a raw observation topic.
//
// Returns false when the topic does not match cleargauge/raw/{source}
// or the source segment is empty.
func (Topics) SourceFromRaw(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != rawTopicParts {
		return "", false
	}
	if parts[0] != TopicPrefix || parts[1] != "raw" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// =============================================================================
// Output Topics
// =============================================================================

// NormalizedReading returns the canonical reading topic for a sensor.
// Core publishes these retained so new subscribers see the latest value.
//
// Example: cleargauge/readings/snr-outdoor-temp
func (Topics) NormalizedReading(sensorID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixReadings, sensorID)
}

// SensorEvent returns the topic for sensor lifecycle events.
//
// Example: cleargauge/events/sensor_created
func (Topics) SensorEvent(eventType string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvents, eventType)
}

// =============================================================================
// Status Topics
// =============================================================================

// CoreStatus returns Core's own status topic. The LWT and graceful
// shutdown messages are published here, retained.
//
// Example: cleargauge/status/core
func (Topics) CoreStatus() string {
	return fmt.Sprintf("%s/core", TopicPrefixStatus)
}

// SourceStatus returns the status topic for an external source.
// Feeders publish their own online/offline state here.
//
// Example: cleargauge/status/weatherstation
func (Topics) SourceStatus(source string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixStatus, source)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllRaw returns a pattern matching raw observations from every source.
//
// Pattern: cleargauge/raw/+
func (Topics) AllRaw() string {
	return fmt.Sprintf("%s/+", TopicPrefixRaw)
}

// AllReadings returns a pattern matching all normalised readings.
//
// Pattern: cleargauge/readings/+
func (Topics) AllReadings() string {
	return fmt.Sprintf("%s/+", TopicPrefixReadings)
}

// AllStatus returns a pattern matching every status topic, Core's included.
//
// Pattern: cleargauge/status/+
func (Topics) AllStatus() string {
	return fmt.Sprintf("%s/+", TopicPrefixStatus)
}

// AllEvents returns a pattern matching all sensor lifecycle events.
//
// Pattern: cleargauge/events/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixEvents)
}

// AllTopics returns a pattern matching all Clear Gauge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: cleargauge/#
func (Topics) AllTopics() string {
	return "cleargauge/#"
}
