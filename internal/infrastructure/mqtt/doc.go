// Package mqtt provides MQTT client connectivity for Clear Gauge Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Clear Gauge uses MQTT as the ingestion and distribution bus. External
// sources (weather stations, room sensors, energy meters) publish raw
// observation payloads; Core normalises them and publishes canonical
// readings back, retained, so dashboards always see the latest value.
//
//	Sources → cleargauge/raw/{source} → Core → cleargauge/readings/{sensor_id}
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to raw observations from every source
//	err = client.Subscribe(mqtt.Topics{}.AllRaw(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a normalised reading, retained
//	topic := mqtt.Topics{}.NormalizedReading("snr-outdoor-temp")
//	client.Publish(topic, []byte(`{"value":21.5,"unit":"°C"}`), 1, true)
package mqtt
