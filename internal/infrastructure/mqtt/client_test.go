package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "cleargauge-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

func (l *mockLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

// testMessage implements pahomqtt.Message for handler tests.
type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Duplicate() bool   { return false }
func (m testMessage) Qos() byte         { return 1 }
func (m testMessage) Retained() bool    { return false }
func (m testMessage) Topic() string     { return m.topic }
func (m testMessage) MessageID() uint16 { return 0 }
func (m testMessage) Payload() []byte   { return m.payload }
func (m testMessage) Ack()              {}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "RawObservations",
			builder: func() string {
				return Topics{}.RawObservations("weatherstation")
			},
			expected: "cleargauge/raw/weatherstation",
		},
		{
			name: "NormalizedReading",
			builder: func() string {
				return Topics{}.NormalizedReading("snr-outdoor-temp")
			},
			expected: "cleargauge/readings/snr-outdoor-temp",
		},
		{
			name: "SensorEvent",
			builder: func() string {
				return Topics{}.SensorEvent("sensor_created")
			},
			expected: "cleargauge/events/sensor_created",
		},
		{
			name: "CoreStatus",
			builder: func() string {
				return Topics{}.CoreStatus()
			},
			expected: "cleargauge/status/core",
		},
		{
			name: "SourceStatus",
			builder: func() string {
				return Topics{}.SourceStatus("weatherstation")
			},
			expected: "cleargauge/status/weatherstation",
		},
		{
			name: "AllRaw",
			builder: func() string {
				return Topics{}.AllRaw()
			},
			expected: "cleargauge/raw/+",
		},
		{
			name: "AllReadings",
			builder: func() string {
				return Topics{}.AllReadings()
			},
			expected: "cleargauge/readings/+",
		},
		{
			name: "AllStatus",
			builder: func() string {
				return Topics{}.AllStatus()
			},
			expected: "cleargauge/status/+",
		},
		{
			name: "AllEvents",
			builder: func() string {
				return Topics{}.AllEvents()
			},
			expected: "cleargauge/events/+",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "cleargauge/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestSourceFromRaw(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		wantSource string
		wantOK     bool
	}{
		{
			name:       "valid raw topic",
			topic:      "cleargauge/raw/weatherstation",
			wantSource: "weatherstation",
			wantOK:     true,
		},
		{
			name:       "source with hyphen",
			topic:      "cleargauge/raw/room-sensors",
			wantSource: "room-sensors",
			wantOK:     true,
		},
		{
			name:   "wrong prefix",
			topic:  "otherapp/raw/weatherstation",
			wantOK: false,
		},
		{
			name:   "wrong category",
			topic:  "cleargauge/readings/snr-outdoor-temp",
			wantOK: false,
		},
		{
			name:   "empty source segment",
			topic:  "cleargauge/raw/",
			wantOK: false,
		},
		{
			name:   "too few segments",
			topic:  "cleargauge/raw",
			wantOK: false,
		},
		{
			name:   "too many segments",
			topic:  "cleargauge/raw/weatherstation/extra",
			wantOK: false,
		},
		{
			name:   "empty topic",
			topic:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, ok := Topics{}.SourceFromRaw(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("SourceFromRaw(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if ok && source != tt.wantSource {
				t.Errorf("SourceFromRaw(%q) = %q, want %q", tt.topic, source, tt.wantSource)
			}
		})
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			payload: []byte("x"),
			qos:     1,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "cleargauge/raw/test",
			payload: []byte("x"),
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   "cleargauge/raw/test",
			payload: make([]byte, maxPayloadSize+1),
			qos:     1,
			wantErr: ErrPublishFailed,
		},
		{
			name:    "disconnected client",
			topic:   "cleargauge/raw/test",
			payload: []byte("x"),
			qos:     1,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{}
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			qos:     1,
			handler: handler,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "cleargauge/raw/+",
			qos:     3,
			handler: handler,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "nil handler",
			topic:   "cleargauge/raw/+",
			qos:     1,
			handler: nil,
			wantErr: ErrSubscribeFailed,
		},
		{
			name:    "disconnected client",
			topic:   "cleargauge/raw/+",
			qos:     1,
			handler: handler,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := &Client{}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}

	if err := client.Unsubscribe("cleargauge/raw/+"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}

	ctx := context.Background()
	err := client.HealthCheck(ctx)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := &Client{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := client.HealthCheck(ctx)
	if err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestSubscriptionCount_Empty(t *testing.T) {
	client := &Client{}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}

	if client.HasSubscription("cleargauge/raw/+") {
		t.Error("HasSubscription() should be false for unsubscribed topic")
	}
}

// =============================================================================
// Handler Wrapping Tests
// =============================================================================

func TestWrapHandlerPanicRecovery(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(topic string, payload []byte) error {
		panic("observation decode blew up")
	})

	// Must not panic the caller.
	wrapped(nil, testMessage{topic: "cleargauge/raw/test", payload: []byte("{}")})

	if logger.errorCount() != 1 {
		t.Errorf("logger.errors = %d, want 1", logger.errorCount())
	}
}

func TestWrapHandlerLogsError(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(topic string, payload []byte) error {
		return errors.New("handler error")
	})

	wrapped(nil, testMessage{topic: "cleargauge/raw/test", payload: []byte("{}")})

	if logger.warnCount() != 1 {
		t.Errorf("logger.warns = %d, want 1", logger.warnCount())
	}
	if logger.errorCount() != 0 {
		t.Errorf("logger.errors = %d, want 0", logger.errorCount())
	}
}

func TestWrapHandlerWithoutLogger(t *testing.T) {
	client := &Client{}

	wrapped := client.wrapHandler(func(topic string, payload []byte) error {
		panic("no logger set")
	})

	// Panic must still be recovered when no logger is configured.
	wrapped(nil, testMessage{topic: "cleargauge/raw/test", payload: []byte("{}")})
}

func TestSetLogger(t *testing.T) {
	client := &Client{}

	logger := &mockLogger{}
	client.SetLogger(logger)

	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)

	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

// =============================================================================
// Option Building Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers count = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want %q", got, "tcp://127.0.0.1:1883")
	}
	if opts.ClientID != "cleargauge-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "cleargauge-test")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.Username != "" {
		t.Errorf("Username = %q, want empty for anonymous config", opts.Username)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "core"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want %q", got, "ssl")
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig = nil, want configured")
	}
	if opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLS MinVersion = %d, want %d", opts.TLSConfig.MinVersion, tlsMinVersion)
	}
	if opts.Username != "core" {
		t.Errorf("Username = %q, want %q", opts.Username, "core")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	configureLWT(opts, cfg.Broker.ClientID)

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false, want true")
	}
	if opts.WillTopic != "cleargauge/status/core" {
		t.Errorf("WillTopic = %q, want %q", opts.WillTopic, "cleargauge/status/core")
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}

	var payload map[string]string
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("WillPayload is not valid JSON: %v", err)
	}
	if payload["status"] != "offline" {
		t.Errorf("LWT status = %q, want %q", payload["status"], "offline")
	}
	if payload["reason"] != "unexpected_disconnect" {
		t.Errorf("LWT reason = %q, want %q", payload["reason"], "unexpected_disconnect")
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{
			name:       "online",
			payload:    buildOnlinePayload("cleargauge-core"),
			wantStatus: "online",
		},
		{
			name:       "graceful offline",
			payload:    buildOfflinePayload("cleargauge-core"),
			wantStatus: "offline",
			wantReason: "graceful_shutdown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decoded map[string]string
			if err := json.Unmarshal([]byte(tt.payload), &decoded); err != nil {
				t.Fatalf("payload is not valid JSON: %v", err)
			}
			if decoded["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", decoded["status"], tt.wantStatus)
			}
			if decoded["client_id"] != "cleargauge-core" {
				t.Errorf("client_id = %q, want %q", decoded["client_id"], "cleargauge-core")
			}
			if tt.wantReason != "" && decoded["reason"] != tt.wantReason {
				t.Errorf("reason = %q, want %q", decoded["reason"], tt.wantReason)
			}
			if !strings.Contains(tt.payload, `"timestamp"`) {
				t.Error("payload missing timestamp field")
			}
		})
	}
}
