package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var errMQTTNotConnected = errors.New("relay: mqtt not connected")

// MQTTMirror republishes broadcast events to <topic>/<event>. refresh_data
// is retained so late subscribers get the current lists.
type MQTTMirror struct {
	broker string
	topic  string
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published map[string]uint64
	errors    uint64
}

func NewMQTTMirror(broker, topic string) *MQTTMirror {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	return &MQTTMirror{
		broker:    broker,
		topic:     strings.TrimSuffix(topic, "/"),
		published: make(map[string]uint64),
	}
}

// Connect dials the broker. The client reconnects on its own afterwards.
func (m *MQTTMirror) Connect(ctx context.Context) error {
	clientID := "gridscan-relay-" + uuid.New().String()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		m.setConnected(true)
		slog.Info("relay: mqtt connection established", "broker", m.broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		m.setConnected(false)
		slog.Warn("relay: mqtt connection lost, will auto-reconnect", "broker", m.broker, "error", err)
	}

	m.client = mqtt.NewClient(opts)
	slog.Info("relay: connecting to mqtt broker", "broker", m.broker)

	token := m.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		return fmt.Errorf("relay: mqtt connection timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("relay: mqtt connection failed: %w", err)
	}
	m.setConnected(true)
	return nil
}

func (m *MQTTMirror) Publish(event string, payload []byte) error {
	if !m.isConnected() {
		m.countError()
		return errMQTTNotConnected
	}

	topic := m.topic + "/" + event
	token := m.client.Publish(topic, 1, event == EventRefreshData, payload)
	if !token.WaitTimeout(2 * time.Second) {
		m.countError()
		return fmt.Errorf("relay: mqtt publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		m.countError()
		return fmt.Errorf("relay: mqtt publish failed: %w", err)
	}

	m.mu.Lock()
	m.published[topic]++
	m.mu.Unlock()
	slog.Debug("relay: mqtt published", "topic", topic, "size", len(payload))
	return nil
}

func (m *MQTTMirror) Close() {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	m.setConnected(false)
}

type MirrorStats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

func (m *MQTTMirror) Stats() MirrorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	published := make(map[string]uint64, len(m.published))
	for k, v := range m.published {
		published[k] = v
	}
	return MirrorStats{Connected: m.connected, Published: published, Errors: m.errors}
}

func (m *MQTTMirror) setConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

func (m *MQTTMirror) isConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *MQTTMirror) countError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}
