package actuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/localnav/internal/monitoring"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("actuation: sink closed")

var logf = monitoring.Component("actuation")

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTOptions configures an MQTT connection.
type MQTTOptions struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Prefix   string // topic prefix; commands go to <Prefix>/<agent>/cmd
	Timeout  time.Duration
}

func (o MQTTOptions) withDefaults() MQTTOptions {
	if o.ClientID == "" {
		o.ClientID = "navsim"
	}
	if o.Prefix == "" {
		o.Prefix = "localnav"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return o
}

// MQTTSink publishes each command as JSON with QoS 0.
type MQTTSink struct {
	mu      sync.Mutex
	client  publisher
	prefix  string
	timeout time.Duration
}

// DialMQTT connects to the broker and returns a sink over the connection.
func DialMQTT(o MQTTOptions) (*MQTTSink, error) {
	o = o.withDefaults()
	if o.Broker == "" {
		return nil, errors.New("actuation: mqtt broker is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(o.Timeout)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logf("connection to %s lost: %v", o.Broker, err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logf("connected to %s", o.Broker)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(o.Timeout) {
		return nil, fmt.Errorf("actuation: connect to %s timed out", o.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("actuation: connect to %s: %w", o.Broker, err)
	}
	return newMQTTSink(client, o), nil
}

func newMQTTSink(c publisher, o MQTTOptions) *MQTTSink {
	o = o.withDefaults()
	return &MQTTSink{client: c, prefix: o.Prefix, timeout: o.Timeout}
}

// Topic returns the topic commands for agent are published to.
func (s *MQTTSink) Topic(agent string) string {
	return fmt.Sprintf("%s/%s/cmd", s.prefix, agent)
}

// Send publishes msg and waits for the client to hand it off.
func (s *MQTTSink) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrClosed
	}
	if !client.IsConnected() {
		return fmt.Errorf("actuation: publish %s: %w", s.Topic(msg.Agent), mqtt.ErrNotConnected)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("actuation: encode command: %w", err)
	}

	topic := s.Topic(msg.Agent)
	token := client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("actuation: publish %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		logf("publish %s failed: %v", topic, err)
		return fmt.Errorf("actuation: publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}
	return nil
}
