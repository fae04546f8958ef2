package actuation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/localnav/internal/localmap/movement"
	"github.com/banshee-data/localnav/internal/monitoring"
)

type mockToken struct {
	err  error
	done chan struct{}
}

func completedToken(err error) *mockToken {
	t := &mockToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *mockToken) Wait() bool                     { <-t.done; return true }
func (t *mockToken) WaitTimeout(time.Duration) bool { return true }
func (t *mockToken) Done() <-chan struct{}          { return t.done }
func (t *mockToken) Error() error                   { return t.err }

type published struct {
	topic   string
	payload []byte
}

type mockClient struct {
	mu           sync.Mutex
	connected    bool
	publishErr   error
	pending      bool
	published    []published
	disconnected bool
}

func (c *mockClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return &mockToken{done: make(chan struct{})}
	}
	c.published = append(c.published, published{topic: topic, payload: payload.([]byte)})
	return completedToken(c.publishErr)
}

func (c *mockClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
}

func TestMemorySink(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()
	ctx := context.Background()
	require.NoError(t, s.Send(ctx, NewMessage("a", 0, movement.Command{Forward: 1}, true)))
	require.NoError(t, s.Send(ctx, NewMessage("b", 0, movement.Command{Turn: -1}, false)))
	require.NoError(t, s.Send(ctx, NewMessage("a", 1, movement.Command{Forward: 0.5}, true)))

	assert.Len(t, s.Messages(), 3)
	m, ok := s.Latest("a")
	require.True(t, ok)
	assert.Equal(t, Message{Agent: "a", Tick: 1, Forward: 0.5, Safe: true}, m)
	_, ok = s.Latest("c")
	assert.False(t, ok)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Send(cancelled, Message{}), context.Canceled)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Send(ctx, Message{}), ErrClosed)
}

func TestMQTTSinkPublishesJSON(t *testing.T) {
	t.Parallel()

	c := &mockClient{connected: true}
	s := newMQTTSink(c, MQTTOptions{Prefix: "lab"})
	msg := NewMessage("r1", 7, movement.Command{Forward: 0.25, Turn: -1}, false)
	require.NoError(t, s.Send(context.Background(), msg))

	require.Len(t, c.published, 1)
	assert.Equal(t, "lab/r1/cmd", c.published[0].topic)
	var got Message
	require.NoError(t, json.Unmarshal(c.published[0].payload, &got))
	assert.Equal(t, msg, got)
	assert.JSONEq(t, `{"agent":"r1","tick":7,"forward":0.25,"turn":-1,"safe":false}`, string(c.published[0].payload))

	require.NoError(t, s.Close())
	assert.True(t, c.disconnected)
	assert.ErrorIs(t, s.Send(context.Background(), msg), ErrClosed)
}

func TestMQTTSinkErrors(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	ctx := context.Background()

	s := newMQTTSink(&mockClient{}, MQTTOptions{})
	assert.Equal(t, "localnav/a/cmd", s.Topic("a"))
	assert.ErrorIs(t, s.Send(ctx, Message{Agent: "a"}), mqtt.ErrNotConnected)

	boom := errors.New("boom")
	s = newMQTTSink(&mockClient{connected: true, publishErr: boom}, MQTTOptions{})
	assert.ErrorIs(t, s.Send(ctx, Message{Agent: "a"}), boom)

	s = newMQTTSink(&mockClient{connected: true, pending: true}, MQTTOptions{Timeout: time.Millisecond})
	assert.ErrorContains(t, s.Send(ctx, Message{Agent: "a"}), "timed out")

	s = newMQTTSink(&mockClient{connected: true, pending: true}, MQTTOptions{Timeout: time.Minute})
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Send(cancelled, Message{Agent: "a"}), context.Canceled)
}

func TestDialMQTTRequiresBroker(t *testing.T) {
	t.Parallel()

	_, err := DialMQTT(MQTTOptions{})
	assert.Error(t, err)
}
