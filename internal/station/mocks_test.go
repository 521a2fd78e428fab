package station

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
	"github.com/belly1v123/weatherStationESP32/pkg/redis"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func clockAt(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

// gatedClock holds its first Now call until released, then returns
// successive seconds
type gatedClock struct {
	mu      sync.Mutex
	start   time.Time
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newGatedClock(start time.Time) *gatedClock {
	return &gatedClock{start: start, entered: make(chan struct{}), release: make(chan struct{})}
}

func (c *gatedClock) Now() time.Time {
	c.mu.Lock()
	n := c.calls
	c.calls++
	c.mu.Unlock()

	if n == 0 {
		close(c.entered)
		<-c.release
	}
	return c.start.Add(time.Duration(n) * time.Second)
}

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type mockMQTT struct {
	mu         sync.Mutex
	connected  bool
	published  []publishedMessage
	handlers   map[string]mqtt.MessageHandler
	publishErr error

	// publishGate, when set, holds every Publish until it is closed
	publishGate chan struct{}
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{handlers: map[string]mqtt.MessageHandler{}}
}

func (m *mockMQTT) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *mockMQTT) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

func (m *mockMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	gate := m.publishGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedMessage{topic, qos, retained, payload})
	return nil
}

func (m *mockMQTT) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTT) handler(topic string) mqtt.MessageHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers[topic]
}

func (m *mockMQTT) messages(topic string) []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedMessage
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string   { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
func (m *mockMessage) Ack()            {}

// mockRedis keeps sorted sets and plain keys in memory
type mockRedis struct {
	mu     sync.Mutex
	values map[string]string
	zsets  map[string][]redis.ZMember
	ttls   map[string]time.Duration
	closed bool
}

func newMockRedis() *mockRedis {
	return &mockRedis{
		values: map[string]string{},
		zsets:  map[string][]redis.ZMember{},
		ttls:   map[string]time.Duration{},
	}
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = toString(value)
	return nil
}

func (m *mockRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (m *mockRedis) ZRevRangeByScoreWithScores(ctx context.Context, key string, max, min float64, offset, count int64) ([]redis.ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []redis.ZMember
	for _, z := range m.zsets[key] {
		if z.Score >= min && z.Score <= max {
			out = append(out, z)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if count > 0 && count < int64(len(out)) {
		out = out[:count]
	}
	return out, nil
}

func (m *mockRedis) ZAppendWindow(ctx context.Context, key string, score float64, member interface{}, keepFrom float64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := []redis.ZMember{}
	for _, z := range append(m.zsets[key], redis.ZMember{Score: score, Member: toString(member)}) {
		if z.Score >= keepFrom {
			kept = append(kept, z)
		}
	}
	m.zsets[key] = kept
	m.ttls[key] = ttl
	return int64(len(kept)), nil
}

func (m *mockRedis) Ping(ctx context.Context) error { return nil }

func (m *mockRedis) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	}
	return ""
}

// newTestDevice builds a device using a fixed +05:45 zone
func newTestDevice(capacity int) *Device {
	resolver := environment.NewResolver(environment.ResolverConfig{
		FallbackOffset: 5*time.Hour + 45*time.Minute,
	})
	return NewDevice("esp32", environment.NewClassifier(resolver), nil, capacity, DefaultDeviceConfig())
}
