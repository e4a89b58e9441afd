package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topic   string
	batches []*LogBatch
	err     error
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.(*LogBatch))
	return p.err
}

func (p *recordingPublisher) snapshot() []*LogBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*LogBatch(nil), p.batches...)
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{Service: "mandipulse", TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	fields := map[string]interface{}{"market": "Okhla"}
	c.AddLog("error", "pricecheck.analyze error", fields, "a.go:1")
	c.AddLog("error", "pricecheck.analyze error", fields, "a.go:1")
	c.AddLog("error", "kafka publish error", nil, "b.go:2")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "logs", pub.topic)
	assert.Equal(t, "mandipulse", batches[0].Service)
	require.Len(t, batches[0].Entries, 2)
	counts := map[string]int{}
	for _, e := range batches[0].Entries {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 2, counts["pricecheck.analyze error"])
	assert.Equal(t, 1, counts["kafka publish error"])
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "one", nil, "x")
	c.AddLog("error", "two", nil, "x")
	assert.Equal(t, 0, c.Pending())
	assert.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})

	l.Error("model.load error", String("file", "mandi_regressor.msgpack"))
	l.Info("ignored")
	assert.Equal(t, 1, l.collector.Pending())

	l.RemoveCollector()
	require.Len(t, pub.snapshot(), 1)
}
