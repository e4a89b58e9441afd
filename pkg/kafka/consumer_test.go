package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type countingHandler struct {
	topic string
	calls int
	errs  []error
}

func (h *countingHandler) Topic() string { return h.topic }

func (h *countingHandler) Handle(context.Context, []byte) error {
	h.calls++
	if len(h.errs) == 0 {
		return nil
	}
	err := h.errs[0]
	h.errs = h.errs[1:]
	return err
}

func testConsumer(h MessageHandler, dlq *fakeWriter) *Consumer {
	c := newConsumer(&ConsumerConfig{
		WorkerCount: 1,
		BufferSize:  1,
		RetryMax:    2,
		BackoffMin:  time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		DLQTopic:    "reports_dlq",
	})
	if dlq != nil {
		c.dlq = dlq
	}
	c.RegisterHandler(h)
	return c
}

func msg(topic string) *message {
	return &message{topic: topic, data: []byte(`{}`), km: kafka.Message{Topic: topic, Key: []byte("Okhla")}}
}

func TestProcessRetriesTransientErrors(t *testing.T) {
	h := &countingHandler{topic: "reports", errs: []error{errors.New("flaky"), errors.New("flaky")}}
	dlq := &fakeWriter{}
	c := testConsumer(h, dlq)

	assert.True(t, c.process(msg("reports")))
	assert.Equal(t, 3, h.calls)
	assert.Empty(t, dlq.msgs)
}

func TestProcessSendsExhaustedToDLQ(t *testing.T) {
	boom := errors.New("boom")
	h := &countingHandler{topic: "reports", errs: []error{boom, boom, boom, boom}}
	dlq := &fakeWriter{}
	c := testConsumer(h, dlq)

	assert.True(t, c.process(msg("reports")))
	assert.Equal(t, 3, h.calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "reports_dlq", dlq.msgs[0].Topic)
	assert.Equal(t, []byte("Okhla"), dlq.msgs[0].Key)
	assert.Equal(t, "source_topic", dlq.msgs[0].Headers[0].Key)
}

func TestProcessPermanentErrorSkipsRetries(t *testing.T) {
	h := &countingHandler{topic: "reports", errs: []error{Permanent(errors.New("bad payload"))}}
	dlq := &fakeWriter{}
	c := testConsumer(h, dlq)

	assert.True(t, c.process(msg("reports")))
	assert.Equal(t, 1, h.calls)
	require.Len(t, dlq.msgs, 1)
}

func TestProcessWithoutDLQDoesNotCommitFailures(t *testing.T) {
	h := &countingHandler{topic: "reports", errs: []error{Permanent(errors.New("bad"))}}
	c := testConsumer(h, nil)
	c.dlq = nil

	assert.False(t, c.process(msg("reports")))
}

func TestProcessRecoversHandlerPanic(t *testing.T) {
	c := testConsumer(panicHandler{}, &fakeWriter{})
	assert.True(t, c.process(msg("reports")))
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "reports" }
func (panicHandler) Handle(context.Context, []byte) error { panic("nil map") }

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	base := errors.New("x")
	err := Permanent(base)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}

func TestBackoffWithJitterBounded(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestTraceHookMintsID(t *testing.T) {
	ctx, _, _, err := TraceHook{}.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, TraceIDFrom(ctx))

	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, _ = TraceHook{}.BeforeHandle(context.Background(), "t", km, nil)
	assert.Equal(t, "abc", TraceIDFrom(ctx))
}
