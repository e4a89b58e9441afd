package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	pkgmetrics "MandiPulse/pkg/metrics"
)

type flakyPersister struct {
	failures int32
	calls    atomic.Int32
	mu       sync.Mutex
	saved    []string
}

func (p *flakyPersister) Persist(_ context.Context, v *models.PriceVerdict, sinks domrepo.Sinks) (domrepo.Sinks, error) {
	if p.calls.Add(1) <= p.failures {
		return sinks, errors.New("downstream unavailable")
	}
	p.mu.Lock()
	p.saved = append(p.saved, v.ID)
	p.mu.Unlock()
	return 0, nil
}

func (p *flakyPersister) savedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.saved...)
}

func TestPersistQueueRetriesUntilSuccess(t *testing.T) {
	target := &flakyPersister{failures: 2}
	q := NewPersistQueue(target, pkgmetrics.Nop{}, WithMaxTries(5))
	q.Start(context.Background())
	defer q.Stop()

	require.True(t, q.Enqueue(models.PriceVerdict{ID: "v1"}, domrepo.AllSinks))
	require.Eventually(t, func() bool { return len(target.savedIDs()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"v1"}, target.savedIDs())
	assert.EqualValues(t, 3, target.calls.Load())
}

func TestPersistQueueDropsAfterMaxTries(t *testing.T) {
	target := &flakyPersister{failures: 100}
	q := NewPersistQueue(target, pkgmetrics.Nop{}, WithMaxTries(2), WithMaxBackoff(time.Millisecond))
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue(models.PriceVerdict{ID: "v1"}, domrepo.AllSinks)
	require.Eventually(t, func() bool { return target.calls.Load() == 2 && q.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, target.savedIDs())
}

func TestPersistQueueEnqueueNeverBlocks(t *testing.T) {
	q := NewPersistQueue(&flakyPersister{}, pkgmetrics.Nop{}, WithBufferSize(1))
	assert.True(t, q.Enqueue(models.PriceVerdict{ID: "a"}, domrepo.AllSinks))
	assert.False(t, q.Enqueue(models.PriceVerdict{ID: "b"}, domrepo.AllSinks))
	assert.Equal(t, 1, q.Len())
	q.Stop() // not started: no-op
}

// storeDown accepts publishes but fails the store storeFailures times.
type storeDown struct {
	storeFailures int32
	stores        atomic.Int32
	publishes     atomic.Int32
	lastSinks     atomic.Int32
}

func (p *storeDown) Persist(_ context.Context, _ *models.PriceVerdict, sinks domrepo.Sinks) (domrepo.Sinks, error) {
	p.lastSinks.Store(int32(sinks))
	var failed domrepo.Sinks
	if sinks.Has(domrepo.SinkPublisher) {
		p.publishes.Add(1)
	}
	if sinks.Has(domrepo.SinkStore) && p.stores.Add(1) <= p.storeFailures {
		failed |= domrepo.SinkStore
	}
	if failed != 0 {
		return failed, errors.New("clickhouse down")
	}
	return 0, nil
}

func TestPersistQueueRetriesOnlyFailedSinks(t *testing.T) {
	target := &storeDown{storeFailures: 3}
	q := NewPersistQueue(target, pkgmetrics.Nop{}, WithMaxTries(5))
	q.Start(context.Background())
	defer q.Stop()

	require.True(t, q.Enqueue(models.PriceVerdict{ID: "v1"}, domrepo.AllSinks))
	require.Eventually(t, func() bool { return target.stores.Load() == 4 }, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, target.publishes.Load())
	assert.EqualValues(t, domrepo.SinkStore, target.lastSinks.Load())
}
