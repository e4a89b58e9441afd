package middleware

import (
	"context"
	"sync"
	"time"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
)

// Persister writes one verdict to the given downstreams and reports the
// ones that failed.
type Persister interface {
	Persist(ctx context.Context, v *models.PriceVerdict, sinks domrepo.Sinks) (domrepo.Sinks, error)
}

// job is a verdict and the sinks that have not accepted it yet.
type job struct {
	v     models.PriceVerdict
	sinks domrepo.Sinks
}

// PersistQueue sits between the request path and storage. Verdicts whose
// first write failed are buffered and retried in the background with
// exponential backoff, only against the sinks that failed. When the buffer
// is full new failures are dropped.
type PersistQueue struct {
	target     Persister
	metrics    domrepo.Metrics
	bufCh      chan *job
	maxBackoff time.Duration
	maxTries   int

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

type QueueOption func(*PersistQueue)

// WithBufferSize sets how many failed verdicts wait for a retry.
func WithBufferSize(n int) QueueOption {
	return func(q *PersistQueue) {
		if n > 0 {
			q.bufCh = make(chan *job, n)
		}
	}
}

// WithMaxBackoff caps the delay between retries.
func WithMaxBackoff(d time.Duration) QueueOption {
	return func(q *PersistQueue) {
		if d > 0 {
			q.maxBackoff = d
		}
	}
}

// WithMaxTries bounds how often one verdict is retried before it is dropped.
func WithMaxTries(n int) QueueOption {
	return func(q *PersistQueue) {
		if n > 0 {
			q.maxTries = n
		}
	}
}

func NewPersistQueue(target Persister, metrics domrepo.Metrics, opts ...QueueOption) *PersistQueue {
	q := &PersistQueue{
		target:     target,
		metrics:    metrics,
		bufCh:      make(chan *job, 1000),
		maxBackoff: 2 * time.Second,
		maxTries:   5,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue buffers v for a retry against sinks. It never blocks; false means
// v was dropped.
func (q *PersistQueue) Enqueue(v models.PriceVerdict, sinks domrepo.Sinks) bool {
	select {
	case q.bufCh <- &job{v: v, sinks: sinks}:
		return true
	default:
		q.metrics.RecordError("persist_buffer_full")
		return false
	}
}

// Len reports the number of verdicts waiting for a retry.
func (q *PersistQueue) Len() int { return len(q.bufCh) }

// Start launches the retry loop.
func (q *PersistQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go func() {
		defer close(q.done)
		const minBackoff = 50 * time.Millisecond
		backoff := minBackoff
		for {
			select {
			case <-q.stopCh:
				return
			case <-ctx.Done():
				return
			case j := <-q.bufCh:
				if q.retry(ctx, j) {
					backoff = minBackoff
					continue
				}
				q.metrics.RecordError("persist_retry")
				select {
				case <-time.After(backoff):
				case <-q.stopCh:
					return
				case <-ctx.Done():
					return
				}
				if backoff < q.maxBackoff {
					backoff *= 2
					if backoff > q.maxBackoff {
						backoff = q.maxBackoff
					}
				}
			}
		}
	}()
}

func (q *PersistQueue) retry(ctx context.Context, j *job) bool {
	for i := 0; i < q.maxTries; i++ {
		failed, err := q.target.Persist(ctx, &j.v, j.sinks)
		if err == nil {
			return true
		}
		if failed != 0 {
			j.sinks = failed
		}
		if i == q.maxTries-1 {
			break
		}
		select {
		case <-time.After(time.Duration(i+1) * 10 * time.Millisecond):
		case <-ctx.Done():
			return false
		}
	}
	q.metrics.RecordError("persist_drop")
	return false
}

// Stop ends the retry loop and waits for it to exit. Buffered verdicts are
// abandoned.
func (q *PersistQueue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.mu.Unlock()
	close(q.stopCh)
	<-q.done
}
