package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is an in-process BytesCache. Entries past their TTL are dropped
// lazily on read and by a periodic sweep; when full, the entry closest to
// expiry is evicted.
type TTLCache struct {
	mu      sync.RWMutex
	m       map[string]entry
	maxSize int
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

func NewTTLCache(maxSize int, sweepEvery time.Duration) *TTLCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	c := &TTLCache{
		m:       make(map[string]entry),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go c.sweepLoop(sweepEvery)
	}
	return c
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxSize {
		c.evictLocked()
	}
	c.m[key] = entry{v: value, exp: exp}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Close stops the sweeper.
func (c *TTLCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *TTLCache) evictLocked() {
	var (
		victim string
		soon   time.Time
		found  bool
	)
	for k, e := range c.m {
		if e.exp.IsZero() {
			if !found {
				victim, found = k, true
			}
			continue
		}
		if !found || soon.IsZero() || e.exp.Before(soon) {
			victim, soon, found = k, e.exp, true
		}
	}
	if found {
		delete(c.m, victim)
	}
}

func (c *TTLCache) sweep() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *TTLCache) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}
