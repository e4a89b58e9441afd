package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	Service        string        // stamped on every batch
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // flush once this many distinct entries are pending
	Topic          string
	Publisher      Publisher
}

// AggregatedLogEntry is one distinct log line and how often it was seen
// during the current window.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the payload published on every flush.
type LogBatch struct {
	Service string               `json:"service"`
	SentAt  time.Time            `json:"sent_at"`
	Entries []AggregatedLogEntry `json:"entries"`
}

// LogCollector deduplicates log entries by level, message, fields and caller
// and publishes them in batches.
type LogCollector struct {
	config  *CollectionConfig
	pending map[string]*AggregatedLogEntry
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &LogCollector{
		config:  config,
		pending: make(map[string]*AggregatedLogEntry),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.wg.Add(1)
	go c.periodicFlush()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.pending[key]; ok {
		entry.Count++
		entry.LastSeen = now
	} else {
		c.pending[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(c.pending) >= c.config.CountThreshold {
		c.flushLocked()
	}
}

// Pending returns the number of distinct entries awaiting flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	data, _ := json.Marshal(struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{level, message, fields, caller})
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func (c *LogCollector) periodicFlush() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-c.ctx.Done():
			c.mu.Lock()
			batch := c.takeLocked()
			c.mu.Unlock()
			if batch != nil {
				c.publish(batch)
			}
			return
		}
	}
}

func (c *LogCollector) takeLocked() *LogBatch {
	if len(c.pending) == 0 {
		return nil
	}
	entries := make([]AggregatedLogEntry, 0, len(c.pending))
	for _, e := range c.pending {
		entries = append(entries, *e)
	}
	c.pending = make(map[string]*AggregatedLogEntry)
	return &LogBatch{Service: c.config.Service, SentAt: time.Now().UTC(), Entries: entries}
}

// flushLocked hands the pending batch to a goroutine so callers holding the
// lock never wait on the publisher.
func (c *LogCollector) flushLocked() {
	batch := c.takeLocked()
	if batch == nil {
		return
	}
	go c.publish(batch)
}

func (c *LogCollector) publish(batch *LogBatch) {
	if c.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
		fmt.Fprintf(os.Stderr, "logger: publish %d aggregated entries: %v\n", len(batch.Entries), err)
	}
}

// Close stops the flush loop and publishes anything still pending.
func (c *LogCollector) Close() {
	c.cancel()
	c.wg.Wait()
}
