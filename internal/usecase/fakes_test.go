package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"MandiPulse/internal/domain/models"
)

type fakeStore struct {
	mu    sync.Mutex
	saved []models.PriceVerdict
	err   error
}

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *fakeStore) Init(context.Context) error { return nil }
func (s *fakeStore) Store(_ context.Context, v *models.PriceVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, *v)
	return nil
}
func (s *fakeStore) RecentAnomalies(context.Context, string, int) ([]models.PriceVerdict, error) {
	return nil, errors.New("not implemented")
}
func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	mu        sync.Mutex
	published []models.PriceVerdict
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, v *models.PriceVerdict) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *v)
	return nil
}
func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) publishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fakeAlerts struct {
	got []models.PriceVerdict
}

func (a *fakeAlerts) Broadcast(v models.PriceVerdict) { a.got = append(a.got, v) }

type countingMetrics struct {
	mu       sync.Mutex
	verdicts map[models.Reason]int
	errors   map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{verdicts: map[models.Reason]int{}, errors: map[string]int{}}
}

func (m *countingMetrics) RecordVerdict(r models.Reason, _ bool) {
	m.mu.Lock()
	m.verdicts[r]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordLatency(string, float64) {}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

var fixedNow = time.Date(2024, 10, 3, 8, 0, 0, 0, time.UTC)

var onionOkhla = models.AnalysisResult{
	MandiBenchmark: 30,
	ExpectedPrice:  32,
	IsAnomaly:      true,
	Reason:         models.ReasonTransport,
	Deviation:      "40.6%",
}
