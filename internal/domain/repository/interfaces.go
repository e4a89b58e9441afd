package repository

import (
	"context"
	"errors"
	"io"

	"MandiPulse/internal/domain/models"
)

// AnalysisStore persists price verdicts for later review.
type AnalysisStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, v *models.PriceVerdict) error
	RecentAnomalies(ctx context.Context, market string, limit int) ([]models.PriceVerdict, error)
	Health(ctx context.Context) error
	Close() error
}

// VerdictPublisher fans verdicts out to downstream consumers.
type VerdictPublisher interface {
	Publish(ctx context.Context, v *models.PriceVerdict) error
	Close() error
}

// Sinks is a set of verdict downstreams.
type Sinks uint8

const (
	SinkStore Sinks = 1 << iota
	SinkPublisher

	AllSinks = SinkStore | SinkPublisher
)

func (s Sinks) Has(x Sinks) bool { return s&x != 0 }

// AlertSink receives anomalous verdicts for live delivery.
type AlertSink interface {
	Broadcast(v models.PriceVerdict)
}

// ErrModelNotFound is returned by ModelStore.Open for a missing artifact.
var ErrModelNotFound = errors.New("model artifact not found")

// ModelStore reads and writes serialized predictor artifacts by name.
type ModelStore interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Save(ctx context.Context, name string, r io.Reader) error
}

type Metrics interface {
	RecordVerdict(reason models.Reason, anomalous bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
