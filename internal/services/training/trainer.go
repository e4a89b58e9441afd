package training

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/services/features"
	"MandiPulse/internal/services/mlmodel"
	applogger "MandiPulse/pkg/logger"
)

// Report summarises one training run.
type Report struct {
	Rows       int           `json:"rows"`
	NormalRows int           `json:"normal_rows"`
	Anomalies  int           `json:"anomalies"`
	Artifacts  []string      `json:"artifacts"`
	Duration   time.Duration `json:"duration"`
}

// Trainer fits the five predictors and writes them to a model store.
type Trainer struct {
	store domrepo.ModelStore
	opts  []mlmodel.FitOption
	l     *applogger.Logger
}

func NewTrainer(store domrepo.ModelStore, l *applogger.Logger, opts ...mlmodel.FitOption) *Trainer {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Trainer{store: store, opts: opts, l: l}
}

type matrices struct {
	mandiX, priceX, fullX [][]float64
	mandiY, priceY        []float64
	transport, weather    []bool
}

func buildMatrices(rows []models.HistoryRow) matrices {
	m := matrices{
		mandiX:    make([][]float64, 0, len(rows)),
		mandiY:    make([]float64, 0, len(rows)),
		fullX:     make([][]float64, 0, len(rows)),
		transport: make([]bool, 0, len(rows)),
		weather:   make([]bool, 0, len(rows)),
	}
	for _, r := range rows {
		mandi, price, full := features.FromRow(r)
		m.mandiX = append(m.mandiX, mandi)
		m.mandiY = append(m.mandiY, r.MandiAvg)
		m.fullX = append(m.fullX, full)
		m.transport = append(m.transport, r.TransportIssue)
		m.weather = append(m.weather, r.WeatherImpact)
		// the expected-price model only learns from normal observations
		if !r.IsAnomaly {
			m.priceX = append(m.priceX, price)
			m.priceY = append(m.priceY, r.ObservedPrice)
		}
	}
	return m
}

// Train fits every predictor on rows and saves them under their artifact names.
func (t *Trainer) Train(ctx context.Context, rows []models.HistoryRow) (Report, error) {
	start := time.Now()
	rep := Report{Rows: len(rows)}
	for i, r := range rows {
		_, _, full := features.FromRow(r)
		if !features.Finite(full) {
			return rep, fmt.Errorf("%w: row %d has non-finite values", ErrBadDataset, i+1)
		}
	}

	m := buildMatrices(rows)
	rep.NormalRows = len(m.priceX)
	rep.Anomalies = rep.Rows - rep.NormalRows
	if rep.NormalRows == 0 {
		return rep, fmt.Errorf("%w: every row is an anomaly", ErrBadDataset)
	}

	steps := []struct {
		name string
		fit  func() (func(*bytes.Buffer) error, error)
	}{
		{analytics.MandiRegressorFile, func() (func(*bytes.Buffer) error, error) {
			f, err := mlmodel.FitRegressor(m.mandiX, m.mandiY, t.opts...)
			return forestWriter(f), err
		}},
		{analytics.PriceRegressorFile, func() (func(*bytes.Buffer) error, error) {
			f, err := mlmodel.FitRegressor(m.priceX, m.priceY, t.opts...)
			return forestWriter(f), err
		}},
		{analytics.IsolationForestFile, func() (func(*bytes.Buffer) error, error) {
			f, err := mlmodel.FitIsolationForest(m.fullX, t.opts...)
			return func(b *bytes.Buffer) error { return mlmodel.EncodeIsolationForest(b, f) }, err
		}},
		{analytics.TransportClassifierFile, func() (func(*bytes.Buffer) error, error) {
			f, err := mlmodel.FitClassifier(m.fullX, m.transport, t.opts...)
			return forestWriter(f), err
		}},
		{analytics.WeatherClassifierFile, func() (func(*bytes.Buffer) error, error) {
			f, err := mlmodel.FitClassifier(m.fullX, m.weather, t.opts...)
			return forestWriter(f), err
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		stepStart := time.Now()
		write, err := s.fit()
		if err != nil {
			return rep, fmt.Errorf("fit %s: %w", s.name, err)
		}
		var buf bytes.Buffer
		if err := write(&buf); err != nil {
			return rep, fmt.Errorf("encode %s: %w", s.name, err)
		}
		size := buf.Len()
		if err := t.store.Save(ctx, s.name, &buf); err != nil {
			return rep, fmt.Errorf("save %s: %w", s.name, err)
		}
		rep.Artifacts = append(rep.Artifacts, s.name)
		t.l.Info("training.artifact saved",
			applogger.String("artifact", s.name),
			applogger.Int("bytes", size),
			applogger.Duration("duration_ms", time.Since(stepStart)),
		)
	}

	rep.Duration = time.Since(start)
	return rep, nil
}

func forestWriter(f *mlmodel.Forest) func(*bytes.Buffer) error {
	return func(b *bytes.Buffer) error { return mlmodel.EncodeForest(b, f) }
}
