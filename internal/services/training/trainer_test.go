package training

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/services/mlmodel"
)

type memStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: map[string][]byte{}} }

func (s *memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.m[name]
	if !ok {
		return nil, fmt.Errorf("%s: not found", name)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Save(_ context.Context, name string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.m[name] = b
	s.mu.Unlock()
	return nil
}

func mandiFor(month int, c models.Commodity, m models.Market) float64 {
	return 20 + 8*float64(c) + 1.5*float64(m) + 0.5*float64(month)
}

// syntheticHistory covers every (month, commodity, market) once with a fair
// price and every seventh row again as a transport-driven spike.
func syntheticHistory() []models.HistoryRow {
	var rows []models.HistoryRow
	i := 0
	for month := 1; month <= 12; month++ {
		for _, c := range models.Commodities() {
			for _, m := range models.Markets() {
				mandi := mandiFor(month, c, m)
				rows = append(rows, models.HistoryRow{
					Month: month, Commodity: c, Market: m,
					MandiAvg: mandi, ObservedPrice: mandi * 1.05,
				})
				if i%7 == 0 {
					rows = append(rows, models.HistoryRow{
						Month: month, Commodity: c, Market: m,
						MandiAvg: mandi, ObservedPrice: mandi * 2.5,
						IsAnomaly: true, TransportIssue: true,
					})
				}
				i++
			}
		}
	}
	return rows
}

func TestTrainWritesLoadableArtifacts(t *testing.T) {
	store := newMemStore()
	tr := NewTrainer(store, nil, mlmodel.WithTrees(15), mlmodel.WithSeed(7))

	rows := syntheticHistory()
	rep, err := tr.Train(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, len(rows), rep.Rows)
	assert.Equal(t, 420, rep.NormalRows)
	assert.Equal(t, analytics.ArtifactFiles, rep.Artifacts)

	set, err := analytics.LoadPredictorSet(context.Background(), store)
	require.NoError(t, err)
	engine, err := analytics.NewEngine(set)
	require.NoError(t, err)

	mandi := mandiFor(10, models.Onion, models.Okhla)
	res, err := engine.Analyze(10, models.Onion, models.Okhla, mandi*3)
	require.NoError(t, err)
	assert.InDelta(t, mandi, res.MandiBenchmark, 3)
	assert.True(t, res.IsAnomaly)
	assert.NotEqual(t, models.ReasonConsistent, res.Reason)
}

func TestTrainIsDeterministic(t *testing.T) {
	rows := syntheticHistory()
	a, b := newMemStore(), newMemStore()
	_, err := NewTrainer(a, nil, mlmodel.WithTrees(5)).Train(context.Background(), rows)
	require.NoError(t, err)
	_, err = NewTrainer(b, nil, mlmodel.WithTrees(5)).Train(context.Background(), rows)
	require.NoError(t, err)

	for _, name := range analytics.ArtifactFiles {
		assert.Equal(t, a.m[name], b.m[name], name)
	}
}

func TestTrainRejectsAllAnomalies(t *testing.T) {
	rows := []models.HistoryRow{{Month: 1, MandiAvg: 10, ObservedPrice: 30, IsAnomaly: true}}
	_, err := NewTrainer(newMemStore(), nil).Train(context.Background(), rows)
	assert.ErrorIs(t, err, ErrBadDataset)
}

func TestTrainStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newMemStore()
	_, err := NewTrainer(store, nil, mlmodel.WithTrees(2)).Train(ctx, syntheticHistory())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.m)
}
