package analytics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/services/mlmodel"
)

type memStore map[string][]byte

func (m memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	b, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: not found", name)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m memStore) Save(_ context.Context, name string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m[name] = b
	return nil
}

func constForest(kind mlmodel.Kind, arity int, v float64) *mlmodel.Forest {
	return &mlmodel.Forest{Kind: kind, NumFeatures: arity, Trees: []mlmodel.Tree{{Nodes: []mlmodel.Node{
		{Left: -1, Right: -1, Value: v, Size: 1},
	}}}}
}

func put(t *testing.T, store memStore, name string, f *mlmodel.Forest) {
	var buf bytes.Buffer
	require.NoError(t, mlmodel.EncodeForest(&buf, f))
	store[name] = buf.Bytes()
}

// fixtureStore holds models that always predict mandi 30, expected 32, no
// outliers and a transport disruption.
func fixtureStore(t *testing.T) memStore {
	store := memStore{}
	put(t, store, MandiRegressorFile, constForest(mlmodel.KindRegressor, 3, 30))
	put(t, store, PriceRegressorFile, constForest(mlmodel.KindRegressor, 4, 32))
	put(t, store, TransportClassifierFile, constForest(mlmodel.KindClassifier, 5, 1))
	put(t, store, WeatherClassifierFile, constForest(mlmodel.KindClassifier, 5, 0))

	iso := &mlmodel.IsolationForest{NumFeatures: 5, SampleSize: 8, Offset: -0.9, Trees: []mlmodel.Tree{{Nodes: []mlmodel.Node{
		{Left: -1, Right: -1, Size: 8},
	}}}}
	var buf bytes.Buffer
	require.NoError(t, mlmodel.EncodeIsolationForest(&buf, iso))
	store[IsolationForestFile] = buf.Bytes()
	return store
}

func TestLoadPredictorSetFeedsEngine(t *testing.T) {
	set, err := LoadPredictorSet(context.Background(), fixtureStore(t))
	require.NoError(t, err)
	require.True(t, set.Complete())

	e, err := NewEngine(set)
	require.NoError(t, err)
	got, err := e.Analyze(6, models.Onion, models.Okhla, 45)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisResult{
		MandiBenchmark: 30,
		ExpectedPrice:  32,
		IsAnomaly:      true,
		Reason:         models.ReasonTransport,
		Deviation:      "40.6%",
	}, got)
}

func TestLoadPredictorSetChecksArity(t *testing.T) {
	store := fixtureStore(t)
	put(t, store, PriceRegressorFile, constForest(mlmodel.KindRegressor, 3, 32))

	_, err := LoadPredictorSet(context.Background(), store)
	assert.ErrorIs(t, err, mlmodel.ErrFeatureArity)
	assert.Contains(t, err.Error(), PriceRegressorFile)
}

func TestLoadPredictorSetChecksKind(t *testing.T) {
	store := fixtureStore(t)
	put(t, store, WeatherClassifierFile, constForest(mlmodel.KindRegressor, 5, 0))

	_, err := LoadPredictorSet(context.Background(), store)
	assert.ErrorIs(t, err, mlmodel.ErrKindMismatch)
}

func TestLoadPredictorSetMissingArtifact(t *testing.T) {
	store := fixtureStore(t)
	delete(store, IsolationForestFile)

	_, err := LoadPredictorSet(context.Background(), store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), IsolationForestFile)
}
