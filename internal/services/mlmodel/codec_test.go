package mlmodel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
)

func TestForestSurvivesEncoding(t *testing.T) {
	f := &Forest{Kind: KindClassifier, NumFeatures: 2, Trees: []Tree{stump(1.5, 0.2, 0.9)}}
	var buf bytes.Buffer
	require.NoError(t, EncodeForest(&buf, f))

	got, err := DecodeForest(&buf, KindClassifier)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	ok, err := got.Classify(models.FeatureVector{2, 0})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDecodeForestKindMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeForest(&buf, &Forest{Kind: KindRegressor, NumFeatures: 1, Trees: []Tree{stump(0, 1, 2)}}))
	_, err := DecodeForest(&buf, KindClassifier)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestDecodeIsolationForest(t *testing.T) {
	X, _ := clusterWithOutliers()
	f, err := FitIsolationForest(X, WithTrees(3))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeIsolationForest(&buf, f))
	got, err := DecodeIsolationForest(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Offset, got.Offset)
	assert.Equal(t, f.SampleSize, got.SampleSize)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeForest(bytes.NewReader([]byte("not a model")), KindRegressor)
	assert.ErrorIs(t, err, ErrCorruptModel)

	_, err = DecodeIsolationForest(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrCorruptModel)
}
