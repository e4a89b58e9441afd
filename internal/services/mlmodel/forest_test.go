package mlmodel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
)

func stump(threshold, left, right float64) Tree {
	return Tree{Nodes: []Node{
		{Feature: 0, Threshold: threshold, Left: 1, Right: 2},
		{Left: leaf, Right: leaf, Value: left, Size: 3},
		{Left: leaf, Right: leaf, Value: right, Size: 3},
	}}
}

func TestForestRegressAveragesTrees(t *testing.T) {
	f := &Forest{Kind: KindRegressor, NumFeatures: 3, Trees: []Tree{stump(5, 1, 10), stump(5, 3, 20)}}
	require.NoError(t, f.Validate())

	v, err := f.Regress(models.FeatureVector{3, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = f.Regress(models.FeatureVector{5, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v, "threshold value goes left")

	v, err = f.Regress(models.FeatureVector{6, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 15.0, v)
}

func TestForestRejectsWrongArity(t *testing.T) {
	f := &Forest{Kind: KindRegressor, NumFeatures: 3, Trees: []Tree{stump(5, 1, 10)}}
	_, err := f.Regress(models.FeatureVector{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrFeatureArity)
}

func TestForestRejectsWrongKind(t *testing.T) {
	reg := &Forest{Kind: KindRegressor, NumFeatures: 1, Trees: []Tree{stump(0, 0, 1)}}
	_, err := reg.Classify(models.FeatureVector{1})
	assert.ErrorIs(t, err, ErrKindMismatch)

	cls := &Forest{Kind: KindClassifier, NumFeatures: 1, Trees: []Tree{stump(0, 0, 1)}}
	_, err = cls.Regress(models.FeatureVector{1})
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestClassifyNeedsMajority(t *testing.T) {
	f := &Forest{Kind: KindClassifier, NumFeatures: 1, Trees: []Tree{stump(0, 0, 1), stump(0, 0, 0)}}
	ok, err := f.Classify(models.FeatureVector{1})
	require.NoError(t, err)
	assert.False(t, ok, "probability of exactly one half is negative")

	f.Trees = append(f.Trees, stump(0, 0, 1))
	ok, err = f.Classify(models.FeatureVector{1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateCatchesBadChildren(t *testing.T) {
	f := &Forest{Kind: KindRegressor, NumFeatures: 1, Trees: []Tree{{Nodes: []Node{
		{Feature: 0, Threshold: 1, Left: 0, Right: 1},
		{Left: leaf, Right: leaf},
	}}}}
	assert.ErrorIs(t, f.Validate(), ErrCorruptModel)

	f.Trees[0].Nodes[0] = Node{Feature: 2, Threshold: 1, Left: 1, Right: 1}
	assert.ErrorIs(t, f.Validate(), ErrCorruptModel)
}

func TestFitRegressorLearnsStep(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 100; i++ {
		X = append(X, []float64{float64(i)})
		if i < 50 {
			y = append(y, 0)
		} else {
			y = append(y, 100)
		}
	}
	f, err := FitRegressor(X, y, WithTrees(20), WithSeed(7))
	require.NoError(t, err)

	low, err := f.Regress(models.FeatureVector{10})
	require.NoError(t, err)
	high, err := f.Regress(models.FeatureVector{90})
	require.NoError(t, err)
	assert.InDelta(t, 0, low, 1e-9)
	assert.InDelta(t, 100, high, 1e-9)
}

func TestFitClassifierSkipsConstantFeatures(t *testing.T) {
	var X [][]float64
	var labels []bool
	for i := 0; i < 100; i++ {
		X = append(X, []float64{float64(i), 7})
		labels = append(labels, i > 50)
	}
	f, err := FitClassifier(X, labels, WithTrees(15), WithSeed(3))
	require.NoError(t, err)

	hi, err := f.Classify(models.FeatureVector{80, 7})
	require.NoError(t, err)
	lo, err := f.Classify(models.FeatureVector{20, 7})
	require.NoError(t, err)
	assert.True(t, hi)
	assert.False(t, lo)
}

func TestFitIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		X = append(X, []float64{rng.Float64(), rng.Float64(), rng.Float64()})
		y = append(y, rng.Float64()*10)
	}
	a, err := FitRegressor(X, y, WithTrees(10), WithSeed(42))
	require.NoError(t, err)
	b, err := FitRegressor(X, y, WithTrees(10), WithSeed(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFitRejectsBadInput(t *testing.T) {
	_, err := FitRegressor(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyTraining)

	_, err = FitRegressor([][]float64{{1}, {2}}, []float64{1})
	assert.ErrorIs(t, err, ErrFeatureArity)

	_, err = FitClassifier([][]float64{{1, 2}, {3}}, []bool{true, false})
	assert.ErrorIs(t, err, ErrFeatureArity)
}
