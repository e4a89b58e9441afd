package mlmodel

import (
	"fmt"
	"math"

	"MandiPulse/internal/domain/models"
)

const eulerGamma = 0.5772156649015329

// IsolationForest scores samples by how quickly random splits isolate them.
// ScoreSamples follows the usual convention: values near -1 are anomalous and
// values near -0.5 or above are normal. Samples scoring below Offset are outliers.
type IsolationForest struct {
	NumFeatures int     `msgpack:"num_features"`
	SampleSize  int     `msgpack:"sample_size"`
	Offset      float64 `msgpack:"offset"`
	Trees       []Tree  `msgpack:"trees"`
}

// averagePathLength is the expected path length of an unsuccessful search in
// a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// ScoreSamples returns -2^(-E[h(x)]/c(ψ)).
func (f *IsolationForest) ScoreSamples(x models.FeatureVector) (float64, error) {
	if err := checkArity(f.NumFeatures, len(x)); err != nil {
		return 0, err
	}
	total := 0.0
	for i := range f.Trees {
		n, depth := f.Trees[i].walk(x)
		total += float64(depth) + averagePathLength(int(n.Size))
	}
	mean := total / float64(len(f.Trees))
	norm := averagePathLength(f.SampleSize)
	if norm == 0 {
		norm = 1
	}
	return -math.Pow(2, -mean/norm), nil
}

func (f *IsolationForest) Score(x models.FeatureVector) (models.OutlierVerdict, error) {
	s, err := f.ScoreSamples(x)
	if err != nil {
		return models.Normal, err
	}
	if s < f.Offset {
		return models.Outlier, nil
	}
	return models.Normal, nil
}

func (f *IsolationForest) Validate() error {
	if f.NumFeatures <= 0 || f.SampleSize <= 0 || len(f.Trees) == 0 {
		return fmt.Errorf("%w: isolation forest has %d features, sample size %d and %d trees",
			ErrCorruptModel, f.NumFeatures, f.SampleSize, len(f.Trees))
	}
	if math.IsNaN(f.Offset) || math.IsInf(f.Offset, 0) {
		return fmt.Errorf("%w: offset %v", ErrCorruptModel, f.Offset)
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
