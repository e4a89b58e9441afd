package mlmodel

import (
	"fmt"

	"MandiPulse/internal/domain/models"
)

// Forest is a bagged ensemble of CART trees. Regressors average leaf means;
// classifiers average leaf positive-class probabilities and predict true when
// the average exceeds one half.
type Forest struct {
	Kind        Kind   `msgpack:"kind"`
	NumFeatures int    `msgpack:"num_features"`
	Trees       []Tree `msgpack:"trees"`
}

func (f *Forest) mean(x models.FeatureVector) (float64, error) {
	if err := checkArity(f.NumFeatures, len(x)); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range f.Trees {
		n, _ := f.Trees[i].walk(x)
		sum += n.Value
	}
	return sum / float64(len(f.Trees)), nil
}

// Regress returns the mean prediction of all trees.
func (f *Forest) Regress(x models.FeatureVector) (float64, error) {
	if f.Kind != KindRegressor {
		return 0, fmt.Errorf("%w: %s used as regressor", ErrKindMismatch, f.Kind)
	}
	return f.mean(x)
}

// Probability returns the averaged positive-class probability.
func (f *Forest) Probability(x models.FeatureVector) (float64, error) {
	if f.Kind != KindClassifier {
		return 0, fmt.Errorf("%w: %s used as classifier", ErrKindMismatch, f.Kind)
	}
	return f.mean(x)
}

func (f *Forest) Classify(x models.FeatureVector) (bool, error) {
	p, err := f.Probability(x)
	if err != nil {
		return false, err
	}
	return p > 0.5, nil
}

// Validate checks structural integrity after decoding.
func (f *Forest) Validate() error {
	if f.Kind != KindRegressor && f.Kind != KindClassifier {
		return fmt.Errorf("%w: unexpected forest kind %q", ErrCorruptModel, f.Kind)
	}
	if f.NumFeatures <= 0 || len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has %d features and %d trees", ErrCorruptModel, f.NumFeatures, len(f.Trees))
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
