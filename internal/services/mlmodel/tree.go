// Package mlmodel implements the tree ensembles behind the price predictors:
// random-forest regressors and classifiers and an isolation forest. Models are
// stored as flat node arrays and are read-only after construction, so a single
// instance may serve any number of goroutines.
package mlmodel

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrFeatureArity  = errors.New("feature vector arity mismatch")
	ErrKindMismatch  = errors.New("model kind mismatch")
	ErrCorruptModel  = errors.New("corrupt model")
	ErrEmptyTraining = errors.New("empty training set")
)

// Kind identifies what a serialized model predicts.
type Kind string

const (
	KindRegressor  Kind = "regressor"
	KindClassifier Kind = "classifier"
	KindIsolation  Kind = "isolation_forest"
)

const leaf = -1

// Node is one entry of a tree. Samples with x[Feature] <= Threshold go Left.
// Left == -1 marks a leaf; Value holds the regression mean or the positive
// class probability and Size the number of training samples that reached it.
type Node struct {
	Feature   int32   `msgpack:"f"`
	Threshold float64 `msgpack:"t"`
	Left      int32   `msgpack:"l"`
	Right     int32   `msgpack:"r"`
	Value     float64 `msgpack:"v"`
	Size      int32   `msgpack:"n"`
}

func (n Node) IsLeaf() bool { return n.Left == leaf }

type Tree struct {
	Nodes []Node `msgpack:"nodes"`
}

// walk returns the leaf reached by x and its depth.
func (t *Tree) walk(x []float64) (Node, int) {
	i, depth := 0, 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n, depth
		}
		if x[n.Feature] <= n.Threshold {
			i = int(n.Left)
		} else {
			i = int(n.Right)
		}
		depth++
	}
}

// validate checks that every child index points forward inside the array and
// every split feature is below numFeatures, which guarantees walk terminates.
func (t *Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrCorruptModel)
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			if math.IsNaN(n.Value) {
				return fmt.Errorf("%w: node %d has NaN value", ErrCorruptModel, i)
			}
			continue
		}
		if n.Feature < 0 || int(n.Feature) >= numFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrCorruptModel, i, n.Feature)
		}
		for _, c := range []int32{n.Left, n.Right} {
			if int(c) <= i || int(c) >= len(t.Nodes) {
				return fmt.Errorf("%w: node %d has child %d", ErrCorruptModel, i, c)
			}
		}
	}
	return nil
}

func checkArity(want, got int) error {
	if want != got {
		return fmt.Errorf("%w: want %d features, got %d", ErrFeatureArity, want, got)
	}
	return nil
}
