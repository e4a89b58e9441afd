package mlmodel

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// FitConfig controls ensemble training.
type FitConfig struct {
	Trees          int
	MaxDepth       int // 0 = grow until pure
	MinSamplesLeaf int
	MaxFeatures    int // 0 = all for regressors, sqrt for classifiers
	Seed           int64
	SampleSize     int     // isolation forest subsample size
	Contamination  float64 // isolation forest expected outlier share
}

type FitOption func(*FitConfig)

func WithTrees(n int) FitOption             { return func(c *FitConfig) { c.Trees = n } }
func WithMaxDepth(d int) FitOption          { return func(c *FitConfig) { c.MaxDepth = d } }
func WithMinSamplesLeaf(n int) FitOption    { return func(c *FitConfig) { c.MinSamplesLeaf = n } }
func WithMaxFeatures(n int) FitOption       { return func(c *FitConfig) { c.MaxFeatures = n } }
func WithSeed(s int64) FitOption            { return func(c *FitConfig) { c.Seed = s } }
func WithSampleSize(n int) FitOption        { return func(c *FitConfig) { c.SampleSize = n } }
func WithContamination(p float64) FitOption { return func(c *FitConfig) { c.Contamination = p } }

func newFitConfig(opts []FitOption) FitConfig {
	c := FitConfig{
		Trees:          100,
		MinSamplesLeaf: 1,
		Seed:           42,
		SampleSize:     256,
		Contamination:  0.1,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.Trees < 1 {
		c.Trees = 1
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	return c
}

func checkMatrix(X [][]float64, labels int) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyTraining
	}
	if labels >= 0 && labels != len(X) {
		return 0, fmt.Errorf("%w: %d rows but %d labels", ErrFeatureArity, len(X), labels)
	}
	width := len(X[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: rows have no features", ErrFeatureArity)
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrFeatureArity, i, len(row), width)
		}
	}
	return width, nil
}

// treeSeeds draws one seed per tree up front so results do not depend on the
// order in which the trees finish.
func treeSeeds(seed int64, n int) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		out[i] = rng.Int63()
	}
	return out
}

func growTrees(n int, seed int64, grow func(rng *rand.Rand) Tree) []Tree {
	seeds := treeSeeds(seed, n)
	trees := make([]Tree, n)
	var wg sync.WaitGroup
	for i := range trees {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trees[i] = grow(rand.New(rand.NewSource(seeds[i])))
		}(i)
	}
	wg.Wait()
	return trees
}

// FitRegressor trains a random-forest regressor.
func FitRegressor(X [][]float64, y []float64, opts ...FitOption) (*Forest, error) {
	width, err := checkMatrix(X, len(y))
	if err != nil {
		return nil, err
	}
	cfg := newFitConfig(opts)
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > width {
		maxFeatures = width
	}
	trees := growTrees(cfg.Trees, cfg.Seed, func(rng *rand.Rand) Tree {
		return growCART(X, y, bootstrap(rng, len(X)), rng, cfg, maxFeatures)
	})
	return &Forest{Kind: KindRegressor, NumFeatures: width, Trees: trees}, nil
}

// FitClassifier trains a random-forest binary classifier. Splits minimise the
// weighted variance of the 0/1 labels, which ranks splits like Gini impurity.
func FitClassifier(X [][]float64, labels []bool, opts ...FitOption) (*Forest, error) {
	width, err := checkMatrix(X, len(labels))
	if err != nil {
		return nil, err
	}
	cfg := newFitConfig(opts)
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(width)))))
	}
	if maxFeatures > width {
		maxFeatures = width
	}
	y := make([]float64, len(labels))
	for i, l := range labels {
		if l {
			y[i] = 1
		}
	}
	trees := growTrees(cfg.Trees, cfg.Seed, func(rng *rand.Rand) Tree {
		return growCART(X, y, bootstrap(rng, len(X)), rng, cfg, maxFeatures)
	})
	return &Forest{Kind: KindClassifier, NumFeatures: width, Trees: trees}, nil
}

// FitIsolationForest trains an isolation forest and sets its Offset to the
// contamination quantile of the training scores.
func FitIsolationForest(X [][]float64, opts ...FitOption) (*IsolationForest, error) {
	width, err := checkMatrix(X, -1)
	if err != nil {
		return nil, err
	}
	cfg := newFitConfig(opts)
	if cfg.Contamination <= 0 || cfg.Contamination > 0.5 {
		return nil, fmt.Errorf("contamination %v out of range (0, 0.5]", cfg.Contamination)
	}
	psi := cfg.SampleSize
	if psi <= 0 || psi > len(X) {
		psi = len(X)
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))
	trees := growTrees(cfg.Trees, cfg.Seed, func(rng *rand.Rand) Tree {
		idx := rng.Perm(len(X))[:psi]
		b := &isoBuilder{X: X, rng: rng, width: width, maxDepth: maxDepth}
		b.build(idx, 0)
		return Tree{Nodes: b.nodes}
	})
	f := &IsolationForest{NumFeatures: width, SampleSize: psi, Trees: trees}

	scores := make([]float64, len(X))
	for i, row := range X {
		if scores[i], err = f.ScoreSamples(row); err != nil {
			return nil, err
		}
	}
	sort.Float64s(scores)
	f.Offset = stat.Quantile(cfg.Contamination, stat.LinInterp, scores, nil)
	return f, nil
}

func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

type cartBuilder struct {
	X           [][]float64
	y           []float64
	rng         *rand.Rand
	width       int
	maxFeatures int
	cfg         FitConfig
	nodes       []Node
}

func growCART(X [][]float64, y []float64, idx []int, rng *rand.Rand, cfg FitConfig, maxFeatures int) Tree {
	b := &cartBuilder{X: X, y: y, rng: rng, width: len(X[0]), maxFeatures: maxFeatures, cfg: cfg}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *cartBuilder) targets(idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = b.y[j]
	}
	return out
}

func (b *cartBuilder) build(idx []int, depth int) int32 {
	pos := int32(len(b.nodes))
	ys := b.targets(idx)
	mean, variance := stat.Mean(ys, nil), 0.0
	if len(ys) > 1 {
		_, variance = stat.MeanVariance(ys, nil)
	}
	b.nodes = append(b.nodes, Node{Left: leaf, Right: leaf, Value: mean, Size: int32(len(idx))})

	if len(idx) < 2*b.cfg.MinSamplesLeaf || variance == 0 || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) {
		return pos
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}
	var left, right []int
	for _, j := range idx {
		if b.X[j][feature] <= threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	n := &b.nodes[pos]
	n.Feature, n.Threshold, n.Left, n.Right = int32(feature), threshold, l, r
	return pos
}

// bestSplit sweeps sorted feature values keeping running sums so each
// candidate threshold costs O(1). At least maxFeatures features are examined;
// more are drawn while none of them yields a valid split.
func (b *cartBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.cfg.MinSamplesLeaf
	bestSSE := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	sorted := make([]int, n)

	for tried, f := range b.rng.Perm(b.width) {
		if tried >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })

		var totalSum, totalSq float64
		for _, j := range sorted {
			totalSum += b.y[j]
			totalSq += b.y[j] * b.y[j]
		}
		var leftSum, leftSq float64
		for k := 1; k < n; k++ {
			yj := b.y[sorted[k-1]]
			leftSum += yj
			leftSq += yj * yj
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(k), float64(n-k)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

type isoBuilder struct {
	X        [][]float64
	rng      *rand.Rand
	width    int
	maxDepth int
	nodes    []Node
}

func (b *isoBuilder) build(idx []int, depth int) int32 {
	pos := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Left: leaf, Right: leaf, Size: int32(len(idx))})
	if len(idx) <= 1 || depth >= b.maxDepth {
		return pos
	}
	for _, f := range b.rng.Perm(b.width) {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, j := range idx {
			lo = math.Min(lo, b.X[j][f])
			hi = math.Max(hi, b.X[j][f])
		}
		if !(hi > lo) {
			continue
		}
		threshold := lo + b.rng.Float64()*(hi-lo)
		if threshold >= hi {
			threshold = lo
		}
		var left, right []int
		for _, j := range idx {
			if b.X[j][f] <= threshold {
				left = append(left, j)
			} else {
				right = append(right, j)
			}
		}
		l := b.build(left, depth+1)
		r := b.build(right, depth+1)
		n := &b.nodes[pos]
		n.Feature, n.Threshold, n.Left, n.Right = int32(f), threshold, l, r
		return pos
	}
	return pos
}
