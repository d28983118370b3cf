// Package tree implements a CART regression tree used as the base learner
// of ensemble.RandomForestRegressor.
package tree

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/core/model"
	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// Node is one entry of the flat node table. Children are indices into the
// same table; a leaf has Feature == -1.
type Node struct {
	Feature   int     // split feature (-1 for leaves)
	Threshold float64 // x[Feature] <= Threshold goes left
	Left      int
	Right     int
	Value     float64 // mean target of the samples reaching this node
	NSamples  int
	Impurity  float64 // mean squared deviation of the node's targets
	Gain      float64 // weighted impurity decrease achieved by the split
}

// IsLeaf returns true if the node has no children
func (n *Node) IsLeaf() bool {
	return n.Feature < 0
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the depth of the tree (root depth = 0). 0 means no limit.
func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many features are considered per split. 0 means all.
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }

// WithRandomState seeds the feature subsampling.
func WithRandomState(seed uint64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// DecisionTreeRegressor is a CART regressor with the squared-error criterion.
type DecisionTreeRegressor struct {
	state *model.StateManager

	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomState     uint64

	nodes []Node
	gains []float64 // summed split gain per feature
	depth int
}

// NewDecisionTreeRegressor returns a regressor with sklearn-like defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		state:           model.NewStateManager(),
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	samples := make([]int, rows)
	for i := range samples {
		samples[i] = i
	}
	return t.FitSamples(X, y, samples)
}

// FitSamples grows the tree on the rows listed in samples. Indices may
// repeat, which is how bootstrap resampling is expressed without copying X.
func (t *DecisionTreeRegressor) FitSamples(X, y mat.Matrix, samples []int) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	if err := t.validateParams(); err != nil {
		return err
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 || len(samples) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", 1, yCols, 1)
	}
	if err := errors.CheckMatrix("DecisionTreeRegressor.Fit", X); err != nil {
		return err
	}

	// column-major copy for the split search
	columns := make([][]float64, cols)
	for j := range columns {
		columns[j] = mat.Col(nil, j, X)
	}
	target := mat.Col(nil, 0, y)
	if err := errors.CheckFinite("DecisionTreeRegressor.Fit", target); err != nil {
		return err
	}
	for _, s := range samples {
		if s < 0 || s >= rows {
			return errors.NewValueError("DecisionTreeRegressor.Fit", fmt.Sprintf("sample index %d out of range [0, %d)", s, rows))
		}
	}

	b := &builder{
		tree:    t,
		columns: columns,
		y:       target,
		rng:     rand.New(rand.NewPCG(t.RandomState, t.RandomState)),
		buf:     make([]int, len(samples)),
	}
	t.nodes = t.nodes[:0]
	t.gains = make([]float64, cols)
	t.depth = 0

	idx := slices.Clone(samples)
	b.grow(idx, 0)

	t.state.SetDimensions(cols, len(samples))
	t.state.SetFitted()
	return nil
}

func (t *DecisionTreeRegressor) validateParams() error {
	switch {
	case t.MaxDepth < 0:
		return errors.NewValidationError("max_depth", "must be >= 0", t.MaxDepth)
	case t.MinSamplesSplit < 2:
		return errors.NewValidationError("min_samples_split", "must be >= 2", t.MinSamplesSplit)
	case t.MinSamplesLeaf < 1:
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", t.MinSamplesLeaf)
	case t.MaxFeatures < 0:
		return errors.NewValidationError("max_features", "must be >= 0", t.MaxFeatures)
	}
	return nil
}

// Predict returns an n×1 matrix of predictions.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := t.state.RequireFeatures("DecisionTreeRegressor", "Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.SetVec(i, t.PredictRow(row))
	}
	return out, nil
}

// PredictRow walks the tree for a single feature vector. The caller must
// ensure the tree is fitted and len(row) matches the training width.
func (t *DecisionTreeRegressor) PredictRow(row []float64) float64 {
	id := 0
	for {
		n := &t.nodes[id]
		if n.IsLeaf() {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			id = n.Left
		} else {
			id = n.Right
		}
	}
}

// FeatureImportances returns the normalized total gain of each feature.
// A tree that never split reports all zeros.
func (t *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := t.state.RequireFitted("DecisionTreeRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	out := make([]float64, len(t.gains))
	var total float64
	for _, g := range t.gains {
		total += g
	}
	if total <= 0 {
		return out, nil
	}
	for j, g := range t.gains {
		out[j] = g / total
	}
	return out, nil
}

// IsFitted reports whether Fit has completed.
func (t *DecisionTreeRegressor) IsFitted() bool { return t.state.IsFitted() }

// Nodes returns a copy of the node table.
func (t *DecisionTreeRegressor) Nodes() []Node { return slices.Clone(t.nodes) }

// NodeCount returns the number of nodes.
func (t *DecisionTreeRegressor) NodeCount() int { return len(t.nodes) }

// Depth returns the depth of the deepest leaf.
func (t *DecisionTreeRegressor) Depth() int { return t.depth }

// NLeaves returns the number of leaves.
func (t *DecisionTreeRegressor) NLeaves() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

type builder struct {
	tree    *DecisionTreeRegressor
	columns [][]float64
	y       []float64
	rng     *rand.Rand
	buf     []int
}

type split struct {
	feature   int
	threshold float64
	pos       int // number of samples going left after sorting by feature
	proxy     float64
}

// grow appends the subtree for idx and returns its root id.
func (b *builder) grow(idx []int, depth int) int {
	t := b.tree
	n := len(idx)

	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	mean := sum / float64(n)
	var sse float64
	for _, i := range idx {
		d := b.y[i] - mean
		sse += d * d
	}

	id := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		Feature:  -1,
		Left:     -1,
		Right:    -1,
		Value:    mean,
		NSamples: n,
		Impurity: sse / float64(n),
	})
	if depth > t.depth {
		t.depth = depth
	}

	if (t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		n < t.MinSamplesSplit ||
		n < 2*t.MinSamplesLeaf ||
		sse == 0 {
		return id
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	col := b.columns[best.feature]
	left := make([]int, 0, best.pos)
	right := make([]int, 0, n-best.pos)
	for _, i := range idx {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	// gain = parent SSE - children SSE = proxy - sum²/n
	gain := best.proxy - sum*sum/float64(n)
	if gain < 0 {
		gain = 0
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	node := &t.nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	node.Gain = gain
	t.gains[best.feature] += gain
	return id
}

// bestSplit scans candidate thresholds between distinct consecutive values
// and maximizes sumL²/nL + sumR²/nR. Ties keep the earlier candidate.
func (b *builder) bestSplit(idx []int, total float64) (split, bool) {
	t := b.tree
	n := len(idx)
	p := len(b.columns)

	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		b.rng.Shuffle(p, func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:t.MaxFeatures]
		slices.Sort(features)
	}

	best := split{feature: -1, proxy: math.Inf(-1)}
	sorted := b.buf[:n]
	minLeaf := t.MinSamplesLeaf

	for _, f := range features {
		col := b.columns[f]
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int { return cmp.Compare(col[a], col[c]) })

		if col[sorted[0]] == col[sorted[n-1]] {
			continue
		}

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += b.y[sorted[k]]
			nL := k + 1
			nR := n - nL
			if nL < minLeaf || nR < minLeaf {
				continue
			}
			lo, hi := col[sorted[k]], col[sorted[k+1]]
			if lo == hi {
				continue
			}
			sumR := total - sumL
			proxy := sumL*sumL/float64(nL) + sumR*sumR/float64(nR)
			if proxy > best.proxy {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: nL, proxy: proxy}
			}
		}
	}

	return best, best.feature >= 0
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)
