// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/core/model"
	"github.com/YuminosukeSato/salaryml/core/parallel"
	"github.com/YuminosukeSato/salaryml/metrics"
	"github.com/YuminosukeSato/salaryml/pkg/errors"
	"github.com/YuminosukeSato/salaryml/pkg/log"
	"github.com/YuminosukeSato/salaryml/sklearn/tree"
)

// Below this many trees Predict runs on the calling goroutine unless NJobs is set.
const sequentialPredictTrees = 8

// RandomForestRegressor averages the predictions of bootstrapped regression trees.
type RandomForestRegressor struct {
	state *model.StateManager

	// Hyperparameters (matching scikit-learn)
	NEstimators     int    // Number of trees
	MaxDepth        int    // Maximum tree depth, 0 for no limit
	MinSamplesSplit int    // Minimum samples to split an internal node
	MinSamplesLeaf  int    // Minimum samples in a leaf
	MaxFeatures     int    // Features considered per split, 0 for all
	Bootstrap       bool   // Draw a bootstrap sample for each tree
	RandomState     uint64 // Base seed; tree i uses RandomState+i
	NJobs           int    // Parallel workers, 0 for GOMAXPROCS

	trees       []*tree.DecisionTreeRegressor
	importances []float64
}

// NewRandomForestRegressor creates a forest with scikit-learn's defaults.
func NewRandomForestRegressor() *RandomForestRegressor {
	return &RandomForestRegressor{
		state:           model.NewStateManager(),
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
}

// WithNEstimators sets the number of trees
func (f *RandomForestRegressor) WithNEstimators(n int) *RandomForestRegressor {
	f.NEstimators = n
	return f
}

// WithMaxDepth sets the maximum depth
func (f *RandomForestRegressor) WithMaxDepth(d int) *RandomForestRegressor {
	f.MaxDepth = d
	return f
}

// WithMinSamplesLeaf sets the minimum leaf size
func (f *RandomForestRegressor) WithMinSamplesLeaf(n int) *RandomForestRegressor {
	f.MinSamplesLeaf = n
	return f
}

// WithMaxFeatures sets the number of features considered per split
func (f *RandomForestRegressor) WithMaxFeatures(k int) *RandomForestRegressor {
	f.MaxFeatures = k
	return f
}

// WithBootstrap toggles bootstrap resampling
func (f *RandomForestRegressor) WithBootstrap(b bool) *RandomForestRegressor {
	f.Bootstrap = b
	return f
}

// WithRandomState sets the random seed
func (f *RandomForestRegressor) WithRandomState(seed uint64) *RandomForestRegressor {
	f.RandomState = seed
	return f
}

// WithNJobs sets the number of parallel workers
func (f *RandomForestRegressor) WithNJobs(n int) *RandomForestRegressor {
	f.NJobs = n
	return f
}

// Fit trains the forest.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	return f.FitContext(context.Background(), X, y)
}

// FitContext trains the forest, stopping early when ctx is cancelled.
// Trees are grown concurrently; every tree draws from its own seeded source,
// so the fitted forest does not depend on scheduling.
func (f *RandomForestRegressor) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", f.NEstimators)
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("RandomForestRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("RandomForestRegressor.Fit", 1, yCols, 1)
	}

	logger := log.GetLoggerWithName("ensemble.forest")
	start := time.Now()

	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers())
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return errors.SafeExecute(fmt.Sprintf("RandomForestRegressor.Fit[tree %d]", i), func() error {
				seed := f.RandomState + uint64(i)
				t := tree.NewDecisionTreeRegressor(
					tree.WithMaxDepth(f.MaxDepth),
					tree.WithMinSamplesSplit(f.MinSamplesSplit),
					tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
					tree.WithMaxFeatures(f.MaxFeatures),
					tree.WithRandomState(seed),
				)
				if err := t.FitSamples(X, y, f.drawSamples(rows, seed)); err != nil {
					return err
				}
				trees[i] = t
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	importances, err := aggregateImportances(trees, cols)
	if err != nil {
		return err
	}

	f.trees = trees
	f.importances = importances
	f.state.SetDimensions(cols, rows)
	f.state.SetFitted()

	logger.Debug("Forest fitted",
		log.ModelNameKey, "RandomForestRegressor",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.TreesKey, len(trees),
		log.RandomSeedKey, f.RandomState,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (f *RandomForestRegressor) workers() int {
	if f.NJobs > 0 {
		return f.NJobs
	}
	return runtime.GOMAXPROCS(0)
}

// drawSamples returns the row indices for one tree: a bootstrap draw of
// size n, or every row when bootstrapping is disabled.
func (f *RandomForestRegressor) drawSamples(n int, seed uint64) []int {
	samples := make([]int, n)
	if !f.Bootstrap {
		for j := range samples {
			samples[j] = j
		}
		return samples
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	for j := range samples {
		samples[j] = rng.IntN(n)
	}
	return samples
}

// aggregateImportances averages the per-tree normalized importances over
// trees that split at least once, then renormalizes.
func aggregateImportances(trees []*tree.DecisionTreeRegressor, cols int) ([]float64, error) {
	out := make([]float64, cols)
	used := 0
	for _, t := range trees {
		if t.NodeCount() <= 1 {
			continue
		}
		imp, err := t.FeatureImportances()
		if err != nil {
			return nil, err
		}
		for j, v := range imp {
			out[j] += v
		}
		used++
	}
	if used == 0 {
		return out, nil
	}
	var total float64
	for j := range out {
		out[j] /= float64(used)
		total += out[j]
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out, nil
}

// Predict returns an n×1 matrix holding the mean tree prediction per row.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := f.state.RequireFeatures("RandomForestRegressor", "Predict", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.NewValueError("RandomForestRegressor.Predict", "empty data")
	}
	if err := errors.CheckMatrix("RandomForestRegressor.Predict", X); err != nil {
		return nil, err
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, X)
	}

	// per-tree predictions, summed afterwards in tree order
	perTree := make([][]float64, len(f.trees))
	work := func(start, end int) {
		for t := start; t < end; t++ {
			preds := make([]float64, rows)
			for i, row := range data {
				preds[i] = f.trees[t].PredictRow(row)
			}
			perTree[t] = preds
		}
	}
	if f.NJobs > 0 {
		parallel.ParallelizeN(len(f.trees), f.workers(), work)
	} else {
		parallel.ParallelizeWithThreshold(len(f.trees), sequentialPredictTrees, work)
	}

	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		var sum float64
		for t := range perTree {
			sum += perTree[t][i]
		}
		out.SetVec(i, sum/float64(len(perTree)))
	}
	return out, nil
}

// Score returns R² of the predictions on X against y.
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	preds, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := y.Dims()
	return metrics.R2Score(mat.NewVecDense(rows, mat.Col(nil, 0, y)), mat.NewVecDense(rows, mat.Col(nil, 0, preds)))
}

// FeatureImportances returns the impurity-based importances, summing to 1
// unless no tree ever split.
func (f *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if err := f.state.RequireFitted("RandomForestRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out, nil
}

// Estimators returns the fitted trees.
func (f *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	out := make([]*tree.DecisionTreeRegressor, len(f.trees))
	copy(out, f.trees)
	return out
}

// IsFitted reports whether Fit has completed.
func (f *RandomForestRegressor) IsFitted() bool { return f.state.IsFitted() }

// GetParams returns the hyperparameters in scikit-learn naming.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.NEstimators,
		"max_depth":         f.MaxDepth,
		"min_samples_split": f.MinSamplesSplit,
		"min_samples_leaf":  f.MinSamplesLeaf,
		"max_features":      f.MaxFeatures,
		"bootstrap":         f.Bootstrap,
		"random_state":      f.RandomState,
	}
}

var (
	_ model.Regressor          = (*RandomForestRegressor)(nil)
	_ model.FeatureImportancer = (*RandomForestRegressor)(nil)
)
